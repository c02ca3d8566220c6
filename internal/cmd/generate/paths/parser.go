package paths

import (
	"fmt"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// ParsedPackage holds the parsed package information.
type ParsedPackage struct {
	Name  string
	Path  string
	Types *types.Package
}

var loadPackages = packages.Load

// parseSourceFile loads the package containing sourceFile and returns the
// package info and the struct type named typeName.
func parseSourceFile(sourceFile string, typeName string) (*ParsedPackage, *types.Struct, error) {
	absPath, err := filepath.Abs(sourceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:  filepath.Dir(absPath),
	}

	pkgs, err := loadPackages(cfg, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load package: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, nil, fmt.Errorf("no packages found")
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, nil, fmt.Errorf("package errors: %v", pkg.Errors)
	}

	structType, err := lookupStruct(pkg.Types, typeName)
	if err != nil {
		return nil, nil, err
	}

	return &ParsedPackage{
		Name:  pkg.Name,
		Path:  pkg.PkgPath,
		Types: pkg.Types,
	}, structType, nil
}

// lookupStruct finds the struct type named typeName in pkg.
func lookupStruct(pkg *types.Package, typeName string) (*types.Struct, error) {
	obj := pkg.Scope().Lookup(typeName)
	if obj == nil {
		return nil, fmt.Errorf("type %s not found in package %s", typeName, pkg.Name())
	}
	if _, ok := obj.(*types.TypeName); !ok {
		return nil, fmt.Errorf("%s is not a type", typeName)
	}

	structType, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("%s is not a struct type", typeName)
	}
	return structType, nil
}
