// Package paths generates JSON Pointer path constants for the settings of a
// struct type, for use with tree.Define.
package paths

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options holds the options for the paths generator.
type Options struct {
	TypeName    string
	TagName     string
	Output      string
	PackageName string
}

// DefaultTagName is the struct tag consulted for keys when none is given.
const DefaultTagName = "json"

var writeFile = os.WriteFile

// Run generates the path constants of opts.TypeName declared in the package
// containing sourceFile and writes them to opts.Output. A progress line is
// written to log.
func Run(sourceFile string, opts Options, log io.Writer) error {
	if opts.TypeName == "" {
		return fmt.Errorf("type name is required")
	}
	if opts.TagName == "" {
		opts.TagName = DefaultTagName
	}

	pkg, structType, err := parseSourceFile(sourceFile, opts.TypeName)
	if err != nil {
		return fmt.Errorf("failed to parse source file: %w", err)
	}

	pkgName := opts.PackageName
	if pkgName == "" {
		pkgName = pkg.Name
	}

	outputFile := opts.Output
	if outputFile == "" {
		outputFile = defaultOutputFile(sourceFile)
	}

	analysis, err := analyzeStruct(structType, pkg.Types, opts.TagName)
	if err != nil {
		return fmt.Errorf("failed to analyze struct: %w", err)
	}

	code, err := generateCode(analysis, GeneratorConfig{
		PackageName: pkgName,
		TypeName:    opts.TypeName,
		SourceFile:  filepath.Base(sourceFile),
		TagName:     opts.TagName,
	})
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := writeFile(outputFile, code, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(log, "generated %s\n", outputFile)
	return nil
}

// defaultOutputFile returns the default output file name based on the source file.
// e.g., "config.go" -> "config_paths.go"
func defaultOutputFile(sourceFile string) string {
	dir := filepath.Dir(sourceFile)
	base := filepath.Base(sourceFile)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+"_paths"+ext)
}
