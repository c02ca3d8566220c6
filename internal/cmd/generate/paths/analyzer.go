package paths

import (
	"fmt"
	"go/types"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/yacchi/kura/jsonptr"
)

// kuraTagName is the struct tag holding generator directives:
//
//	kura:"-"     skip the field
//	kura:"leaf"  treat a struct field as a single setting instead of recursing
const kuraTagName = "kura"

// PathInfo describes one setting path.
type PathInfo struct {
	// JSONPointer is the full path, e.g., "/server/port"
	JSONPointer string
	// ConstName is the generated constant name, e.g., "PathServerPort"
	ConstName string
	// FieldPath is the dotted Go field path, e.g., "Server.Port"
	FieldPath string
	// GoType is the field type as written in the source package.
	GoType string
}

// AnalysisResult holds all discovered paths in field order.
type AnalysisResult struct {
	Paths []PathInfo
}

type analysisContext struct {
	pointer   string
	fieldPath string
	tagName   string
	pkg       *types.Package
	seen      map[*types.Struct]bool
}

func (ctx *analysisContext) with(key, field string) *analysisContext {
	next := *ctx
	next.pointer = ctx.pointer + "/" + jsonptr.Escape(key)
	if ctx.fieldPath == "" {
		next.fieldPath = field
	} else {
		next.fieldPath = ctx.fieldPath + "." + field
	}
	return &next
}

// analyzeStruct walks structType and returns the path of every setting it
// declares. Nested structs are flattened; every other type is a leaf.
// Types are printed relative to pkg, which may be nil.
func analyzeStruct(structType *types.Struct, pkg *types.Package, tagName string) (*AnalysisResult, error) {
	result := &AnalysisResult{Paths: make([]PathInfo, 0)}
	ctx := &analysisContext{
		tagName: tagName,
		pkg:     pkg,
		seen:    make(map[*types.Struct]bool),
	}
	if err := analyzeStructRecursive(structType, ctx, result); err != nil {
		return nil, err
	}

	byConst := make(map[string]string, len(result.Paths))
	for _, p := range result.Paths {
		if other, ok := byConst[p.ConstName]; ok {
			return nil, fmt.Errorf("paths %s and %s both map to constant %s", other, p.JSONPointer, p.ConstName)
		}
		byConst[p.ConstName] = p.JSONPointer
	}
	return result, nil
}

func analyzeStructRecursive(structType *types.Struct, ctx *analysisContext, result *AnalysisResult) error {
	if ctx.seen[structType] {
		return fmt.Errorf("recursive type at %s", ctx.pointer)
	}
	ctx.seen[structType] = true
	defer delete(ctx.seen, structType)

	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		if !field.Exported() {
			continue
		}

		tag := structType.Tag(i)
		directive := parseKuraTag(tag)
		if directive == "-" {
			continue
		}
		key := getFieldKey(field.Name(), tag, ctx.tagName)
		if key == "-" {
			continue
		}

		fieldCtx := ctx.with(key, field.Name())
		if directive == "leaf" {
			addPathInfo(field.Type(), fieldCtx, result)
			continue
		}
		if err := analyzeFieldType(field.Type(), fieldCtx, result); err != nil {
			return err
		}
	}
	return nil
}

func analyzeFieldType(fieldType types.Type, ctx *analysisContext, result *AnalysisResult) error {
	t := fieldType
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	if named, ok := t.(*types.Named); ok && isExternalType(named) {
		addPathInfo(fieldType, ctx, result)
		return nil
	}

	if s, ok := t.Underlying().(*types.Struct); ok {
		return analyzeStructRecursive(s, ctx, result)
	}

	// Slices, maps, and scalars are stored as one setting each.
	addPathInfo(fieldType, ctx, result)
	return nil
}

func addPathInfo(fieldType types.Type, ctx *analysisContext, result *AnalysisResult) {
	result.Paths = append(result.Paths, PathInfo{
		JSONPointer: ctx.pointer,
		ConstName:   generateConstName(ctx.pointer),
		FieldPath:   ctx.fieldPath,
		GoType:      types.TypeString(fieldType, types.RelativeTo(ctx.pkg)),
	})
}

// isExternalType reports whether a named type comes from the standard
// library, such as time.Time or time.Duration. Such types are leaf values.
func isExternalType(named *types.Named) bool {
	obj := named.Obj()
	if obj == nil || obj.Pkg() == nil {
		return false
	}
	return !isLocalPackage(obj.Pkg().Path())
}

// isLocalPackage checks if a package path looks like a user package.
// Standard library paths have no dot in their first segment.
func isLocalPackage(pkgPath string) bool {
	first := pkgPath
	if idx := strings.Index(pkgPath, "/"); idx > 0 {
		first = pkgPath[:idx]
	}
	return strings.Contains(first, ".") || first == "command-line-arguments"
}

// getFieldKey returns the field key from the tag or field name.
func getFieldKey(fieldName, tag, tagName string) string {
	tagValue := reflect.StructTag(tag).Get(tagName)
	if idx := strings.Index(tagValue, ","); idx >= 0 {
		tagValue = tagValue[:idx]
	}
	if tagValue == "" {
		return fieldName
	}
	return tagValue
}

// parseKuraTag returns the first directive of the kura tag, or "".
func parseKuraTag(tag string) string {
	value := reflect.StructTag(tag).Get(kuraTagName)
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

// generateConstName generates a constant name from a JSON Pointer path.
func generateConstName(pointer string) string {
	var b strings.Builder
	b.WriteString("Path")
	for _, seg := range splitPath(pointer) {
		b.WriteString(toCamelCase(jsonptr.Unescape(seg)))
	}
	return b.String()
}

// splitPath splits a JSON Pointer path into its raw segments.
func splitPath(pointer string) []string {
	if pointer == "" || pointer == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(pointer, "/"), "/")
}

var separatorRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// toCamelCase converts a key to CamelCase, dropping characters that cannot
// appear in an identifier.
func toCamelCase(s string) string {
	var result strings.Builder
	for _, part := range separatorRegex.Split(s, -1) {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		result.WriteString(string(runes))
	}
	return result.String()
}
