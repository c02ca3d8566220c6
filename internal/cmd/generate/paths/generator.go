package paths

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"
)

// GeneratorConfig holds what the generated file header and names need.
type GeneratorConfig struct {
	PackageName string
	TypeName    string
	SourceFile  string
	TagName     string
}

var codeTemplate = template.Must(template.New("paths").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by kura gen paths from {{.Config.SourceFile}}; DO NOT EDIT.

package {{.Config.PackageName}}

{{if .Paths -}}
// Setting paths of {{.Config.TypeName}}, keyed by the {{quote .Config.TagName}} struct tag.
const (
{{- range .Paths}}
	// {{.ConstName}} is the path of {{.FieldPath}} ({{.GoType}}).
	{{.ConstName}} = {{quote .JSONPointer}}
{{- end}}
)
{{end}}
// {{.Config.TypeName}}Paths lists every setting path of {{.Config.TypeName}} in field order.
var {{.Config.TypeName}}Paths = []string{
{{- range .Paths}}
	{{.ConstName}},
{{- end}}
}
`))

// generateCode renders the path constants and formats the result with gofmt.
func generateCode(analysis *AnalysisResult, cfg GeneratorConfig) ([]byte, error) {
	var buf bytes.Buffer
	err := codeTemplate.Execute(&buf, struct {
		Config GeneratorConfig
		Paths  []PathInfo
	}{cfg, analysis.Paths})
	if err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	code, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return code, nil
}
