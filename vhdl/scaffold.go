package vhdl

import (
	"bytes"
	"text/template"
)

// ScaffoldFiles is the project scaffold for a synthesized chip: a
// Quartus project/settings pair and a Modelsim compile-and-run script,
// templated the way a generated build scaffold is elsewhere in this
// ecosystem (a fixed TCL skeleton filled in per project).
type ScaffoldFiles struct {
	QuartusProjectTCL string
	QuartusSettings   string
	ModelsimDo        string
}

// ScaffoldParams names the files Scaffold fills into the templates.
type ScaffoldParams struct {
	Project   string // project and top-level entity name
	VHDLFiles []string
	Testbench string
	CompareTo string
}

var quartusProjectTpl = template.Must(template.New("qpf").Parse(
	`# GENERATED FILE, DO NOT EDIT
# Quartus project TCL script for "{{.Project}}"
project_new {{.Project}} -overwrite
set_global_assignment -name TOP_LEVEL_ENTITY {{.Project}}
{{- range .VHDLFiles}}
set_global_assignment -name VHDL_FILE {{.}}
{{- end}}
project_close
# end
`))

var quartusSettingsTpl = template.Must(template.New("qsf").Parse(
	`# GENERATED FILE, DO NOT EDIT
# Quartus settings file for "{{.Project}}"
set_global_assignment -name FAMILY "Cyclone V"
set_global_assignment -name TOP_LEVEL_ENTITY {{.Project}}
{{- range .VHDLFiles}}
set_global_assignment -name VHDL_FILE {{.}}
{{- end}}
# end
`))

var modelsimDoTpl = template.Must(template.New("do").Parse(
	`# GENERATED FILE, DO NOT EDIT
# Modelsim compile-and-run script for "{{.Project}}"
vlib work
{{- range .VHDLFiles}}
vcom -2008 {{.}}
{{- end}}
vcom -2008 {{.Testbench}}
vsim work.{{.Project}}_tb
run -all
quit
# end
`))

// Scaffold renders the Quartus/Modelsim project files for p.
func Scaffold(p ScaffoldParams) (ScaffoldFiles, error) {
	qpf, err := render(quartusProjectTpl, p)
	if err != nil {
		return ScaffoldFiles{}, err
	}
	qsf, err := render(quartusSettingsTpl, p)
	if err != nil {
		return ScaffoldFiles{}, err
	}
	do, err := render(modelsimDoTpl, p)
	if err != nil {
		return ScaffoldFiles{}, err
	}
	return ScaffoldFiles{
		QuartusProjectTCL: qpf,
		QuartusSettings:   qsf,
		ModelsimDo:        do,
	}, nil
}

func render(t *template.Template, p ScaffoldParams) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
