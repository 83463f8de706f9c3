package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/salchaD-27/cargo-tidy-lints/internal/finding"
)

// ExportText returns a table of finding counts per scope and category.
func ExportText(findings []finding.Finding) (string, error) {
	titleCaser := cases.Title(language.English)
	counts := finding.Count(findings)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := table.Row{"Scope"}
	for _, cat := range finding.Categories {
		header = append(header, titleCaser.String(string(cat)))
	}
	t.AppendHeader(header)

	for _, scope := range []finding.Scope{finding.Workspace, finding.Crate} {
		row := table.Row{titleCaser.String(string(scope))}
		for _, cat := range finding.Categories {
			row = append(row, counts[scope][cat])
		}
		t.AppendRow(row)
	}

	return t.Render() + "\n", nil
}

// ExportMarkdown returns a Markdown formatted report string.
func ExportMarkdown(findings []finding.Finding) (string, error) {
	var b strings.Builder
	b.WriteString("# Lint Tidy Report\n\n")

	if len(findings) == 0 {
		b.WriteString("✅ Nothing to tidy.\n")
		return b.String(), nil
	}

	for _, f := range findings {
		b.WriteString(fmt.Sprintf("- **[%s/%s]** `%s`: %s (group: %s, level: %s)\n",
			f.Scope, f.Category, f.File, f.Lint, f.Group, f.Level))
	}

	return b.String(), nil
}

// ExportJSON returns the JSON formatted report string.
func ExportJSON(findings []finding.Finding) (string, error) {
	if findings == nil {
		findings = []finding.Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportYAML returns the YAML formatted report string.
func ExportYAML(findings []finding.Finding) (string, error) {
	if findings == nil {
		findings = []finding.Finding{}
	}
	data, err := yaml.Marshal(findings)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportGitHubActions returns a GitHub Actions annotation formatted string.
func ExportGitHubActions(findings []finding.Finding) (string, error) {
	var b strings.Builder
	for _, f := range findings {
		level := ""
		switch f.Category {
		case finding.Duplicate, finding.Deprecated:
			level = "warning"
		default:
			level = "notice"
		}
		msg := fmt.Sprintf("%s lint %s is %s (group: %s, level: %s)", f.Scope, f.Lint, f.Category, f.Group, f.Level)
		b.WriteString(fmt.Sprintf("::%s file=%s::%s\n", level, f.File, escapeGHA(msg)))
	}
	return b.String(), nil
}

// escapeGHA escapes the annotation message so lint ids and groups
// containing ':' or ',' survive the workflow command parser.
func escapeGHA(msg string) string {
	replacements := []struct{ old, new string }{
		{"%", "%25"},
		{"\r", "%0D"},
		{"\n", "%0A"},
		{":", "%3A"},
		{",", "%2C"},
	}
	for _, r := range replacements {
		msg = strings.ReplaceAll(msg, r.old, r.new)
	}
	return msg
}

// Export renders findings in the named format: text, json, yaml,
// markdown or gha.
func Export(format string, findings []finding.Finding) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return ExportJSON(findings)
	case "yaml":
		return ExportYAML(findings)
	case "markdown":
		return ExportMarkdown(findings)
	case "gha":
		return ExportGitHubActions(findings)
	case "text", "":
		return ExportText(findings)
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}
