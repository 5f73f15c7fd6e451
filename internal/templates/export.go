package templates

import (
	"bytes"
	"text/template"
)

type ExportMessage struct {
	Role      string
	Content   string
	CreatedAt string
}

type ExportData struct {
	Title        string
	Model        string
	CreatedAt    string
	UpdatedAt    string
	SystemPrompt string
	Temperature  float64
	TopP         float64
	TopK         int
	MaxTokens    int
	Messages     []ExportMessage
}

const exportMarkdown = `# {{.Title}}

- **Model:** {{.Model}}
- **Created:** {{.CreatedAt}}
- **Updated:** {{.UpdatedAt}}
{{- if .SystemPrompt}}
- **System Prompt:** {{.SystemPrompt}}
{{- end}}
- **Parameters:** temperature={{.Temperature}}, top_p={{.TopP}}, top_k={{.TopK}}, max_tokens={{.MaxTokens}}

---
{{range .Messages}}
## {{.Role}} ({{.CreatedAt}})

{{.Content}}
{{end}}`

const exportText = `{{.Title}}
Model: {{.Model}}
Created: {{.CreatedAt}}
Updated: {{.UpdatedAt}}
{{- if .SystemPrompt}}
System Prompt: {{.SystemPrompt}}
{{- end}}
Parameters: temperature={{.Temperature}}, top_p={{.TopP}}, top_k={{.TopK}}, max_tokens={{.MaxTokens}}
========================================
{{range .Messages}}
[{{.CreatedAt}}] {{.Role}}:
{{.Content}}
{{end}}`

func RenderExportMarkdown(data ExportData) (string, error) {
	tmpl, err := template.New("export_markdown").Parse(exportMarkdown)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderExportText(data ExportData) (string, error) {
	tmpl, err := template.New("export_text").Parse(exportText)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
