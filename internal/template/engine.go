package template

import (
	"bytes"
	"fmt"
	htmlTemplate "html/template"
	"os"
	textTemplate "text/template"
)

// Engine renders campaign templates with data
type Engine struct {
	path string
}

// NewEngine creates an engine bound to the template file at path
func NewEngine(path string) *Engine {
	return &Engine{path: path}
}

// Render loads the template file and renders it with the given variables.
// The file is re-read on every render so edits take effect without a restart.
func (e *Engine) Render(vars Vars) (string, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return e.renderHTML(string(content), vars.Map())
}

// RenderSubject renders a subject line template
func (e *Engine) RenderSubject(tmplStr string, vars Vars) (string, error) {
	t, err := textTemplate.New("subject").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("invalid subject template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars.Map()); err != nil {
		return "", fmt.Errorf("failed to render subject: %w", err)
	}
	return buf.String(), nil
}

// Validate checks that the template file exists and parses
func (e *Engine) Validate() error {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}
	if _, err := htmlTemplate.New("body").Parse(string(content)); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

func (e *Engine) renderHTML(tmplStr string, data map[string]interface{}) (string, error) {
	t, err := htmlTemplate.New("body").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
