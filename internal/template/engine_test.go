package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "email_template.html")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRender(t *testing.T) {
	path := writeTemplate(t, `<html><body>
<p>Hi {{.contact_name}},</p>
<p>{{.sender_name}} from {{.company_name}} would love to show you {{.product_name}}.</p>
{{if .is_reminder}}<p>This is reminder #{{.reminder_number}}.</p>{{end}}
<a href="{{.interested_link}}">I'm interested</a>
<a href="{{.not_interested_link}}">Not interested</a>
</body></html>`)

	engine := NewEngine(path)
	html, err := engine.Render(Vars{
		ContactName:       "Ada",
		CompanyName:       "MindLinks",
		ProductName:       "Outreach",
		SenderName:        "Sam",
		InterestedLink:    "http://localhost:8000/interested/1",
		NotInterestedLink: "http://localhost:8000/not-interested/1",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{"Hi Ada,", "Sam from MindLinks", "/interested/1", "/not-interested/1"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered output missing %q", want)
		}
	}
	if strings.Contains(html, "reminder #") {
		t.Error("reminder block should not render for initial send")
	}
}

func TestRenderReminderFlags(t *testing.T) {
	path := writeTemplate(t, `{{if .is_reminder}}Reminder {{.reminder_number}}{{else}}Initial{{end}}`)

	engine := NewEngine(path)
	out, err := engine.Render(Vars{IsReminder: true, ReminderNumber: 2})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Reminder 2" {
		t.Errorf("Render() = %q, want %q", out, "Reminder 2")
	}
}

func TestRenderDefaultCompany(t *testing.T) {
	path := writeTemplate(t, `{{.contact_company}}`)

	engine := NewEngine(path)
	out, err := engine.Render(Vars{ContactName: "Ada"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "your organization" {
		t.Errorf("Render() = %q, want default company placeholder", out)
	}
}

func TestRenderSubject(t *testing.T) {
	engine := NewEngine("")
	subject, err := engine.RenderSubject("Let's Schedule a Demo - {{.company_name}}", Vars{CompanyName: "MindLinks"})
	if err != nil {
		t.Fatalf("RenderSubject() error = %v", err)
	}
	if subject != "Let's Schedule a Demo - MindLinks" {
		t.Errorf("RenderSubject() = %q", subject)
	}
}

func TestRenderMissingFile(t *testing.T) {
	engine := NewEngine(filepath.Join(t.TempDir(), "nope.html"))
	if _, err := engine.Render(Vars{}); err == nil {
		t.Error("Render() expected error for missing template file")
	}
}

func TestValidate(t *testing.T) {
	good := writeTemplate(t, `<p>{{.contact_name}}</p>`)
	if err := NewEngine(good).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := writeTemplate(t, `{{.unclosed`)
	if err := NewEngine(bad).Validate(); err == nil {
		t.Error("Validate() expected error for bad template")
	}
}
