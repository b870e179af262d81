package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates
var templatesFS embed.FS

var bodyTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// ReportBody is the data shown in the report email.
type ReportBody struct {
	EmployeeName  string
	RequesterName string
	Total         string
	ReceiptCount  int
}

func Subject(employeeName string) string {
	return "Relatório de Reembolso - " + employeeName
}

func RenderBody(data ReportBody) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.ExecuteTemplate(&buf, "email.report", data); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
