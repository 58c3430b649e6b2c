package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
	Sender  string
}

// OutreachData feeds the first-contact template.
type OutreachData struct {
	CompanyName   string
	District      string
	Sector        string
	SenderCompany string
	// TalkingPoints personalise the message when a social profile exists.
	TalkingPoints []string
}

type outreachEmailData struct {
	baseEmailData
	OutreachData
}

type replyEmailData struct {
	baseEmailData
	Paragraphs []string
}

// RenderOutreach returns the subject and HTML body of a first-contact email.
func RenderOutreach(data OutreachData) (string, string, error) {
	subject := fmt.Sprintf(subjectOutreachFmt, data.CompanyName)
	body, err := renderEmailTemplate("outreach.html", outreachEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: "Merhaba " + data.CompanyName,
			Sender:  data.SenderCompany,
		},
		OutreachData: data,
	})
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// RenderReply wraps an approved plain-text reply in the HTML layout.
func RenderReply(subject, text, senderCompany string) (string, string, error) {
	if !strings.HasPrefix(strings.ToLower(subject), strings.ToLower(subjectReplyPrefix)) {
		subject = subjectReplyPrefix + subject
	}
	body, err := renderEmailTemplate("reply.html", replyEmailData{
		baseEmailData: baseEmailData{Title: subject, Sender: senderCompany},
		Paragraphs:    splitParagraphs(text),
	})
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
