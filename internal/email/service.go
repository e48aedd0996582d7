package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Service handles email composition and sending
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
	templates   map[string]*template.Template
}

// NewService parses every message template in templates against the shared
// layout. A nil templates uses the embedded set.
func NewService(sender Sender, fromAddress, fromName string, templates fs.FS) (*Service, error) {
	if templates == nil {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded email templates: %w", err)
		}
		templates = sub
	}

	names, err := fs.Glob(templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}

	cache := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		tmpl, err := template.ParseFS(templates, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		cache[name] = tmpl
	}

	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
		templates:   cache,
	}, nil
}

// SendContactNotification alerts the operator about a new inquiry. Replies go
// straight to the customer.
func (s *Service) SendContactNotification(ctx context.Context, data ContactNotification) (string, error) {
	if data.To == "" {
		return "", ErrInvalidToAddress
	}

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return "", fmt.Errorf("failed to render contact notification template: %w", err)
	}

	email := &Email{
		To:       []string{data.To},
		From:     s.from(),
		ReplyTo:  data.Email,
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	id, err := s.sender.Send(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to send contact notification: %w", err)
	}

	return id, nil
}

func (s *Service) from() string {
	if s.fromName == "" {
		return s.fromAddress
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
}

// renderTemplate wraps the template in the layout and returns the HTML body
// and its plain text rendition.
func (s *Service) renderTemplate(templateName string, data EmailTemplate) (string, string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", "", ErrTemplateNotFound(templateName)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "email_layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	for _, br := range []string{"<br>", "<br/>", "<br />"} {
		text = strings.ReplaceAll(text, br, "\n")
	}
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	// Drop the head so the title isn't duplicated into the body.
	if start := strings.Index(text, "<head>"); start >= 0 {
		if end := strings.Index(text, "</head>"); end > start {
			text = text[:start] + text[end+len("</head>"):]
		}
	}

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text[start:], ">")
		if start >= 0 && end > 0 {
			text = text[:start] + text[start+end+1:]
		} else {
			break
		}
	}

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#34;", "\"",
		"&#39;", "'",
	).Replace(text)

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
