package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender records the last email and returns sendFunc's result.
type mockSender struct {
	sendFunc func(ctx context.Context, email *Email) (string, error)
	calls    int
	last     *Email
}

func (m *mockSender) Send(ctx context.Context, email *Email) (string, error) {
	m.calls++
	m.last = email
	if m.sendFunc != nil {
		return m.sendFunc(ctx, email)
	}
	return "msg-1", nil
}

func TestGeneratePlainText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		excludes []string
	}{
		{
			name:     "simple paragraph",
			html:     "<p>Hello, World!</p>",
			contains: []string{"Hello, World!"},
			excludes: []string{"<p>", "</p>"},
		},
		{
			name:     "line breaks",
			html:     "Line 1<br>Line 2<br/>Line 3<br />Line 4",
			contains: []string{"Line 1", "Line 2", "Line 3", "Line 4"},
			excludes: []string{"<br>", "<br/>", "<br />"},
		},
		{
			name:     "nested tags",
			html:     "<div><p><strong>Name:</strong> Ada</p></div>",
			contains: []string{"Name: Ada"},
			excludes: []string{"<div>", "<p>", "<strong>"},
		},
		{
			name:     "HTML entities",
			html:     "Jen&#39;s &amp; co &lt;bakery&gt; &quot;fresh&quot;",
			contains: []string{"Jen's & co <bakery> \"fresh\""},
			excludes: []string{"&amp;", "&lt;", "&#39;"},
		},
		{
			name:     "head dropped",
			html:     "<html><head><title>Subject line</title></head><body><p>Body</p></body></html>",
			contains: []string{"Body"},
			excludes: []string{"Subject line"},
		},
		{
			name:     "links stripped",
			html:     `<a href="mailto:ada@example.com">ada@example.com</a>`,
			contains: []string{"ada@example.com"},
			excludes: []string{"<a", "href", "</a>"},
		},
		{
			name: "empty content",
			html: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generatePlainText(tt.html)

			for _, want := range tt.contains {
				assert.Contains(t, result, want)
			}
			for _, exclude := range tt.excludes {
				assert.NotContains(t, result, exclude)
			}
		})
	}
}

func TestGeneratePlainText_NoBlankLines(t *testing.T) {
	result := generatePlainText(`
		<p>   Line with spaces   </p>
		<p></p>
		<p>Another line</p>
	`)

	for _, line := range strings.Split(result, "\n") {
		assert.NotEmpty(t, strings.TrimSpace(line))
	}
	assert.Contains(t, result, "Line with spaces")
	assert.Contains(t, result, "Another line")
}

func notification() ContactNotification {
	return NewContactNotification("owner@bakery.test", domain.ContactSubmission{
		Name:            "Ada <script>",
		Email:           "ada@example.com",
		Message:         "Two dozen\nfor Saturday",
		PreferredFormat: domain.FormatFrozen,
		CreatedAt:       time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	})
}

func TestService_SendContactNotification(t *testing.T) {
	sender := &mockSender{}
	svc, err := NewService(sender, "onboarding@resend.dev", "Jen's Gourmet Bites", nil)
	require.NoError(t, err)

	id, err := svc.SendContactNotification(context.Background(), notification())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.NotNil(t, sender.last)
	got := sender.last
	assert.Equal(t, []string{"owner@bakery.test"}, got.To)
	assert.Equal(t, "Jen's Gourmet Bites <onboarding@resend.dev>", got.From)
	assert.Equal(t, "ada@example.com", got.ReplyTo)
	assert.Equal(t, "New Order Inquiry from Ada <script>", got.Subject)

	assert.Contains(t, got.HTMLBody, "New Order Inquiry")
	assert.Contains(t, got.HTMLBody, "Frozen Dough")
	assert.Contains(t, got.HTMLBody, "Not provided")
	assert.Contains(t, got.HTMLBody, `href="mailto:ada@example.com"`)
	assert.NotContains(t, got.HTMLBody, "<script>")
	assert.Contains(t, got.HTMLBody, "contact form")

	assert.Contains(t, got.TextBody, "Name: Ada <script>")
	assert.Contains(t, got.TextBody, "Preferred Format: Frozen Dough")
	assert.NotContains(t, got.TextBody, "<p")
}

func TestService_PhoneShownWhenPresent(t *testing.T) {
	sender := &mockSender{}
	svc, err := NewService(sender, "from@bakery.test", "", nil)
	require.NoError(t, err)

	n := notification()
	phone := "555-0100"
	n.Phone = &phone

	_, err = svc.SendContactNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "from@bakery.test", sender.last.From)
	assert.Contains(t, sender.last.TextBody, "Phone: 555-0100")
}

func TestService_SenderFailure(t *testing.T) {
	sender := &mockSender{sendFunc: func(context.Context, *Email) (string, error) {
		return "", ErrSendFailed("test", errors.New("boom"))
	}}
	svc, err := NewService(sender, "from@bakery.test", "", nil)
	require.NoError(t, err)

	_, err = svc.SendContactNotification(context.Background(), notification())
	var ee *EmailError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, codeUnavailable, ee.Code)
}

func TestService_MissingRecipient(t *testing.T) {
	sender := &mockSender{}
	svc, err := NewService(sender, "from@bakery.test", "", nil)
	require.NoError(t, err)

	n := notification()
	n.To = ""
	_, err = svc.SendContactNotification(context.Background(), n)
	assert.ErrorIs(t, err, ErrInvalidToAddress)
	assert.Zero(t, sender.calls)
}

func TestNewService_CustomTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html":               {Data: []byte(`{{define "email_layout"}}[{{template "content" .}}]{{end}}`)},
		"contact_notification.html": {Data: []byte(`{{define "content"}}hi {{.Name}}{{end}}`)},
	}
	sender := &mockSender{}
	svc, err := NewService(sender, "from@bakery.test", "", fsys)
	require.NoError(t, err)

	_, err = svc.SendContactNotification(context.Background(), notification())
	require.NoError(t, err)
	assert.Equal(t, "[hi Ada &lt;script&gt;]", sender.last.HTMLBody)
}

func TestService_TemplateNotFound(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`{{define "email_layout"}}{{end}}`)},
	}
	svc, err := NewService(&mockSender{}, "from@bakery.test", "", fsys)
	require.NoError(t, err)

	_, err = svc.SendContactNotification(context.Background(), notification())
	var ee *EmailError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, codeNotFound, ee.Code)
}
