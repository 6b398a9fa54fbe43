package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// WelcomeData fills the welcome-with-credentials template.
type WelcomeData struct {
	ProductName       string
	FullName          string
	Email             string
	Role              string
	TemporaryPassword string
	LoginURL          string
}

// InvitationData fills the invitation-link template.
type InvitationData struct {
	ProductName   string
	FullName      string
	Role          string
	InvitationURL string
	ExpiresInDays int
}

// RenderWelcome renders the credential email body.
func RenderWelcome(data WelcomeData) (string, error) {
	return render("welcome.html.tmpl", data)
}

// RenderInvitation renders the invitation email body.
func RenderInvitation(data InvitationData) (string, error) {
	return render("invitation.html.tmpl", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
