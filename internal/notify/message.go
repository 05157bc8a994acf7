// AngelaMos | 2026
// message.go

package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

type Kind string

const (
	KindEmailVerification Kind = "email_verification"
	KindPasswordReset     Kind = "password_reset"
	KindPasswordChanged   Kind = "password_changed"
	KindOrderConfirmation Kind = "order_confirmation"
)

type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Notifier hands a message off for delivery. Implementations must not block
// on the mail provider.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Hi {{.Name}},</p>
  <p>{{.Intro}}</p>
  {{if .Link}}<p><a href="{{.Link}}" style="padding: 10px 16px; background: #111; color: #fff; text-decoration: none;">{{.Action}}</a></p>{{end}}
  {{if .Lines}}<ul>{{range .Lines}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .Outro}}<p>{{.Outro}}</p>{{end}}
</body>
</html>`))

type templateData struct {
	Name   string
	Intro  string
	Action string
	Link   string
	Lines  []string
	Outro  string
}

func render(kind Kind, to, subject string, data templateData) Message {
	var html bytes.Buffer
	if err := layout.Execute(&html, data); err != nil {
		html.Reset()
		html.WriteString(template.HTMLEscapeString(data.Intro))
	}

	text := []string{"Hi " + data.Name + ",", "", data.Intro}
	if data.Link != "" {
		text = append(text, "", data.Action+": "+data.Link)
	}
	text = append(text, data.Lines...)
	if data.Outro != "" {
		text = append(text, "", data.Outro)
	}

	return Message{
		Kind:    kind,
		To:      to,
		Name:    data.Name,
		Subject: subject,
		HTML:    html.String(),
		Text:    strings.Join(text, "\n"),
	}
}

func VerificationEmail(to, name, link string) Message {
	return render(KindEmailVerification, to, "Verify your email address", templateData{
		Name:   name,
		Intro:  "Thanks for signing up. Confirm your email address to activate your account.",
		Action: "Verify email",
		Link:   link,
		Outro:  "This link expires in 24 hours.",
	})
}

func PasswordResetEmail(to, name, link string) Message {
	return render(KindPasswordReset, to, "Reset your password", templateData{
		Name:   name,
		Intro:  "We received a request to reset your password.",
		Action: "Reset password",
		Link:   link,
		Outro:  "If you did not request this, you can ignore this email. The link expires in 24 hours.",
	})
}

func PasswordChangedEmail(to, name, signInURL string) Message {
	return render(KindPasswordChanged, to, "Your password was changed", templateData{
		Name:   name,
		Intro:  "Your password has been updated successfully.",
		Action: "Sign in",
		Link:   signInURL,
		Outro:  "If you did not make this change, reset your password immediately.",
	})
}

type OrderLine struct {
	Title    string
	Quantity int
	Total    string
}

func OrderConfirmationEmail(to, name, orderID, total, currency string, lines []OrderLine) Message {
	items := make([]string, 0, len(lines))
	for _, l := range lines {
		items = append(items, fmt.Sprintf("%s x%d: %s", l.Title, l.Quantity, l.Total))
	}

	return render(KindOrderConfirmation, to, "Your order is confirmed", templateData{
		Name:  name,
		Intro: fmt.Sprintf("Thanks for your order %s. We will let you know when it ships.", orderID),
		Lines: items,
		Outro: fmt.Sprintf("Total paid: %s %s", total, strings.ToUpper(currency)),
	})
}
