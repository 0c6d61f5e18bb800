package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"gopkg.in/gomail.v2"
)

// Sender delivers account emails. The SMTP implementation is swapped out for
// a fake in tests and in the admin CLI.
type Sender interface {
	SendVerificationEmail(to, username, token string) error
}

type SMTPSender struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

func NewSMTPSender(host string, port int, username, password, from, frontendURL string) *SMTPSender {
	return &SMTPSender{
		dialer:      gomail.NewDialer(host, port, username, password),
		from:        from,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *SMTPSender) SendVerificationEmail(to, username, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.frontendURL, token)

	data := verificationData{Username: username, Link: link}

	var plain, html bytes.Buffer
	if err := verificationText.Execute(&plain, data); err != nil {
		return fmt.Errorf("rendering verification email text: %w", err)
	}
	if err := verificationHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("rendering verification email html: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify Your Email Address - Todo App")
	m.SetBody("text/plain", plain.String())
	m.AddAlternative("text/html", html.String())

	return s.dialer.DialAndSend(m)
}

type verificationData struct {
	Username string
	Link     string
}

var verificationText = texttemplate.Must(texttemplate.New("verification_text").Parse(`Welcome to Todo App!

Hi {{.Username}},

Thank you for registering with Todo App. Please verify your email address by visiting this link:

{{.Link}}

This link will expire in 24 hours.

If you didn't create an account with us, please ignore this email.
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("verification_html").Parse(`<html>
<body>
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #333;">Welcome to Todo App!</h2>
    <p>Hi {{.Username}},</p>
    <p>Thank you for registering with Todo App. Please verify your email address by clicking the button below:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.Link}}"
         style="background-color: #007bff; color: white; padding: 12px 30px;
                text-decoration: none; border-radius: 5px; display: inline-block;">
        Verify Email Address
      </a>
    </div>
    <p>Or copy and paste this link in your browser:</p>
    <p style="word-break: break-all; color: #007bff;">{{.Link}}</p>
    <p><strong>This link will expire in 24 hours.</strong></p>
    <p>If you didn't create an account with us, please ignore this email.</p>
    <hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;">
    <p style="color: #666; font-size: 12px;">
      This is an automated email. Please do not reply to this email.
    </p>
  </div>
</body>
</html>
`))
