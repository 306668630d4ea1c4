package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"assesshub/config"
)

// InviteMailer dispatches assessment invitation emails over SMTP.
type InviteMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewInviteMailerFromConfig returns nil when SMTP is not configured;
// invitation creation then leaves status PENDING instead of SENT.
func NewInviteMailerFromConfig() *InviteMailer {
	if config.AppConfig.SMTPHost == "" {
		return nil
	}
	return &InviteMailer{
		host:     config.AppConfig.SMTPHost,
		port:     config.AppConfig.SMTPPort,
		username: config.AppConfig.SMTPUsername,
		password: config.AppConfig.SMTPPassword,
		from:     config.AppConfig.FromEmail,
	}
}

// SendInvitation emails the participant their assessment link.
func (im *InviteMailer) SendInvitation(to, name, companyName, inviteURL, personalMessage string) error {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>%s,</h2>
			<p>You have been invited by <strong>%s</strong> to take a leadership assessment.</p>
			<p><a href="%s">Start your assessment</a></p>
	`, greeting, companyName, inviteURL)

	if personalMessage != "" {
		body += fmt.Sprintf("<blockquote>%s</blockquote>", personalMessage)
	}
	body += `
			<p>This link is personal to you. Please do not share it.</p>
		</body>
		</html>
	`

	m := gomail.NewMessage()
	m.SetHeader("From", im.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your %s assessment invitation", companyName))
	m.SetBody("text/html", body)

	d := gomail.NewDialer(im.host, im.port, im.username, im.password)
	return d.DialAndSend(m)
}
