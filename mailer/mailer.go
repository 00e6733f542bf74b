package mailer

import (
	"bytes"
	"html/template"
	"strconv"

	"movie_store/config"

	"gopkg.in/gomail.v2"
)

// Notification is a single transactional email. Delivery is at-least-once and
// fully decoupled from the request that produced it.
type Notification struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

type Sender interface {
	Send(n Notification) error
}

var notificationTmpl = template.Must(template.New("notification").Parse(`
<html>
  <body>
    <h2>{{.Title}}</h2>
    <p>{{.Text}}</p>
  </body>
</html>`))

// SMTPSender delivers notifications through the configured SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTPSender() *SMTPSender {
	port, _ := strconv.Atoi(config.Config("SMTP_PORT"))
	return &SMTPSender{
		Host:     config.Config("SMTP_HOST"),
		Port:     port,
		Username: config.Config("SMTP_USERNAME"),
		Password: config.Config("SMTP_PASSWORD"),
		From:     config.Config("SMTP_FROM"),
	}
}

func (s *SMTPSender) Send(n Notification) error {
	var body bytes.Buffer
	if err := notificationTmpl.Execute(&body, n); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	return d.DialAndSend(m)
}
