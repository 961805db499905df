// Package mail envía los mensajes del formulario de contacto de las
// páginas de marketing. Los emails transaccionales de autenticación
// (verificación, reset) los maneja el proveedor de identidad, no este
// paquete.
package mail

import (
	"crypto/tls"
	"fmt"
	"html"

	gomail "github.com/go-mail/mail"

	"github.com/seumatch/seumatch/internal/observability/logger"
)

// Sender envía un email ya armado.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender sobre SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.With(logger.Component("mail.smtp"))
	log.Debug("sending email", logger.String("to", to), logger.String("subject", subject))

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// Preferimos multipart/alternative (txt + html)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // sólo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = gomail.NoStartTLS
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return err
	}
	return nil
}

// ContactMessage es un envío del formulario de contacto.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
}

// ContactMailer arma y envía los mensajes de contacto al buzón configurado.
type ContactMailer struct {
	sender Sender
	to     string
}

func NewContactMailer(s Sender, to string) *ContactMailer {
	return &ContactMailer{sender: s, to: to}
}

func (c *ContactMailer) Send(msg ContactMessage) error {
	subject := fmt.Sprintf("[seumatch] contact form: %s", msg.Name)
	text := fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message)
	htmlBody := fmt.Sprintf(
		"<p><b>From:</b> %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		html.EscapeString(msg.Message),
	)
	return c.sender.Send(c.to, subject, htmlBody, text)
}
