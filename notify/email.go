package notify

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/smtp"
	"strings"
)

// EmailNotifier sends alerts over SMTP. It is disabled when credentials
// are missing, so the tracker keeps working without mail configuration.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
	enabled  bool
}

func NewEmailNotifier(host string, port int, username, password, from, to string) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		enabled:  host != "" && username != "" && password != "" && to != "",
	}
}

func (e *EmailNotifier) IsEnabled() bool {
	return e.enabled
}

func (e *EmailNotifier) Notify(subject, body string) error {
	if !e.enabled {
		return nil
	}

	msg := e.buildMessage(subject, body)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	if err := e.sendWithSTARTTLS(addr, msg); err == nil {
		return nil
	}
	return e.sendPlain(addr, msg)
}

func (e *EmailNotifier) sendWithSTARTTLS(addr, msg string) error {
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: e.host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return err
	}
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(e.from); err != nil {
		return err
	}
	if err := client.Rcpt(e.to); err != nil {
		return err
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	return writeBody(wc, msg)
}

// writeBody writes the message and closes the DATA stream. The close
// carries the server's final accept/reject, so its error must surface.
func writeBody(wc io.WriteCloser, msg string) error {
	if _, err := fmt.Fprint(wc, msg); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func (e *EmailNotifier) sendPlain(addr, msg string) error {
	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	return smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg))
}

func (e *EmailNotifier) buildMessage(subject, body string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", e.to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}
