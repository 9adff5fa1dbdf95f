package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailService() *MailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("MailService disabled: missing SMTP environment variables")
	}

	return &MailService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: Inkwell <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

		err := smtp.SendMail(addr, auth, s.From, to, msg)
		if err != nil {
			log.Printf("Failed to send email to %v: %v", to, err)
		}
	}()
}

var replyMailTmpl = template.Must(template.New("reply").Parse(`
<p>Hi {{.Recipient}},</p>
<p><strong>{{.Replier}}</strong> replied to your comment on <em>{{.PostTitle}}</em>:</p>
<blockquote>{{.Reply}}</blockquote>
<p>The reply is now live.</p>
`))

// SendReplyNotification informs the author of a comment that a reply to it
// has been approved. Best effort only: failures are logged and dropped.
func (s *MailService) SendReplyNotification(email, recipient, replier, postTitle, reply string) {
	if email == "" {
		return
	}

	var buf bytes.Buffer
	err := replyMailTmpl.Execute(&buf, map[string]string{
		"Recipient": recipient,
		"Replier":   replier,
		"PostTitle": postTitle,
		"Reply":     reply,
	})
	if err != nil {
		log.Printf("Error rendering reply notification: %v", err)
		return
	}
	s.sendAsync([]string{email}, fmt.Sprintf("New reply to your comment on %q", postTitle), buf.String())
}
