package mail

import (
	"bytes"
	"embed"
	"html/template"
	"net/smtp"

	"exams.zzh.net/internal/config"
	"github.com/jordan-wright/email"
)

//go:embed "templates"
var templateFS embed.FS

// Sender delivers templated emails.
type Sender interface {
    Send(to, templateFile string, data any) error
}

// EmailSender sends emails through an SMTP server.
type EmailSender struct {
    SMTPCfg config.SMTPConfig
}

// NewEmailSender returns an EmailSender for cfg, or nil when cfg does not have enough
// settings to send mail.
func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
    if !cfg.Enabled() {
        return nil
    }

    return &EmailSender{SMTPCfg: cfg}
}

type message struct {
    subject   string
    plainBody []byte
    htmlBody  []byte
}

// render executes the "subject", "plainBody" and "htmlBody" templates defined in
// templateFile.
func render(templateFile string, data any) (*message, error) {
    tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
    if err != nil {
        return nil, err
    }

    subject := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(subject, "subject", data)
    if err != nil {
        return nil, err
    }

    plainBody := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(plainBody, "plainBody", data)
    if err != nil {
        return nil, err
    }

    htmlBody := new(bytes.Buffer)
    err = tmpl.ExecuteTemplate(htmlBody, "htmlBody", data)
    if err != nil {
        return nil, err
    }

    return &message{
        subject:   subject.String(),
        plainBody: plainBody.Bytes(),
        htmlBody:  htmlBody.Bytes(),
    }, nil
}

// Send sends an email whose subject and content are read from a template file.
func (sender *EmailSender) Send(to, templateFile string, data any) error {
    msg, err := render(templateFile, data)
    if err != nil {
        return err
    }

    e := email.NewEmail()
    e.From = sender.SMTPCfg.Username // 553 Mail from must equal authorized user
    e.To = []string{to}
    e.Subject = msg.subject
    e.Text = msg.plainBody
    e.HTML = msg.htmlBody

    smtpAuth := smtp.PlainAuth("", sender.SMTPCfg.Username, sender.SMTPCfg.Password, sender.SMTPCfg.AuthAddress)
    return e.Send(sender.SMTPCfg.ServerAddress, smtpAuth)
}
