package mailer

import (
	"context"
	"errors"
	"fmt"

	"parkingapp/logs"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender opens one SMTP session per message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(opts Options) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password),
		from:   opts.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	logs.Logger.Infof("Mail sent to %s: %s", msg.To, msg.Subject)
	return nil
}

func buildMessage(from string, msg Message) (*gomail.Message, error) {
	if msg.To == "" {
		return nil, errors.New("mail recipient is required")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, msg.Body)
	return m, nil
}
