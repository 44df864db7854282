package notify

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPSender delivers messages through an SMTP relay using STARTTLS when the
// server offers it.
type SMTPSender struct {
	client    *mail.Client
	fromEmail string
	fromName  string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	options := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return &SMTPSender{client: client, fromEmail: cfg.FromEmail, fromName: cfg.FromName}, nil
}

func (sender *SMTPSender) Send(ctx context.Context, message Message) error {
	if message.To == "" {
		return ErrNoRecipient
	}

	msg, err := sender.buildMessage(message)
	if err != nil {
		return err
	}
	if err := sender.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("deliver mail: %w", err)
	}
	return nil
}

func (sender *SMTPSender) buildMessage(message Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(sender.fromName, sender.fromEmail); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTMLBody)
	if message.TextBody != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, message.TextBody)
	}
	return msg, nil
}
