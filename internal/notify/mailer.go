package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"
)

const (
	invitationSubject = "Invitación para unirte a nuestra plataforma"
	resetSubject      = "Restablecer contraseña"
)

var invitationTemplate = template.Must(template.New("invitation").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Bienvenido a {{.AppName}}</h2>
  <p>Has sido invitado a unirte a la plataforma. Haz clic en el siguiente enlace para crear tu contraseña:</p>
  <a href="{{.Link}}" style="display:inline-block;background:#1E88E5;color:white;padding:10px 20px;border-radius:8px;text-decoration:none;margin-top:10px;">Crear contraseña</a>
  {{if .ExpiresIn}}<p style="margin-top:20px;font-size:0.9em;color:#555;">El enlace caduca en {{.ExpiresIn}}.</p>{{end}}
</div>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Recupera tu contraseña</h2>
  <p>Has solicitado restablecer tu contraseña en {{.AppName}}. Haz clic en el siguiente botón para continuar:</p>
  <a href="{{.Link}}" style="display:inline-block;background:#1E88E5;color:white;padding:10px 20px;border-radius:8px;text-decoration:none;margin-top:10px;">Restablecer contraseña</a>
  <p style="margin-top:20px;font-size:0.9em;color:#555;">Si no solicitaste este cambio, ignora este correo.</p>
</div>`))

type linkView struct {
	AppName   string
	Link      string
	ExpiresIn string
}

// Mailer renders workflow e-mails and hands them to a Sender.
type Mailer struct {
	sender  Sender
	appName string
	linkTTL time.Duration
}

// NewMailer builds a Mailer. linkTTL is how long mailed links stay valid; a
// zero value leaves the expiry sentence out.
func NewMailer(sender Sender, appName string, linkTTL time.Duration) *Mailer {
	return &Mailer{sender: sender, appName: appName, linkTTL: linkTTL}
}

func (mailer *Mailer) SendInvitation(ctx context.Context, to string, link string) error {
	return mailer.send(ctx, to, invitationSubject, invitationTemplate, link,
		fmt.Sprintf("Has sido invitado a %s. Crea tu contraseña en: %s", mailer.appName, link))
}

func (mailer *Mailer) SendPasswordReset(ctx context.Context, to string, link string) error {
	return mailer.send(ctx, to, resetSubject, resetTemplate, link,
		fmt.Sprintf("Restablece tu contraseña en: %s", link))
}

func (mailer *Mailer) send(ctx context.Context, to string, subject string, tmpl *template.Template, link string, text string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, linkView{AppName: mailer.appName, Link: link, ExpiresIn: describeTTL(mailer.linkTTL)}); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return mailer.sender.Send(ctx, Message{
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
		TextBody: text,
	})
}

func describeTTL(ttl time.Duration) string {
	switch {
	case ttl <= 0:
		return ""
	case ttl%time.Hour == 0:
		return plural(int(ttl/time.Hour), "hora", "horas")
	default:
		return plural(int((ttl+time.Minute-1)/time.Minute), "minuto", "minutos")
	}
}

func plural(count int, one string, many string) string {
	if count == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", count, many)
}
