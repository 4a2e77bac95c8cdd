package mailer

// Service delivers guest-facing mail. Implementations: MailerSend, plain
// SMTP, and a dev mailer that prints to the log.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendInvite(toEmail, toName, eventName, inviteLink string) error
}
