package mailer

import (
	"fmt"

	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

// DevMailer prints mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendInvite(toEmail, toName, eventName, inviteLink string) error {
	logger.Info("[DEV MAIL] Invitation",
		"to", toEmail,
		"name", toName,
		"event", eventName,
		"invite_link", inviteLink,
	)

	fmt.Printf("\n"+
		"-----------------------------------------------------------------\n"+
		"INVITATION EMAIL (DEV MODE)\n"+
		"-----------------------------------------------------------------\n"+
		"To: %s (%s)\n"+
		"Event: %s\n"+
		"Invite Link: %s\n"+
		"-----------------------------------------------------------------\n\n",
		toEmail, toName, eventName, inviteLink)

	return nil
}

// inviteContent builds the shared subject/body for invitation mail.
func inviteContent(toName, eventName, inviteLink string) (subject, text, html string) {
	if eventName == "" {
		eventName = "our event"
	}
	subject = fmt.Sprintf("You're invited to %s", eventName)
	text = fmt.Sprintf("Hello %s,\n\nYou are invited to %s.\nOpen your invitation: %s", toName, eventName, inviteLink)
	html = fmt.Sprintf(`<p>Hello %s,</p><p>You are invited to <b>%s</b>.</p><p><a href="%s">Open your invitation</a></p>`,
		toName, eventName, inviteLink)
	return subject, text, html
}
