package usecase

import (
	"strings"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/mail"
)

// BuildHTML renders the body sent to one recipient. Line breaks become
// <br>; nothing is escaped.
func BuildHTML(text string, useGreeting bool, name string) string {
	body := strings.ReplaceAll(text, "\n", "<br>")
	if useGreeting {
		return "<p>Dear " + name + ",</p><p>" + body + "</p>"
	}
	return "<p>" + body + "</p>"
}

// FormatSender returns the From header value.
func FormatSender(name, email string) string {
	if name == "" {
		return email
	}
	return `"` + name + `" <` + email + `>`
}

func buildMessage(job entity.SendJob, r entity.Recipient) mail.Message {
	return mail.Message{
		From:     FormatSender(job.SenderName, job.SenderEmail),
		To:       []string{r.Email},
		Subject:  job.Subject,
		HTMLBody: BuildHTML(job.BodyText, job.UseGreeting, r.Name),
	}
}
