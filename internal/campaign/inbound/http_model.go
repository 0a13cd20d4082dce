package inbound

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
)

type RecipientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SendCampaignRequest accepts snake_case keys and, for older clients, the
// camelCase ones. When both are present the snake_case value wins.
type SendCampaignRequest struct {
	SenderEmail      string             `json:"sender_email"`
	SenderName       string             `json:"sender_name"`
	Subject          string             `json:"subject"`
	Text             string             `json:"text"`
	UseGreeting      *bool              `json:"use_greeting"`
	Recipients       []RecipientRequest `json:"recipients"`
	SenderEmailCamel string             `json:"senderEmail"`
	SenderNameCamel  string             `json:"senderName"`
	UseGreetingCamel *bool              `json:"useGreeting"`
}

func (r SendCampaignRequest) input(idempotencyKey string) usecase.SendCampaignInput {
	return usecase.SendCampaignInput{
		SenderEmail: lo.CoalesceOrEmpty(r.SenderEmail, r.SenderEmailCamel),
		SenderName:  lo.CoalesceOrEmpty(r.SenderName, r.SenderNameCamel),
		Subject:     r.Subject,
		Text:        r.Text,
		UseGreeting: lo.FromPtr(lo.CoalesceOrEmpty(r.UseGreeting, r.UseGreetingCamel)),
		Recipients: lo.Map(r.Recipients, func(rc RecipientRequest, _ int) usecase.RecipientInput {
			return usecase.RecipientInput{Name: rc.Name, Email: rc.Email}
		}),
		IdempotencyKey: idempotencyKey,
	}
}

type ImportRecipientsFromObjectRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type RecipientResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ImportRecipientsResponse struct {
	Recipients []RecipientResponse `json:"recipients"`
	Count      int                 `json:"count"`
}

func newImportRecipientsResponse(rs []entity.Recipient) ImportRecipientsResponse {
	return ImportRecipientsResponse{
		Recipients: lo.Map(rs, func(r entity.Recipient, _ int) RecipientResponse {
			return RecipientResponse{Name: r.Name, Email: r.Email}
		}),
		Count: len(rs),
	}
}

type QueueCampaignResponse struct {
	CampaignID int64 `json:"campaign_id"`
}

func (QueueCampaignResponse) StatusCode() int { return http.StatusAccepted }

func (QueueCampaignResponse) Message() string { return "Campaign has been queued" }

type successRecord struct {
	Status string `json:"status"`
	Email  string `json:"email"`
	Sent   int    `json:"sent"`
	Total  int    `json:"total"`
}

type errorRecord struct {
	Status string `json:"status"`
	Email  string `json:"email"`
	Error  string `json:"error"`
	Sent   int    `json:"sent"`
	Total  int    `json:"total"`
}

type summaryRecord struct {
	Status       string   `json:"status"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	FailedEmails []string `json:"failedEmails"`
}

type fatalRecord struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const statusFatal = "fatal"

// newProgressRecord returns the wire shape of ev, used both as an NDJSON
// line and as an SSE data payload.
func newProgressRecord(ev entity.ProgressEvent) any {
	switch ev.Kind {
	case entity.EventSuccess:
		return successRecord{Status: ev.Kind.String(), Email: ev.Email, Sent: ev.Sent, Total: ev.Total}
	case entity.EventFailure:
		return errorRecord{Status: ev.Kind.String(), Email: ev.Email, Error: ev.Error, Sent: ev.Sent, Total: ev.Total}
	default:
		return summaryRecord{
			Status: ev.Kind.String(),
			Sent:   ev.Sent,
			Failed: ev.Failed,
			// rendered as [] when nothing failed
			FailedEmails: lo.Ternary(ev.FailedEmails == nil, []string{}, ev.FailedEmails),
		}
	}
}

func newFatalRecord(err error) fatalRecord {
	return fatalRecord{Status: statusFatal, Error: err.Error()}
}
