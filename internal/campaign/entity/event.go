package entity

// ProgressEvent reports delivery progress. Which fields are set depends on
// Kind: Success carries Email, Sent and Total; Failure adds Error; the
// terminal kinds carry Sent, Failed and FailedEmails.
type ProgressEvent struct {
	Kind         EventKind
	CampaignID   int64
	Email        string
	Error        string
	Sent         int
	Total        int
	Failed       int
	FailedEmails []string
}

func SuccessEvent(id int64, email string, t Tally) ProgressEvent {
	return ProgressEvent{Kind: EventSuccess, CampaignID: id, Email: email, Sent: t.Sent, Total: t.Total}
}

func FailureEvent(id int64, d Delivery, t Tally) ProgressEvent {
	return ProgressEvent{
		Kind:       EventFailure,
		CampaignID: id,
		Email:      d.Recipient.Email,
		Error:      d.LastError,
		Sent:       t.Sent,
		Total:      t.Total,
	}
}

func CompleteEvent(id int64, t Tally) ProgressEvent {
	return terminalEvent(EventComplete, id, t)
}

func CancelledEvent(id int64, t Tally) ProgressEvent {
	return terminalEvent(EventCancelled, id, t)
}

func terminalEvent(kind EventKind, id int64, t Tally) ProgressEvent {
	return ProgressEvent{
		Kind:         kind,
		CampaignID:   id,
		Sent:         t.Sent,
		Total:        t.Total,
		Failed:       t.Failed,
		FailedEmails: t.FailedEmails,
	}
}
