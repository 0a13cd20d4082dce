package entity

import "slices"

// Delivery tracks one recipient through the loop. Position is 1-based.
type Delivery struct {
	Position  int
	Recipient Recipient
	State     DeliveryState
	Attempts  int
	LastError string
}

// Tally accumulates the outcome of a job. Total is fixed when the job starts.
type Tally struct {
	Total        int
	Sent         int
	Failed       int
	FailedEmails []string
}

func NewTally(total int) Tally {
	return Tally{Total: total, FailedEmails: []string{}}
}

// Record folds a finished delivery into the tally. Unfinished deliveries
// leave it unchanged.
func (t Tally) Record(d Delivery) Tally {
	switch d.State {
	case DeliverySent:
		t.Sent++
	case DeliveryPermanentlyFailed:
		t.Failed++
		t.FailedEmails = append(slices.Clip(t.FailedEmails), d.Recipient.Email)
	}
	return t
}
