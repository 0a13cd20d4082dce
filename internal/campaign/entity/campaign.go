package entity

// Recipient is one addressee of a campaign. Email is the delivery key and
// duplicates are delivered independently.
type Recipient struct {
	Name  string
	Email string
}

// SendJob is a campaign ready for delivery. It is not modified once the
// delivery loop has started.
type SendJob struct {
	ID          int64
	SenderEmail string
	SenderName  string
	Subject     string
	BodyText    string
	UseGreeting bool
	Recipients  []Recipient
}
