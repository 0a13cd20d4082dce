package entity

type EventKind int16

const (
	EventUnknown   EventKind = 0
	EventSuccess   EventKind = 1
	EventFailure   EventKind = 2
	EventComplete  EventKind = 3
	EventCancelled EventKind = 4
)

// String returns the wire status of the event.
func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventFailure:
		return "error"
	case EventComplete:
		return "complete"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no event may follow one of this kind.
func (k EventKind) Terminal() bool {
	return k == EventComplete || k == EventCancelled
}

type DeliveryState int16

const (
	DeliveryPending           DeliveryState = 0
	DeliveryAttempting        DeliveryState = 1
	DeliverySent              DeliveryState = 2
	DeliveryPermanentlyFailed DeliveryState = 3
)

func (s DeliveryState) String() string {
	switch s {
	case DeliveryPending:
		return "pending"
	case DeliveryAttempting:
		return "attempting"
	case DeliverySent:
		return "sent"
	case DeliveryPermanentlyFailed:
		return "permanently_failed"
	default:
		return "unknown"
	}
}

// Done reports whether the delivery reached a final state.
func (s DeliveryState) Done() bool {
	return s == DeliverySent || s == DeliveryPermanentlyFailed
}
