package event

type Type string

const (
	TypeOrderPlaced    Type = "order.placed"
	TypeTicketConsumed Type = "ticket.consumed"
	TypeOfferCreated   Type = "offer.created"
	TypeOfferUpdated   Type = "offer.updated"
	TypeOfferDeleted   Type = "offer.deleted"
	TypeOTPIssued      Type = "otp.issued"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   int64  `json:"actor_id,omitempty"`
}

// OrderPlaced is the payload of TypeOrderPlaced. Tickets counts issued
// tickets per offer id.
type OrderPlaced struct {
	OrderID int64         `json:"orderId"`
	Tickets map[int64]int `json:"tickets"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
