package model

// Order is a confirmed purchase. Orders are listed most recent first.
type Order struct {
	ID        int64     `json:"id"`
	CreatedAt Timestamp `json:"createdAt"`
}

type CheckoutItem struct {
	OfferID  int64 `json:"offerId"`
	Quantity int   `json:"quantity"`
}

type CheckoutRequest struct {
	Items []CheckoutItem `json:"items"`
}

type CheckoutResult struct {
	OrderID int64    `json:"orderId"`
	Tickets []Ticket `json:"tickets"`
}
