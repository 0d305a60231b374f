package model

// SalesSnapshot is the admin dashboard aggregate. The backend recomputes
// it on every fetch.
type SalesSnapshot struct {
	Total   int64        `json:"total"`
	ByOffer []OfferSales `json:"byoffer"`
}

type OfferSales struct {
	OfferID     int64  `json:"offerId"`
	OfferName   string `json:"offerName"`
	TicketsSold int64  `json:"ticketsSold"`
}
