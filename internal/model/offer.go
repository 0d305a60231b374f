package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Offer is a purchasable ticket product.
type Offer struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Seats       int    `json:"seats"`
	Active      bool   `json:"active"`
}

// UnmarshalJSON treats a missing or null "active" as true: only an
// explicit false marks an offer unavailable.
func (o *Offer) UnmarshalJSON(data []byte) error {
	type wire Offer
	var decoded struct {
		wire
		Active *bool `json:"active"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*o = Offer(decoded.wire)
	o.Active = decoded.Active == nil || *decoded.Active
	return nil
}

// PriceEuros formats the price as "25.00".
func (o Offer) PriceEuros() string {
	return FormatCents(o.PriceCents)
}

// Input returns the offer without its id, as sent on admin create and
// update.
func (o Offer) Input() OfferInput {
	return OfferInput{
		Code:        o.Code,
		Name:        o.Name,
		Description: o.Description,
		PriceCents:  o.PriceCents,
		Seats:       o.Seats,
		Active:      o.Active,
	}
}

// OfferInput is the admin create/update payload.
type OfferInput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Seats       int    `json:"seats"`
	Active      bool   `json:"active"`
}

func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
