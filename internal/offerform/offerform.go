package offerform

import (
	"strconv"
	"strings"

	"ticketing-front/internal/model"
)

const (
	DefaultPriceCents = 2500
	DefaultSeats      = 1
)

// Draft is the admin offer form as typed. Numeric fields stay strings
// until Payload coerces them. A non-nil ID means the draft edits an
// existing offer.
type Draft struct {
	ID          *int64
	Code        string
	Name        string
	Description string
	PriceCents  string
	Seats       string
	Active      bool
}

// Empty is the create-mode draft.
func Empty() Draft {
	return Draft{
		PriceCents: strconv.Itoa(DefaultPriceCents),
		Seats:      strconv.Itoa(DefaultSeats),
		Active:     true,
	}
}

// FromOffer loads an offer into the form for editing.
func FromOffer(offer model.Offer) Draft {
	id := offer.ID
	seats := offer.Seats
	if seats == 0 {
		seats = DefaultSeats
	}
	return Draft{
		ID:          &id,
		Code:        offer.Code,
		Name:        offer.Name,
		Description: offer.Description,
		PriceCents:  strconv.FormatInt(offer.PriceCents, 10),
		Seats:       strconv.Itoa(seats),
		Active:      offer.Active,
	}
}

func (d Draft) Editing() bool {
	return d.ID != nil
}

// Payload trims the text fields and coerces the numbers: an invalid price
// becomes 0, an invalid or zero seat count becomes 1.
func (d Draft) Payload() model.OfferInput {
	price, err := strconv.ParseInt(strings.TrimSpace(d.PriceCents), 10, 64)
	if err != nil {
		price = 0
	}

	seats, err := strconv.Atoi(strings.TrimSpace(d.Seats))
	if err != nil || seats == 0 {
		seats = DefaultSeats
	}

	return model.OfferInput{
		Code:        strings.TrimSpace(d.Code),
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		PriceCents:  price,
		Seats:       seats,
		Active:      d.Active,
	}
}

// Field identifies one input of the form, in tab order.
type Field int

const (
	FieldCode Field = iota
	FieldName
	FieldDescription
	FieldPriceCents
	FieldSeats
	FieldActive
	fieldCount
)

func (f Field) Next() Field {
	return (f + 1) % fieldCount
}

func (f Field) Prev() Field {
	return (f + fieldCount - 1) % fieldCount
}

func (f Field) Label() string {
	switch f {
	case FieldCode:
		return "Code"
	case FieldName:
		return "Name"
	case FieldDescription:
		return "Description"
	case FieldPriceCents:
		return "Price (cents)"
	case FieldSeats:
		return "Seats"
	case FieldActive:
		return "Active"
	default:
		return ""
	}
}

// Value returns the text of a field; FieldActive renders as yes/no.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldCode:
		return d.Code
	case FieldName:
		return d.Name
	case FieldDescription:
		return d.Description
	case FieldPriceCents:
		return d.PriceCents
	case FieldSeats:
		return d.Seats
	case FieldActive:
		if d.Active {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// Set stores text into a field. FieldActive is toggled, not set.
func (d Draft) Set(f Field, value string) Draft {
	switch f {
	case FieldCode:
		d.Code = value
	case FieldName:
		d.Name = value
	case FieldDescription:
		d.Description = value
	case FieldPriceCents:
		d.PriceCents = value
	case FieldSeats:
		d.Seats = value
	case FieldActive:
		d.Active = !d.Active
	}
	return d
}
