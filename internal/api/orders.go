package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ticketing-front/internal/model"
)

func (c *Client) Checkout(ctx context.Context, token string, items []model.CheckoutItem) (*model.CheckoutResult, error) {
	const path = "/api/order/checkout"

	data, err := c.do(ctx, http.MethodPost, path, token, model.CheckoutRequest{Items: items})
	if err != nil {
		return nil, err
	}

	var wire struct {
		OrderID int64           `json:"orderId"`
		Tickets json.RawMessage `json:"tickets"`
	}
	if err := decode(http.MethodPost, path, data, &wire); err != nil {
		return nil, err
	}

	tickets, err := decodeTickets(wire.Tickets)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return &model.CheckoutResult{OrderID: wire.OrderID, Tickets: tickets}, nil
}

// Orders lists the caller's orders, most recent first.
func (c *Client) Orders(ctx context.Context, token string) ([]model.Order, error) {
	out := []model.Order{}
	if err := c.getJSON(ctx, "/api/order/orders", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderTickets accepts a bare list or a {"tickets": [...]} wrapper and
// normalizes each entry's field names.
func (c *Client) OrderTickets(ctx context.Context, token string, orderID int64) ([]model.Ticket, error) {
	path := fmt.Sprintf("/api/order/%d/tickets", orderID)

	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	tickets, err := decodeTickets(data)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return tickets, nil
}

type wireTicket struct {
	ID       *int64 `json:"id"`
	TicketID *int64 `json:"ticketId"`
	OfferID  *int64 `json:"offerId"`
	Offer    *struct {
		ID *int64 `json:"id"`
	} `json:"offer"`
	FinalKey     *string          `json:"finalKey"`
	ConsumedAt   *model.Timestamp `json:"consumedAt"`
	QRCodeBase64 *string          `json:"qrcodeBase64"`
}

func (w wireTicket) ticket() model.Ticket {
	t := model.Ticket{
		OfferID:      w.OfferID,
		FinalKey:     w.FinalKey,
		ConsumedAt:   w.ConsumedAt,
		QRCodeBase64: w.QRCodeBase64,
	}

	switch {
	case w.ID != nil:
		t.ID = *w.ID
	case w.TicketID != nil:
		t.ID = *w.TicketID
	}

	if t.OfferID == nil && w.Offer != nil {
		t.OfferID = w.Offer.ID
	}

	return t
}

func decodeTickets(data []byte) ([]model.Ticket, error) {
	data = bytes.TrimSpace(data)
	out := []model.Ticket{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}

	var entries []wireTicket
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode tickets: %w", err)
		}
	} else {
		var wrapped struct {
			Tickets []wireTicket `json:"tickets"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode tickets: %w", err)
		}
		entries = wrapped.Tickets
	}

	for _, entry := range entries {
		out = append(out, entry.ticket())
	}
	return out, nil
}
