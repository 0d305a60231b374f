package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ticketing-front/internal/model"
)

func qrPath(ticketID int64) string {
	return fmt.Sprintf("/api/tickets/%d/qr.png", ticketID)
}

// TicketQRURL is the inline image location for a ticket's QR code.
func (c *Client) TicketQRURL(ticketID int64) string {
	return c.baseURL + qrPath(ticketID)
}

// TicketQR fetches the PNG bytes of a ticket's QR code.
func (c *Client) TicketQR(ctx context.Context, token string, ticketID int64) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, qrPath(ticketID), token, nil)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VerifyTicket is the read-only gate check. The backend answers a JSON
// boolean or an object carrying "valid".
func (c *Client) VerifyTicket(ctx context.Context, token string, finalKey string) (bool, error) {
	path := "/api/tickets/verify?key=" + url.QueryEscape(finalKey)

	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return false, err
	}

	var valid bool
	if err := json.Unmarshal(data, &valid); err == nil {
		return valid, nil
	}

	var verification model.TicketVerification
	if err := json.Unmarshal(data, &verification); err != nil {
		return false, fmt.Errorf("GET /api/tickets/verify: decode response: %w", err)
	}
	return verification.Valid, nil
}

// ConsumeTicket marks a ticket used at the gate. An empty success body is
// fine.
func (c *Client) ConsumeTicket(ctx context.Context, token string, finalKey string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/tickets/consume", token, model.ConsumeRequest{FinalKey: finalKey})
	return err
}
