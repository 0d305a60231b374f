package model

import (
	"encoding/base64"
	"strings"
)

// Ticket is one admission credential. Every field but ID may be absent
// on the wire and is then nil.
type Ticket struct {
	ID           int64      `json:"id"`
	OfferID      *int64     `json:"offerId"`
	FinalKey     *string    `json:"finalKey"`
	ConsumedAt   *Timestamp `json:"consumedAt"`
	QRCodeBase64 *string    `json:"qrcodeBase64"`
}

// Key returns the scan credential, or "" when the backend did not send
// one.
func (t Ticket) Key() string {
	if t.FinalKey == nil {
		return ""
	}
	return *t.FinalKey
}

// InlineQRCode decodes the QR image embedded in the ticket. The field may
// be plain base64 or a data URL. ok is false when no image was sent.
func (t Ticket) InlineQRCode() (data []byte, ok bool, err error) {
	if t.QRCodeBase64 == nil || strings.TrimSpace(*t.QRCodeBase64) == "" {
		return nil, false, nil
	}
	raw := strings.TrimSpace(*t.QRCodeBase64)
	if _, payload, found := strings.Cut(raw, ";base64,"); found {
		raw = payload
	}
	data, err = base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// Consumed reports whether the gate has consumed the ticket. The
// transition is one-way and happens server-side.
func (t Ticket) Consumed() bool {
	return t.ConsumedAt != nil && !t.ConsumedAt.IsZero()
}

// ScanResult is what the gate records after a verify or consume call.
type ScanResult struct {
	Verified bool `json:"verified"`
	Consumed bool `json:"consumed"`
}

// TicketVerification is the object form of a verify response.
type TicketVerification struct {
	Valid      bool       `json:"valid"`
	TicketID   *int64     `json:"ticketId,omitempty"`
	OfferID    *int64     `json:"offerId,omitempty"`
	ConsumedAt *Timestamp `json:"consumedAt,omitempty"`
}

type ConsumeRequest struct {
	FinalKey string `json:"finalKey"`
}
