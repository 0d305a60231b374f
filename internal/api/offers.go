package api

import (
	"context"
	"fmt"
	"net/http"

	"ticketing-front/internal/model"
)

// Offers lists the storefront. The token is optional.
func (c *Client) Offers(ctx context.Context, token string) ([]model.Offer, error) {
	out := []model.Offer{}
	if err := c.getJSON(ctx, "/api/offers", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminListOffers(ctx context.Context, token string) ([]model.Offer, error) {
	out := []model.Offer{}
	if err := c.getJSON(ctx, "/api/admin/offers", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminCreateOffer(ctx context.Context, token string, input model.OfferInput) (*model.Offer, error) {
	var out model.Offer
	if err := c.sendJSON(ctx, http.MethodPost, "/api/admin/offers", token, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUpdateOffer(ctx context.Context, token string, id int64, input model.OfferInput) (*model.Offer, error) {
	var out model.Offer
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/offers/%d", id), token, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDeleteOffer succeeds when it returns nil; any response body is
// ignored.
func (c *Client) AdminDeleteOffer(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/offers/%d", id), token, nil)
	return err
}

func (c *Client) AdminSales(ctx context.Context, token string) (*model.SalesSnapshot, error) {
	var out model.SalesSnapshot
	if err := c.getJSON(ctx, "/api/admin/sales", token, &out); err != nil {
		return nil, err
	}
	if out.ByOffer == nil {
		out.ByOffer = []model.OfferSales{}
	}
	return &out, nil
}
