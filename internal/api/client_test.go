package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewStripsTrailingSlash(t *testing.T) {
	client := New("http://localhost:8081/")
	assert.Equal(t, "http://localhost:8081", client.BaseURL())
	assert.Equal(t, "http://localhost:8081/api/tickets/5/qr.png", client.TicketQRURL(5))
}

func TestAuthorizationHeaderOnlyWithToken(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/offers", func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		if present {
			seen = append(seen, r.Header.Get("Authorization"))
		} else {
			seen = append(seen, "<none>")
		}
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		writeJSON(w, http.StatusOK, `[]`)
	})
	client := newTestClient(t, mux)

	_, err := client.Offers(context.Background(), "")
	require.NoError(t, err)
	_, err = client.Offers(context.Background(), "abc.def.ghi")
	require.NoError(t, err)

	assert.Equal(t, []string{"<none>", "Bearer abc.def.ghi"}, seen)
}

func TestAdminDeleteOfferConflictMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/admin/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.PathValue("id"))
		writeJSON(w, http.StatusConflict, `{"message":"in use"}`)
	})
	client := newTestClient(t, mux)

	err := client.AdminDeleteOffer(context.Background(), "tok", 3)
	require.Error(t, err)
	assert.Equal(t, "in use", err.Error())

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.HTTPStatus)
}

func TestAdminDeleteOfferNoContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/admin/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, mux)

	assert.NoError(t, client.AdminDeleteOffer(context.Background(), "tok", 3))
}

func TestErrorMessageFromRawText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Bad credentials\n")
	})
	client := newTestClient(t, mux)

	_, err := client.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Bad credentials", err.Error())
}

func TestOrderTicketsWrappedShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/order/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"tickets":[{"ticketId":7,"offerId":3}]}`)
	})
	client := newTestClient(t, mux)

	tickets, err := client.OrderTickets(context.Background(), "tok", 1)
	require.NoError(t, err)
	require.Len(t, tickets, 1)

	ticket := tickets[0]
	assert.Equal(t, int64(7), ticket.ID)
	require.NotNil(t, ticket.OfferID)
	assert.Equal(t, int64(3), *ticket.OfferID)
	assert.Nil(t, ticket.FinalKey)
	assert.Nil(t, ticket.ConsumedAt)
	assert.Nil(t, ticket.QRCodeBase64)
}

func TestOrderTicketsBareListShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/order/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":1,"offerId":2,"finalKey":"k1","consumedAt":"2024-07-30T10:00:00Z","qrcodeBase64":"aGk="},
			{"id":2,"offer":{"id":5},"finalKey":"k2","consumedAt":null}
		]`)
	})
	client := newTestClient(t, mux)

	tickets, err := client.OrderTickets(context.Background(), "tok", 1)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, "k1", tickets[0].Key())
	assert.True(t, tickets[0].Consumed())
	require.NotNil(t, tickets[0].QRCodeBase64)
	assert.Equal(t, "aGk=", *tickets[0].QRCodeBase64)

	require.NotNil(t, tickets[1].OfferID)
	assert.Equal(t, int64(5), *tickets[1].OfferID)
	assert.False(t, tickets[1].Consumed())
}

func TestOrderTicketsWrapperWithoutList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/order/{id}/tickets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	client := newTestClient(t, mux)

	tickets, err := client.OrderTickets(context.Background(), "tok", 1)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NotNil(t, tickets)
}

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		`{"token":"abc.def.ghi"}`:      "abc.def.ghi",
		`{"jwt":" abc "}`:              "abc",
		`{"accessToken":"\"quoted\""}`: "quoted",
		`{"access_token":"legacy"}`:    "legacy",
		`"bare.json.string"`:           "bare.json.string",
		"plain.text.token\n":           "plain.text.token",
		`"\"double\""`:                 "double",
		`{"token":""}`:                 "",
		`{"message":"ok"}`:             "",
		`""`:                           "",
		``:                             "",
	}

	for body, want := range cases {
		assert.Equal(t, want, extractToken([]byte(body)), "body %q", body)
	}
}

func TestVerifyOTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		var req model.OTPVerifyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Code {
		case "123456":
			writeJSON(w, http.StatusOK, `{"token":"abc.def.ghi"}`)
		case "000000":
			writeJSON(w, http.StatusOK, `{"status":"ok"}`)
		default:
			writeJSON(w, http.StatusBadRequest, `{"error":"Invalid code"}`)
		}
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	token, err := client.VerifyOTP(ctx, model.OTPVerifyRequest{Email: "a@b.c", Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = client.VerifyOTP(ctx, model.OTPVerifyRequest{Email: "a@b.c", Code: "000000"})
	assert.ErrorIs(t, err, model.ErrNoToken)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.HTTPStatus)
	assert.Equal(t, `{"status":"ok"}`, apiErr.Body)
	assert.Equal(t, model.ErrNoToken.Error(), apiErr.Error())

	_, err = client.VerifyOTP(ctx, model.OTPVerifyRequest{Email: "a@b.c", Code: "999999"})
	require.Error(t, err)
	assert.Equal(t, "Invalid code", err.Error())
}

func TestVerifyTicketShapes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tickets/verify", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("key") {
		case "good key":
			writeJSON(w, http.StatusOK, `true`)
		case "object":
			writeJSON(w, http.StatusOK, `{"valid":true,"ticketId":4}`)
		default:
			writeJSON(w, http.StatusOK, `false`)
		}
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	valid, err := client.VerifyTicket(ctx, "tok", "good key")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = client.VerifyTicket(ctx, "tok", "object")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = client.VerifyTicket(ctx, "tok", "other")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestConsumeTicketEmptyBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tickets/consume", func(w http.ResponseWriter, r *http.Request) {
		var req model.ConsumeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.FinalKey == "used" {
			writeJSON(w, http.StatusBadRequest, `{"error":"Ticket already consumed"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, mux)

	require.NoError(t, client.ConsumeTicket(context.Background(), "tok", "fresh"))

	err := client.ConsumeTicket(context.Background(), "tok", "used")
	require.Error(t, err)
	assert.Equal(t, "Ticket already consumed", err.Error())
}

func TestCheckoutNormalizesTickets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/order/checkout", func(w http.ResponseWriter, r *http.Request) {
		var req model.CheckoutRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []model.CheckoutItem{{OfferID: 2, Quantity: 3}}, req.Items)
		writeJSON(w, http.StatusOK, `{"orderId":11,"tickets":[{"ticketId":1,"offerId":2,"finalKey":"a"}]}`)
	})
	client := newTestClient(t, mux)

	result, err := client.Checkout(context.Background(), "tok", []model.CheckoutItem{{OfferID: 2, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.OrderID)
	require.Len(t, result.Tickets, 1)
	assert.Equal(t, int64(1), result.Tickets[0].ID)
	assert.Equal(t, "a", result.Tickets[0].Key())
}

func TestAdminSalesAndOffers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/sales", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"total":3,"byoffer":[{"offerId":1,"offerName":"Billet Solo","ticketsSold":3}]}`)
	})
	mux.HandleFunc("PUT /api/admin/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		var input model.OfferInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		writeJSON(w, http.StatusOK, `{"id":`+r.PathValue("id")+`,"code":"`+input.Code+`","seats":1}`)
	})
	mux.HandleFunc("POST /api/admin/offers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"error":"Offer code already exists"}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	sales, err := client.AdminSales(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sales.Total)
	require.Len(t, sales.ByOffer, 1)
	assert.Equal(t, "Billet Solo", sales.ByOffer[0].OfferName)

	updated, err := client.AdminUpdateOffer(ctx, "tok", 4, model.OfferInput{Code: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.ID)
	assert.Equal(t, "VIP", updated.Code)
	assert.True(t, updated.Active)

	_, err = client.AdminCreateOffer(ctx, "tok", model.OfferInput{Code: "SOLO"})
	require.Error(t, err)
	assert.Equal(t, "Offer code already exists", err.Error())
}

func TestTicketQRBytes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tickets/{id}/qr.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	client := newTestClient(t, mux)

	data, err := client.TicketQR(context.Background(), "tok", 9)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}
