package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ticketing-front/internal/model"
	"ticketing-front/internal/qrview"
	"ticketing-front/internal/session"
)

// Commands read the token from the store right before the request, so a
// sign-out that lands while a command is queued is honored.

func currentToken(store session.TokenStore) (string, error) {
	token, err := store.Load()
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func requireToken(store session.TokenStore) (string, error) {
	token, err := currentToken(store)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", model.ErrNotAuthenticated
	}
	return token, nil
}

func (m *Model) fetchOffersCmd(gen uint64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := currentToken(store)
		if err != nil {
			return offersLoadedMsg{gen: gen, err: err}
		}
		offers, err := backend.Offers(ctx, token)
		return offersLoadedMsg{gen: gen, offers: offers, err: err}
	}
}

func (m *Model) fetchProfileCmd(gen uint64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return profileLoadedMsg{gen: gen, err: err}
		}
		profile, err := backend.Me(ctx, token)
		return profileLoadedMsg{gen: gen, profile: profile, err: err}
	}
}

func (m *Model) fetchOrdersCmd(gen uint64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return ordersLoadedMsg{gen: gen, err: err}
		}
		orders, err := backend.Orders(ctx, token)
		return ordersLoadedMsg{gen: gen, orders: orders, err: err}
	}
}

func (m *Model) fetchSalesCmd(gen uint64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return salesLoadedMsg{gen: gen, err: err}
		}
		sales, err := backend.AdminSales(ctx, token)
		return salesLoadedMsg{gen: gen, sales: sales, err: err}
	}
}

func (m *Model) fetchAdminOffersCmd(gen uint64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return adminOffersLoadedMsg{gen: gen, err: err}
		}
		offers, err := backend.AdminListOffers(ctx, token)
		return adminOffersLoadedMsg{gen: gen, offers: offers, err: err}
	}
}

func (m *Model) loginCmd(gen uint64, req model.LoginRequest) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		_, err := backend.Login(ctx, req)
		return authDoneMsg{gen: gen, action: authLogin, email: req.Email, err: err}
	}
}

// registerCmd never yields a token: it registers, then logs in with the
// same credentials so the backend issues an OTP.
func (m *Model) registerCmd(gen uint64, req model.RegisterRequest) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		if _, err := backend.Register(ctx, req); err != nil {
			return authDoneMsg{gen: gen, action: authRegister, email: req.Email, err: err}
		}
		_, err := backend.Login(ctx, model.LoginRequest{Email: req.Email, Password: req.Password})
		return authDoneMsg{gen: gen, action: authRegister, email: req.Email, err: err}
	}
}

func (m *Model) verifyOTPCmd(gen uint64, req model.OTPVerifyRequest) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		token, err := backend.VerifyOTP(ctx, req)
		return otpDoneMsg{gen: gen, token: token, err: err}
	}
}

// checkoutCmd buys then refetches the order list, so the newest order can
// be selected.
func (m *Model) checkoutCmd(gen uint64, items []model.CheckoutItem) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return checkoutDoneMsg{gen: gen, err: err}
		}
		if _, err := backend.Checkout(ctx, token, items); err != nil {
			return checkoutDoneMsg{gen: gen, err: err}
		}
		orders, err := backend.Orders(ctx, token)
		return checkoutDoneMsg{gen: gen, orders: orders, err: err}
	}
}

func (m *Model) fetchTicketsCmd(gen uint64, orderID int64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return ticketsLoadedMsg{gen: gen, orderID: orderID, err: err}
		}
		tickets, err := backend.OrderTickets(ctx, token, orderID)
		return ticketsLoadedMsg{gen: gen, orderID: orderID, tickets: tickets, err: err}
	}
}

func (m *Model) fetchQRCmd(gen uint64, ticketID int64, maxWidth int) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return qrLoadedMsg{gen: gen, ticketID: ticketID, err: err}
		}
		data, err := backend.TicketQR(ctx, token, ticketID)
		if err != nil {
			return qrLoadedMsg{gen: gen, ticketID: ticketID, err: err}
		}
		art, err := qrview.Render(data, qrview.Options{MaxWidth: maxWidth, Invert: true})
		return qrLoadedMsg{gen: gen, ticketID: ticketID, art: art, err: err}
	}
}

func (m *Model) scanCmd(gen uint64, finalKey string, consume bool) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return scanDoneMsg{gen: gen, consume: consume, err: err}
		}
		if consume {
			err := backend.ConsumeTicket(ctx, token, finalKey)
			return scanDoneMsg{gen: gen, consume: true, valid: err == nil, err: err}
		}
		valid, err := backend.VerifyTicket(ctx, token, finalKey)
		return scanDoneMsg{gen: gen, valid: valid, err: err}
	}
}

// saveOfferCmd creates when id is nil, updates otherwise, then reloads
// the admin list.
func (m *Model) saveOfferCmd(gen uint64, id *int64, input model.OfferInput) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return offerSavedMsg{gen: gen, err: err}
		}
		if id != nil {
			_, err = backend.AdminUpdateOffer(ctx, token, *id, input)
		} else {
			_, err = backend.AdminCreateOffer(ctx, token, input)
		}
		if err != nil {
			return offerSavedMsg{gen: gen, err: err}
		}
		offers, err := backend.AdminListOffers(ctx, token)
		return offerSavedMsg{gen: gen, offers: offers, err: err}
	}
}

func (m *Model) deleteOfferCmd(gen uint64, id int64) tea.Cmd {
	backend, store, ctx := m.backend, m.store, m.ctx
	return func() tea.Msg {
		token, err := requireToken(store)
		if err != nil {
			return offerDeletedMsg{gen: gen, err: err}
		}
		if err := backend.AdminDeleteOffer(ctx, token, id); err != nil {
			return offerDeletedMsg{gen: gen, err: err}
		}
		offers, err := backend.AdminListOffers(ctx, token)
		return offerDeletedMsg{gen: gen, offers: offers, err: err}
	}
}
