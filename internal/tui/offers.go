package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ticketing-front/internal/model"
	"ticketing-front/internal/storefront"
)

const sessionMissingMessage = "Session missing. Please sign in again."

func (m Model) visibleOffers() []model.Offer {
	return storefront.Apply(m.sess.offers, m.filter)
}

func (m Model) selectedOffer() (model.Offer, bool) {
	offers := m.visibleOffers()
	if len(offers) == 0 {
		return model.Offer{}, false
	}
	return offers[clampCursor(m.sess.offerCursor, len(offers))], true
}

// quantity is the per-offer count for the next checkout, at least one.
func (m Model) quantity(offerID int64) int {
	if qty := m.quantities[offerID]; qty > 0 {
		return qty
	}
	return 1
}

func (m Model) handleOffersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.visibleOffers())

	switch {
	case key.Matches(msg, m.keys.Up):
		m.sess.offerCursor = moveCursor(m.sess.offerCursor, -1, count)
	case key.Matches(msg, m.keys.Down):
		m.sess.offerCursor = moveCursor(m.sess.offerCursor, 1, count)
	case key.Matches(msg, m.keys.Search):
		cmd := m.queryInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.MaxPrice):
		cmd := m.priceInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Seats):
		m.filter.Seats = m.nextSeatOption()
		m.sess.offerCursor = clampCursor(m.sess.offerCursor, len(m.visibleOffers()))
	case key.Matches(msg, m.keys.Sort):
		m.filter.Sort = m.filter.Sort.Next()
	case key.Matches(msg, m.keys.QtyUp):
		if offer, ok := m.selectedOffer(); ok {
			m.quantities[offer.ID] = m.quantity(offer.ID) + 1
		}
	case key.Matches(msg, m.keys.QtyDown):
		if offer, ok := m.selectedOffer(); ok && m.quantity(offer.ID) > 1 {
			m.quantities[offer.ID] = m.quantity(offer.ID) - 1
		}
	case key.Matches(msg, m.keys.ClearForm):
		m.filter = storefront.Filter{Seats: "all", Sort: storefront.SortDefault}
		m.queryInput.Reset()
		m.priceInput.Reset()
	case key.Matches(msg, m.keys.Select):
		return m.checkout()
	}
	return m, nil
}

// nextSeatOption cycles "all" then every seat count the catalog offers.
func (m Model) nextSeatOption() string {
	options := []string{"all"}
	for _, seats := range storefront.SeatOptions(m.sess.offers) {
		options = append(options, strconv.Itoa(seats))
	}
	for i, option := range options {
		if option == m.filter.Seats {
			return options[(i+1)%len(options)]
		}
	}
	return "all"
}

func (m Model) handleOffersInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Blur) || key.Matches(msg, m.keys.Select) {
		m.blurAll()
		return m, nil
	}

	var cmd tea.Cmd
	if m.queryInput.Focused() {
		m.queryInput, cmd = m.queryInput.Update(msg)
		m.filter.Query = m.queryInput.Value()
	} else {
		m.priceInput, cmd = m.priceInput.Update(msg)
		m.filter.MaxPriceEuros = m.priceInput.Value()
	}
	m.sess.offerCursor = clampCursor(m.sess.offerCursor, len(m.visibleOffers()))
	return m, cmd
}

// checkout buys the selected offer. Without a token no request is made
// and the auth form takes over.
func (m Model) checkout() (tea.Model, tea.Cmd) {
	offer, ok := m.selectedOffer()
	if !ok || m.sess.checkoutBusy {
		return m, nil
	}

	if m.token == "" {
		cmd := m.gotoAuth()
		return m, cmd
	}
	if !offer.Active {
		m.alert = "This offer is not available for purchase."
		return m, nil
	}

	m.sess.checkoutBusy = true
	items := []model.CheckoutItem{{OfferID: offer.ID, Quantity: m.quantity(offer.ID)}}
	m.logger.Info("checkout", "offer", offer.Code, "quantity", items[0].Quantity)
	return m, m.checkoutCmd(m.tokenGen.Current(), items)
}

func (m Model) handleCheckoutDone(msg checkoutDoneMsg) (tea.Model, tea.Cmd) {
	m.sess.checkoutBusy = false

	if msg.err != nil {
		if isNotAuthenticated(msg.err) {
			cmd := m.gotoAuth()
			return m, cmd
		}
		m.logger.Warn("checkout failed", "error", msg.err)
		m.alert = "Purchase failed. " + msg.err.Error()
		return m, nil
	}

	m.sess.orders = nonNil(msg.orders)
	m.blurAll()
	m.section = SectionOrders
	m.sess.orderCursor = 0
	m.sess.ticketsFocused = false
	if len(m.sess.orders) == 0 {
		return m, nil
	}
	return m.openOrder(m.sess.orders[0].ID)
}

func (m Model) offersView() string {
	theme := m.theme
	var b strings.Builder

	b.WriteString(theme.title().Render("Offers") + "\n")
	fmt.Fprintf(&b, "%s %s\n", theme.faint().Render("search"), m.queryInput.View())
	fmt.Fprintf(&b, "%s %s\n", theme.faint().Render("max €"), m.priceInput.View())
	fmt.Fprintf(&b, "%s %s   %s %s\n\n",
		theme.faint().Render("seats"), theme.text().Render(m.filter.Seats),
		theme.faint().Render("sort"), theme.text().Render(m.filter.Sort.Label()))

	offers := m.visibleOffers()
	switch {
	case m.sess.offersLoading && len(m.sess.offers) == 0:
		b.WriteString(theme.faint().Render("Loading offers…") + "\n")
		return b.String()
	case len(offers) == 0:
		b.WriteString(theme.faint().Render("No offer matches the current filters.") + "\n")
		return b.String()
	}

	cursor := clampCursor(m.sess.offerCursor, len(offers))
	for i, offer := range offers {
		line := fmt.Sprintf("%-8s %-22s %2d seat(s)  %8s €  × %d",
			offer.Code, offer.Name, offer.Seats, offer.PriceEuros(), m.quantity(offer.ID))
		if !offer.Active {
			line += "  (unavailable)"
		}
		if i == cursor {
			b.WriteString(theme.selected().Render("▸ "+line) + "\n")
			if offer.Description != "" {
				b.WriteString("  " + theme.faint().Render(offer.Description) + "\n")
			}
			continue
		}
		style := theme.text()
		if !offer.Active {
			style = theme.faint()
		}
		b.WriteString(style.Render("  "+line) + "\n")
	}

	if m.sess.checkoutBusy {
		b.WriteString("\n" + theme.faint().Render("Processing purchase…") + "\n")
	}
	return b.String()
}
