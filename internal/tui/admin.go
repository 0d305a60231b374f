package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ticketing-front/internal/model"
	"ticketing-front/internal/offerform"
)

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.sess.adminOffers)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.sess.adminCursor = moveCursor(m.sess.adminCursor, -1, count)
	case key.Matches(msg, m.keys.Down):
		m.sess.adminCursor = moveCursor(m.sess.adminCursor, 1, count)
	case key.Matches(msg, m.keys.NewOffer):
		cmd := m.openForm(offerform.Empty())
		return m, cmd
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		offer, ok := m.selectedAdminOffer()
		if !ok {
			return m, nil
		}
		cmd := m.openForm(offerform.FromOffer(offer))
		return m, cmd
	case key.Matches(msg, m.keys.DeleteOffer):
		offer, ok := m.selectedAdminOffer()
		if !ok {
			return m, nil
		}
		id := offer.ID
		m.confirm = &confirmDialog{
			prompt: fmt.Sprintf("Permanently delete offer %s?", offer.Code),
			accept: func(m *Model) tea.Cmd {
				return m.deleteOfferCmd(m.tokenGen.Current(), id)
			},
		}
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.adminEffect(true)
		return m, cmd
	}
	return m, nil
}

func (m Model) selectedAdminOffer() (model.Offer, bool) {
	if len(m.sess.adminOffers) == 0 {
		return model.Offer{}, false
	}
	return m.sess.adminOffers[clampCursor(m.sess.adminCursor, len(m.sess.adminOffers))], true
}

func (m *Model) openForm(draft offerform.Draft) tea.Cmd {
	m.blurAll()
	m.sess.draft = draft
	m.sess.formOpen = true
	m.sess.formField = offerform.FieldCode
	return m.loadFormField()
}

// loadFormField copies the current field's text into the shared input.
// The active flag has no text and leaves the input blurred.
func (m *Model) loadFormField() tea.Cmd {
	if m.sess.formField == offerform.FieldActive {
		m.formInput.Blur()
		return nil
	}
	m.formInput.SetValue(m.sess.draft.Value(m.sess.formField))
	m.formInput.CursorEnd()
	return m.formInput.Focus()
}

func (m *Model) commitFormField() {
	if m.sess.formField == offerform.FieldActive {
		return
	}
	m.sess.draft = m.sess.draft.Set(m.sess.formField, m.formInput.Value())
}

func (m *Model) closeForm() {
	m.sess.draft = offerform.Empty()
	m.sess.formOpen = false
	m.sess.formField = offerform.FieldCode
	m.formInput.Reset()
	m.formInput.Blur()
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.closeForm()
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyDown:
		m.commitFormField()
		m.sess.formField = m.sess.formField.Next()
		cmd := m.loadFormField()
		return m, cmd
	case msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
		m.commitFormField()
		m.sess.formField = m.sess.formField.Prev()
		cmd := m.loadFormField()
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		m.commitFormField()
		draft := m.sess.draft
		return m, m.saveOfferCmd(m.tokenGen.Current(), draft.ID, draft.Payload())
	}

	if m.sess.formField == offerform.FieldActive {
		if key.Matches(msg, m.keys.Toggle) {
			m.sess.draft = m.sess.draft.Set(offerform.FieldActive, "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formInput, cmd = m.formInput.Update(msg)
	m.sess.draft = m.sess.draft.Set(m.sess.formField, m.formInput.Value())
	return m, cmd
}

func (m Model) adminView() string {
	theme := m.theme
	var b strings.Builder

	b.WriteString(theme.title().Render("Sales") + "\n")
	switch {
	case m.sess.adminLoading:
		b.WriteString(theme.faint().Render("Loading…") + "\n")
	case m.sess.adminErr != "":
		b.WriteString(theme.errorText().Render("Could not load sales: "+m.sess.adminErr) + "\n")
	default:
		fmt.Fprintf(&b, "Total tickets sold: %s\n", theme.text().Render(fmt.Sprint(m.sess.sales.Total)))
		for _, row := range m.sess.sales.ByOffer {
			fmt.Fprintf(&b, "  %-24s %6d\n", row.OfferName, row.TicketsSold)
		}
	}

	b.WriteString("\n" + theme.title().Render("Catalog") + "\n")
	if len(m.sess.adminOffers) == 0 {
		b.WriteString(theme.faint().Render("No offer.") + "\n")
	}
	cursor := clampCursor(m.sess.adminCursor, len(m.sess.adminOffers))
	for i, offer := range m.sess.adminOffers {
		active := "active"
		if !offer.Active {
			active = "inactive"
		}
		line := fmt.Sprintf("#%-4d %-8s %-22s %2d seat(s) %8s €  %s",
			offer.ID, offer.Code, offer.Name, offer.Seats, offer.PriceEuros(), active)
		if i == cursor && !m.sess.formOpen {
			b.WriteString(theme.selected().Render("▸ "+line) + "\n")
		} else {
			b.WriteString(theme.text().Render("  "+line) + "\n")
		}
	}

	if m.sess.formOpen {
		b.WriteString("\n" + theme.panel().Render(m.formView()) + "\n")
	}
	return b.String()
}

func (m Model) formView() string {
	theme := m.theme
	var b strings.Builder

	heading := "New offer"
	if m.sess.draft.Editing() {
		heading = fmt.Sprintf("Edit offer #%d", *m.sess.draft.ID)
	}
	b.WriteString(theme.title().Render(heading) + "\n")

	for field := offerform.FieldCode; field <= offerform.FieldActive; field++ {
		label := fmt.Sprintf("%-14s", field.Label())
		value := theme.text().Render(m.sess.draft.Value(field))
		if field == m.sess.formField {
			label = theme.selected().Render(label)
			if field != offerform.FieldActive {
				value = m.formInput.View()
			}
		} else {
			label = theme.faint().Render(label)
		}
		b.WriteString(label + " " + value + "\n")
	}
	b.WriteString(theme.faint().Render("tab next · space toggle active · enter save · esc cancel"))
	return b.String()
}
