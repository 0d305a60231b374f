package tui

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/authflow"
	"ticketing-front/internal/model"
	"ticketing-front/internal/session"
)

var testOffers = []model.Offer{
	{ID: 1, Code: "SOLO", Name: "Billet Solo", PriceCents: 2500, Seats: 1, Active: true},
	{ID: 2, Code: "DUO", Name: "Billet Duo", PriceCents: 4500, Seats: 2, Active: true},
	{ID: 3, Code: "OLD", Name: "Retired", PriceCents: 100, Seats: 1, Active: false},
}

var adminProfile = &model.Profile{Email: "admin@jo.fr", Roles: []string{"ROLE_ADMIN", "ROLE_USER"}}

func newTestModel(t *testing.T, backend *MockBackend, store session.TokenStore) Model {
	t.Helper()
	m := New(backend, store, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	return drain(t, m, m.Init())
}

// drain runs cmd and every command it yields, feeding results to Update.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command queue does not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			updated, follow := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, follow)
		}
	}
	return m
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	return drain(t, updated.(Model), cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

func guestBackend() *MockBackend {
	backend := &MockBackend{}
	backend.On("Offers", mock.Anything, "").Return(testOffers, nil)
	return backend
}

func adminBackend(token string) *MockBackend {
	backend := &MockBackend{}
	backend.On("Offers", mock.Anything, mock.Anything).Return(testOffers, nil)
	backend.On("Me", mock.Anything, token).Return(adminProfile, nil)
	backend.On("Orders", mock.Anything, token).Return([]model.Order{{ID: 7}, {ID: 5}}, nil)
	backend.On("AdminSales", mock.Anything, token).Return(&model.SalesSnapshot{
		Total:   3,
		ByOffer: []model.OfferSales{{OfferID: 1, OfferName: "Billet Solo", TicketsSold: 3}},
	}, nil)
	backend.On("AdminListOffers", mock.Anything, token).Return(testOffers, nil)
	return backend
}

func TestGuestStartLoadsOffersOnly(t *testing.T) {
	backend := guestBackend()
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	assert.Len(t, m.sess.offers, 3)
	assert.False(t, m.sess.offersLoading)
	assert.Equal(t, []Section{SectionOffers, SectionOrders, SectionAuth}, m.visibleSections())
	backend.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "Orders", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "AdminSales", mock.Anything, mock.Anything)
}

func TestLoginMovesToOTPPending(t *testing.T) {
	backend := guestBackend()
	backend.On("Login", mock.Anything, model.LoginRequest{Email: "fan@jo.fr", Password: "secret"}).
		Return(&model.LoginResponse{OTPRequired: true}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	require.True(t, m.typing())
	m = press(t, m, runes("fan@jo.fr"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("secret"))
	m = press(t, m, enterKey)

	assert.Equal(t, authflow.StepOTPPending, m.sess.auth.Step)
	assert.Equal(t, "fan@jo.fr", m.sess.auth.Email)
	assert.True(t, m.otpInput.Focused())
	assert.False(t, m.sess.authLoading)
	backend.AssertExpectations(t)
}

func TestLoginFailureShowsGenericMessage(t *testing.T) {
	backend := guestBackend()
	backend.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("user not found"))
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	m = press(t, m, runes("fan@jo.fr"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("wrong"))
	m = press(t, m, enterKey)

	assert.Equal(t, authflow.StepLoginForm, m.sess.auth.Step)
	assert.Equal(t, loginFailedMessage, m.sess.auth.Message)
}

func TestEmptyCredentialsMakeNoRequest(t *testing.T) {
	backend := guestBackend()
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	m = press(t, m, enterKey)

	assert.Equal(t, missingFieldsMessage, m.sess.auth.Message)
	backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestRegisterModeShowsExtraFields(t *testing.T) {
	m := newTestModel(t, guestBackend(), session.NewMemoryStore(""))
	m = press(t, m, runes("3"))
	assert.Equal(t, 2, m.authFieldCount())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, authflow.ModeRegister, m.sess.auth.Mode)
	assert.Equal(t, 4, m.authFieldCount())
}

func TestOTPVerificationStoresTokenAndLoadsProfile(t *testing.T) {
	const token = "abc.def.ghi"
	backend := adminBackend(token)
	backend.On("Offers", mock.Anything, "").Return(testOffers, nil)
	backend.On("Login", mock.Anything, mock.Anything).Return(&model.LoginResponse{}, nil)
	backend.On("VerifyOTP", mock.Anything, model.OTPVerifyRequest{Email: "admin@jo.fr", Code: "123456"}).
		Return(token, nil)
	store := session.NewMemoryStore("")
	m := newTestModel(t, backend, store)

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	m = press(t, m, runes("admin@jo.fr"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("Azerty!123"))
	m = press(t, m, enterKey)
	require.Equal(t, authflow.StepOTPPending, m.sess.auth.Step)

	m = press(t, m, runes("12a3"))
	assert.Equal(t, "123", m.otpInput.Value())
	m = press(t, m, enterKey)
	backend.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything)

	m = press(t, m, runes("456"))
	m = press(t, m, enterKey)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	assert.Equal(t, token, m.Token())
	assert.Equal(t, authflow.StepLoginForm, m.sess.auth.Step)
	assert.Equal(t, authflow.StepAuthenticated, m.sess.auth.Displayed(m.token != ""))
	assert.Equal(t, "", m.authInputs[authEmail].Value())
	assert.True(t, m.sess.identity.IsAdmin)
	assert.Len(t, m.sess.orders, 2)
	backend.AssertCalled(t, "Me", mock.Anything, token)
}

func TestOTPPasteKeepsSixDigits(t *testing.T) {
	backend := guestBackend()
	backend.On("Login", mock.Anything, mock.Anything).Return(&model.LoginResponse{}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	m = press(t, m, runes("fan@jo.fr"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("pw"))
	m = press(t, m, enterKey)
	require.Equal(t, authflow.StepOTPPending, m.sess.auth.Step)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("12a3456789"), Paste: true})
	assert.Equal(t, "123456", m.otpInput.Value())
	assert.True(t, authflow.CanSubmitOTP(m.otpInput.Value()))

	m = press(t, m, runes("7"))
	assert.Equal(t, "123456", m.otpInput.Value())
}

func TestOTPFailureKeepsPendingWithGenericMessage(t *testing.T) {
	backend := guestBackend()
	backend.On("Login", mock.Anything, mock.Anything).Return(&model.LoginResponse{}, nil)
	backend.On("VerifyOTP", mock.Anything, mock.Anything).Return("", errors.New("code expired"))
	store := session.NewMemoryStore("")
	m := newTestModel(t, backend, store)

	m = press(t, m, runes("3"))
	m = press(t, m, enterKey)
	m = press(t, m, runes("fan@jo.fr"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("pw"))
	m = press(t, m, enterKey)
	m = press(t, m, runes("000000"))
	m = press(t, m, enterKey)

	assert.Equal(t, authflow.StepOTPPending, m.sess.auth.Step)
	assert.Equal(t, authflow.InvalidCodeMessage, m.sess.auth.Message)
	assert.Equal(t, "", m.Token())
}

func TestCheckoutWithoutTokenRoutesToAuth(t *testing.T) {
	backend := guestBackend()
	m := newTestModel(t, backend, session.NewMemoryStore(""))

	m = press(t, m, enterKey)

	assert.Equal(t, SectionAuth, m.ActiveSection())
	assert.True(t, m.authInputs[authEmail].Focused())
	backend.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutSelectsNewestOrder(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("Checkout", mock.Anything, token, []model.CheckoutItem{{OfferID: 1, Quantity: 2}}).
		Return(&model.CheckoutResult{OrderID: 7}, nil)
	backend.On("OrderTickets", mock.Anything, token, int64(7)).Return([]model.Ticket{{ID: 70}, {ID: 71}}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	m = press(t, m, runes("+"))
	m = press(t, m, enterKey)

	assert.Equal(t, SectionOrders, m.ActiveSection())
	require.NotNil(t, m.sess.selectedOrderID)
	assert.Equal(t, int64(7), *m.sess.selectedOrderID)
	assert.Len(t, m.sess.tickets, 2)
	assert.False(t, m.sess.checkoutBusy)
	backend.AssertExpectations(t)
}

func TestCheckoutFailureRaisesAlert(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("Checkout", mock.Anything, token, mock.Anything).Return(nil, errors.New("sold out"))
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	m = press(t, m, enterKey)

	assert.Equal(t, "Purchase failed. sold out", m.alert)
	assert.Equal(t, SectionOffers, m.ActiveSection())
	m = press(t, m, enterKey)
	assert.Empty(t, m.alert)
}

func TestStorefrontFilterKeys(t *testing.T) {
	m := newTestModel(t, guestBackend(), session.NewMemoryStore(""))

	m = press(t, m, runes("s"))
	assert.Equal(t, "1", m.filter.Seats)
	assert.Len(t, m.visibleOffers(), 2)

	m = press(t, m, runes("s"))
	m = press(t, m, runes("s"))
	assert.Equal(t, "all", m.filter.Seats)

	m = press(t, m, runes("/"))
	m = press(t, m, runes("duo"))
	m = press(t, m, escKey)
	assert.Equal(t, "duo", m.filter.Query)
	require.Len(t, m.visibleOffers(), 1)
	assert.Equal(t, "DUO", m.visibleOffers()[0].Code)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Len(t, m.visibleOffers(), 3)
}

func TestSignOutClearsEverySessionField(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("Offers", mock.Anything, "").Return(testOffers, nil)
	store := session.NewMemoryStore(token)
	m := newTestModel(t, backend, store)

	require.True(t, m.sess.adminActive)
	require.Len(t, m.sess.orders, 2)
	m = press(t, m, runes("5"))
	require.Equal(t, SectionAdmin, m.ActiveSection())

	m = press(t, m, runes("X"))

	stored, _ := store.Load()
	assert.Equal(t, "", stored)
	assert.Equal(t, "", m.Token())
	assert.Nil(t, m.sess.profile)
	assert.False(t, m.sess.identity.IsAuth)
	assert.False(t, m.sess.identity.IsAdmin)
	assert.Empty(t, m.sess.orders)
	assert.Nil(t, m.sess.selectedOrderID)
	assert.Empty(t, m.sess.tickets)
	assert.Empty(t, m.sess.adminOffers)
	assert.Equal(t, int64(0), m.sess.sales.Total)
	assert.False(t, m.sess.adminActive)
	assert.Nil(t, m.sess.scanResult)
	assert.Equal(t, SectionOffers, m.ActiveSection())
	assert.Equal(t, []Section{SectionOffers, SectionOrders, SectionAuth}, m.visibleSections())
}

func TestAdminProfileTriggersAdminFetch(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	assert.True(t, m.sess.adminActive)
	assert.False(t, m.sess.adminLoading)
	assert.Equal(t, int64(3), m.sess.sales.Total)
	assert.Len(t, m.sess.adminOffers, 3)
	assert.Contains(t, m.visibleSections(), SectionGate)
	backend.AssertNumberOfCalls(t, "AdminSales", 1)
}

func TestUserProfileHidesGatedSections(t *testing.T) {
	const token = "tok"
	backend := &MockBackend{}
	backend.On("Offers", mock.Anything, token).Return(testOffers, nil)
	backend.On("Me", mock.Anything, token).Return(&model.Profile{Email: "fan@jo.fr", Roles: []string{"ROLE_USER"}}, nil)
	backend.On("Orders", mock.Anything, token).Return([]model.Order{}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	assert.Equal(t, []Section{SectionOffers, SectionOrders, SectionAuth}, m.visibleSections())
	m = press(t, m, runes("5"))
	assert.Equal(t, SectionOffers, m.ActiveSection())
	backend.AssertNotCalled(t, "AdminSales", mock.Anything, mock.Anything)
}

func TestProfileFailureKeepsToken(t *testing.T) {
	const token = "tok"
	backend := &MockBackend{}
	backend.On("Offers", mock.Anything, token).Return(testOffers, nil)
	backend.On("Me", mock.Anything, token).Return(nil, errors.New("unauthorized"))
	backend.On("Orders", mock.Anything, token).Return([]model.Order{}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	assert.Equal(t, token, m.Token())
	assert.True(t, m.sess.identity.IsAuth)
	assert.Nil(t, m.sess.profile)
	assert.False(t, m.sess.identity.IsAdmin)
}

func TestStaleResponsesAreDropped(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("Offers", mock.Anything, "").Return(testOffers, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))
	stale := m.tokenGen.Current()

	m = press(t, m, runes("P"))
	require.Equal(t, "", m.Token())

	updated, _ := m.Update(ordersLoadedMsg{gen: stale, orders: []model.Order{{ID: 99}}})
	m = updated.(Model)
	assert.Equal(t, []model.Order{{ID: 7}, {ID: 5}}, m.sess.orders)

	updated, _ = m.Update(profileLoadedMsg{gen: stale, profile: adminProfile})
	m = updated.(Model)
	assert.False(t, m.sess.identity.IsAuth)
	assert.NotContains(t, m.visibleSections(), SectionAdmin)
}

func TestOpenOrderWithoutTokenAlerts(t *testing.T) {
	m := newTestModel(t, guestBackend(), session.NewMemoryStore(""))
	m.sess.orders = []model.Order{{ID: 4}}
	m.section = SectionOrders

	m = press(t, m, enterKey)

	assert.Equal(t, sessionMissingMessage, m.alert)
	assert.Equal(t, SectionAuth, m.ActiveSection())
}

func TestGateVerifyAndConsume(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("VerifyTicket", mock.Anything, token, "KEY-1").Return(true, nil).Once()
	backend.On("ConsumeTicket", mock.Anything, token, "KEY-1").Return(errors.New("already used")).Once()
	backend.On("VerifyTicket", mock.Anything, token, "KEY-1").Return(false, errors.New("boom")).Once()
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	m = press(t, m, runes("4"))
	require.Equal(t, SectionGate, m.ActiveSection())

	m = press(t, m, runes("v"))
	backend.AssertNotCalled(t, "VerifyTicket", mock.Anything, mock.Anything, mock.Anything)

	m = press(t, m, runes("i"))
	m = press(t, m, runes("KEY-1"))
	m = press(t, m, enterKey)
	require.NotNil(t, m.sess.scanResult)
	assert.Equal(t, model.ScanResult{Verified: true, Consumed: false}, *m.sess.scanResult)

	m = press(t, m, runes("C"))
	assert.Equal(t, "already used", m.sess.scanErr)
	require.NotNil(t, m.sess.scanResult)

	m = press(t, m, runes("v"))
	assert.Equal(t, "boom", m.sess.scanErr)
	assert.Nil(t, m.sess.scanResult)
}

func TestAdminDeleteAsksForConfirmation(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	backend.On("AdminDeleteOffer", mock.Anything, token, int64(1)).Return(nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	m = press(t, m, runes("5"))
	m = press(t, m, runes("d"))
	require.NotNil(t, m.confirm)
	assert.Equal(t, "Permanently delete offer SOLO?", m.confirm.prompt)

	m = press(t, m, runes("n"))
	assert.Nil(t, m.confirm)
	backend.AssertNotCalled(t, "AdminDeleteOffer", mock.Anything, mock.Anything, mock.Anything)

	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	assert.Nil(t, m.confirm)
	backend.AssertCalled(t, "AdminDeleteOffer", mock.Anything, token, int64(1))
}

func TestAdminCreateOffer(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	want := model.OfferInput{Code: "VIP", Name: "VIP", PriceCents: 2500, Seats: 1, Active: false}
	backend.On("AdminCreateOffer", mock.Anything, token, want).Return(&model.Offer{ID: 9}, nil)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	m = press(t, m, runes("5"))
	m = press(t, m, runes("n"))
	require.True(t, m.sess.formOpen)
	require.True(t, m.typing())

	m = press(t, m, runes("VIP"))
	m = press(t, m, tabKey)
	m = press(t, m, runes("VIP"))
	for range 4 {
		m = press(t, m, tabKey)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = press(t, m, enterKey)

	assert.False(t, m.sess.formOpen)
	assert.False(t, m.sess.draft.Editing())
	backend.AssertExpectations(t)
}

func TestViewRendersEverySection(t *testing.T) {
	const token = "tok"
	backend := adminBackend(token)
	m := newTestModel(t, backend, session.NewMemoryStore(token))

	for _, key := range []string{"1", "2", "3", "4", "5"} {
		m = press(t, m, runes(key))
		assert.Contains(t, m.View(), m.ActiveSection().Title())
	}
	assert.Contains(t, m.View(), "Billet Solo")
}
