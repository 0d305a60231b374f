package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ticketing-front/internal/authflow"
	"ticketing-front/internal/model"
	"ticketing-front/internal/offerform"
	"ticketing-front/internal/session"
	"ticketing-front/internal/storefront"
)

type Section int

const (
	SectionOffers Section = iota
	SectionOrders
	SectionAuth
	SectionGate
	SectionAdmin
)

var allSections = []Section{SectionOffers, SectionOrders, SectionAuth, SectionGate, SectionAdmin}

func (s Section) Title() string {
	switch s {
	case SectionOffers:
		return "Offers"
	case SectionOrders:
		return "Orders"
	case SectionAuth:
		return "Account"
	case SectionGate:
		return "Gate"
	case SectionAdmin:
		return "Admin"
	default:
		return ""
	}
}

// sessionState is everything scoped to the signed-in session. Sign-out
// replaces it wholesale so no view ever mixes old and cleared values.
type sessionState struct {
	profile  *model.Profile
	identity session.Identity

	offers        []model.Offer
	offersLoading bool
	offerCursor   int
	checkoutBusy  bool

	orders          []model.Order
	orderCursor     int
	selectedOrderID *int64
	tickets         []model.Ticket
	ticketCursor    int
	ticketsFocused  bool
	qrTicketID      int64
	qrArt           string

	auth        authflow.State
	authLoading bool

	scanResult *model.ScanResult
	scanErr    string

	adminActive  bool
	adminLoading bool
	adminErr     string
	sales        model.SalesSnapshot
	adminOffers  []model.Offer
	adminCursor  int
	draft        offerform.Draft
	formOpen     bool
	formField    offerform.Field
}

func newSessionState() sessionState {
	return sessionState{
		identity:    session.Derive("", nil),
		offers:      []model.Offer{},
		orders:      []model.Order{},
		tickets:     []model.Ticket{},
		auth:        authflow.New(),
		sales:       model.SalesSnapshot{ByOffer: []model.OfferSales{}},
		adminOffers: []model.Offer{},
		draft:       offerform.Empty(),
	}
}

type confirmDialog struct {
	prompt string
	accept func(m *Model) tea.Cmd
}

type Options struct {
	Context context.Context
	Logger  *slog.Logger
	Theme   *Theme
}

// Model is the top-level bubbletea model of the ticketing client.
type Model struct {
	backend Backend
	store   session.TokenStore
	ctx     context.Context
	logger  *slog.Logger
	theme   Theme
	keys    KeyMap

	width  int
	height int

	// token mirrors the store as of the last token change. Requests still
	// read the store themselves.
	token    string
	tokenGen session.Generation
	adminGen session.Generation
	sess     sessionState

	section Section

	// Storefront selections are presentation state and survive sign-out.
	filter     storefront.Filter
	queryInput textinput.Model
	priceInput textinput.Model
	quantities map[int64]int

	authInputs []textinput.Model
	authField  int
	otpInput   textinput.Model
	scanInput  textinput.Model
	formInput  textinput.Model

	alert   string
	confirm *confirmDialog

	status          string
	statusLevel     slog.Level
	clipboardNotice string

	startCmd tea.Cmd
}

const (
	authEmail = iota
	authPassword
	authFirstName
	authLastName
)

// New builds the model and kicks off the initial token-driven fetches,
// which Init returns.
func New(backend Backend, store session.TokenStore, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	m := Model{
		backend:    backend,
		store:      store,
		ctx:        ctx,
		logger:     logger,
		theme:      theme,
		keys:       DefaultKeyMap,
		sess:       newSessionState(),
		filter:     storefront.Filter{Seats: "all", Sort: storefront.SortDefault},
		queryInput: newInput("name, description or code", 0),
		priceInput: newInput("max price in euros", 10),
		quantities: map[int64]int{},
		otpInput:   newInput("6-digit code", 0),
		scanInput:  newInput("finalKey (paste or scan)", 0),
		formInput:  newInput("", 0),
	}

	m.authInputs = []textinput.Model{
		newInput("email", 0),
		newInput("password", 0),
		newInput("first name", 0),
		newInput("last name", 0),
	}
	m.authInputs[authPassword].EchoMode = textinput.EchoPassword
	m.authInputs[authPassword].EchoCharacter = '•'

	token, err := store.Load()
	if err != nil {
		logger.Warn("reading stored token failed", "error", err)
	}
	m.startCmd = m.setToken(token)

	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = "› "
	input.Cursor.SetMode(cursor.CursorStatic)
	if limit > 0 {
		input.CharLimit = limit
	}
	return input
}

func (m Model) Init() tea.Cmd {
	return m.startCmd
}

// Token returns the token the view currently acts on.
func (m Model) Token() string {
	return m.token
}

func (m Model) ActiveSection() Section {
	return m.section
}

// setToken commits a token change: offers are refetched always, profile
// and orders only with a token, and the admin fetches are re-armed.
func (m *Model) setToken(token string) tea.Cmd {
	m.token = token
	gen := m.tokenGen.Next()
	m.sess.identity = session.Derive(token, m.sess.profile)
	m.sess.offersLoading = true

	cmds := []tea.Cmd{m.fetchOffersCmd(gen)}
	if token != "" {
		cmds = append(cmds, m.fetchProfileCmd(gen), m.fetchOrdersCmd(gen))
	}
	cmds = append(cmds, m.adminEffect(true))
	m.ensureSectionVisible()

	return tea.Batch(cmds...)
}

// adminEffect runs whenever the token or the admin flag may have changed.
// Unless forced it only acts when the token-and-admin condition flips.
func (m *Model) adminEffect(force bool) tea.Cmd {
	want := m.sess.identity.IsAuth && m.sess.identity.IsAdmin
	if !force && want == m.sess.adminActive {
		return nil
	}

	m.sess.adminActive = want
	gen := m.adminGen.Next()
	if !want {
		m.sess.adminLoading = false
		return nil
	}

	m.sess.adminLoading = true
	m.sess.adminErr = ""
	return tea.Batch(m.fetchSalesCmd(gen), m.fetchAdminOffersCmd(gen))
}

func (m Model) sectionVisible(s Section) bool {
	id := m.sess.identity
	switch s {
	case SectionGate:
		return id.IsAuth && id.CanScan()
	case SectionAdmin:
		return id.IsAuth && id.IsAdmin
	default:
		return true
	}
}

func (m Model) visibleSections() []Section {
	out := make([]Section, 0, len(allSections))
	for _, s := range allSections {
		if m.sectionVisible(s) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Model) ensureSectionVisible() {
	if !m.sectionVisible(m.section) {
		m.blurAll()
		m.section = SectionOffers
	}
}

func (m *Model) cycleSection(step int) {
	sections := m.visibleSections()
	index := 0
	for i, s := range sections {
		if s == m.section {
			index = i
		}
	}
	index = (index + step + len(sections)) % len(sections)
	m.switchSection(sections[index])
}

func (m *Model) switchSection(s Section) {
	if !m.sectionVisible(s) {
		return
	}
	m.blurAll()
	m.section = s
}

func (m *Model) blurAll() {
	m.queryInput.Blur()
	m.priceInput.Blur()
	for i := range m.authInputs {
		m.authInputs[i].Blur()
	}
	m.otpInput.Blur()
	m.scanInput.Blur()
	m.formInput.Blur()
}

func (m Model) typing() bool {
	if m.section == SectionAdmin && m.sess.formOpen {
		return true
	}
	if m.queryInput.Focused() || m.priceInput.Focused() || m.otpInput.Focused() || m.scanInput.Focused() {
		return true
	}
	for _, input := range m.authInputs {
		if input.Focused() {
			return true
		}
	}
	return false
}

// signOut clears the store and every session-scoped field in one step.
func (m Model) signOut() (Model, tea.Cmd) {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clearing token failed", "error", err)
		m.alert = "Could not clear the stored session: " + err.Error()
		return m, nil
	}

	m.blurAll()
	m.sess = newSessionState()
	m.resetAuthInputs()
	m.scanInput.Reset()
	m.formInput.Reset()
	cmd := m.setToken("")
	m.logger.Info("signed out")
	return m, cmd
}

// purgeToken drops the stored token without resetting the view. It is a
// recovery path for a token the backend no longer accepts.
func (m Model) purgeToken() (Model, tea.Cmd) {
	if err := m.store.Clear(); err != nil {
		m.alert = "Could not clear the stored session: " + err.Error()
		return m, nil
	}
	m.logger.Info("token purged")
	cmd := m.setToken("")
	return m, cmd
}

// reloadToken re-reads the store and replays the token-change fetches.
func (m Model) reloadToken() (Model, tea.Cmd) {
	token, err := m.store.Load()
	if err != nil {
		m.alert = "Could not read the stored session: " + err.Error()
		return m, nil
	}
	cmd := m.setToken(token)
	return m, cmd
}

func (m *Model) resetAuthInputs() {
	for i := range m.authInputs {
		m.authInputs[i].Reset()
		m.authInputs[i].Blur()
	}
	m.authField = authEmail
	m.otpInput.Reset()
	m.otpInput.Blur()
}

// gotoAuth reveals the auth section with the first relevant input focused.
func (m *Model) gotoAuth() tea.Cmd {
	m.blurAll()
	m.section = SectionAuth
	return m.focusAuth()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case offersLoadedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		m.sess.offersLoading = false
		if msg.err != nil {
			m.logger.Warn("loading offers failed", "error", msg.err)
			return m, nil
		}
		m.sess.offers = nonNil(msg.offers)
		m.sess.offerCursor = clampCursor(m.sess.offerCursor, len(m.visibleOffers()))
		return m, nil

	case profileLoadedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			// The token survives a profile failure: signed in, roles unknown.
			m.logger.Warn("loading profile failed", "error", msg.err)
			m.sess.profile = nil
		} else {
			m.sess.profile = msg.profile
		}
		m.sess.identity = session.Derive(m.token, m.sess.profile)
		m.ensureSectionVisible()
		cmd := m.adminEffect(false)
		return m, cmd

	case ordersLoadedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("loading orders failed", "error", msg.err)
			return m, nil
		}
		m.sess.orders = nonNil(msg.orders)
		m.sess.orderCursor = clampCursor(m.sess.orderCursor, len(m.sess.orders))
		return m, nil

	case salesLoadedMsg:
		if !m.adminGen.IsCurrent(msg.gen) {
			return m, nil
		}
		m.sess.adminLoading = false
		if msg.err != nil {
			m.sess.adminErr = msg.err.Error()
			return m, nil
		}
		m.sess.adminErr = ""
		if msg.sales != nil {
			m.sess.sales = *msg.sales
		}
		return m, nil

	case adminOffersLoadedMsg:
		if !m.adminGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("loading admin offers failed", "error", msg.err)
			return m, nil
		}
		m.sess.adminOffers = nonNil(msg.offers)
		m.sess.adminCursor = clampCursor(m.sess.adminCursor, len(m.sess.adminOffers))
		return m, nil

	case authDoneMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		return m.handleAuthDone(msg)

	case otpDoneMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		return m.handleOTPDone(msg)

	case checkoutDoneMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		return m.handleCheckoutDone(msg)

	case ticketsLoadedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		return m.handleTicketsLoaded(msg)

	case qrLoadedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.alert = "Could not load the QR code: " + msg.err.Error()
			return m, nil
		}
		m.sess.qrTicketID = msg.ticketID
		m.sess.qrArt = msg.art
		return m, nil

	case scanDoneMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		m.handleScanDone(msg)
		return m, nil

	case offerSavedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.alert = "Could not save the offer: " + msg.err.Error()
			return m, nil
		}
		m.sess.adminOffers = nonNil(msg.offers)
		m.closeForm()
		return m, nil

	case offerDeletedMsg:
		if !m.tokenGen.IsCurrent(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.alert = "Could not delete the offer: " + msg.err.Error()
			return m, nil
		}
		m.sess.adminOffers = nonNil(msg.offers)
		m.sess.adminCursor = clampCursor(m.sess.adminCursor, len(m.sess.adminOffers))
		return m, nil

	case logRecordMsg:
		m.status = msg.Summary
		m.statusLevel = msg.Level
		return m, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{summary: msg.Summary}
		})

	case logRecordFadeMsg:
		if m.status == msg.summary {
			m.status = ""
		}
		return m, nil

	case clipboardFadeMsg:
		m.clipboardNotice = ""
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.alert != "" {
		if key.Matches(msg, m.keys.Select) || key.Matches(msg, m.keys.Blur) {
			m.alert = ""
		}
		return m, nil
	}

	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			dialog := m.confirm
			m.confirm = nil
			cmd := dialog.accept(&m)
			return m, cmd
		case key.Matches(msg, m.keys.Cancel):
			m.confirm = nil
		}
		return m, nil
	}

	if m.typing() {
		switch m.section {
		case SectionOffers:
			return m.handleOffersInput(msg)
		case SectionAuth:
			return m.handleAuthInput(msg)
		case SectionGate:
			return m.handleGateInput(msg)
		case SectionAdmin:
			return m.handleFormKey(msg)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextSection):
		m.cycleSection(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevSection):
		m.cycleSection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Offers):
		m.switchSection(SectionOffers)
		return m, nil
	case key.Matches(msg, m.keys.Orders):
		m.switchSection(SectionOrders)
		return m, nil
	case key.Matches(msg, m.keys.Auth):
		m.switchSection(SectionAuth)
		return m, nil
	case key.Matches(msg, m.keys.Gate):
		m.switchSection(SectionGate)
		return m, nil
	case key.Matches(msg, m.keys.Admin):
		m.switchSection(SectionAdmin)
		return m, nil
	case key.Matches(msg, m.keys.SignOut):
		if m.token == "" {
			return m, nil
		}
		return m.signOut()
	case key.Matches(msg, m.keys.Purge):
		return m.purgeToken()
	case key.Matches(msg, m.keys.Reload):
		return m.reloadToken()
	}

	switch m.section {
	case SectionOffers:
		return m.handleOffersKey(msg)
	case SectionOrders:
		return m.handleOrdersKey(msg)
	case SectionAuth:
		return m.handleAuthKey(msg)
	case SectionGate:
		return m.handleGateKey(msg)
	case SectionAdmin:
		return m.handleAdminKey(msg)
	}
	return m, nil
}

func clampCursor(cursor int, length int) int {
	if length == 0 || cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}

func moveCursor(cursor int, delta int, length int) int {
	return clampCursor(cursor+delta, length)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func isNotAuthenticated(err error) bool {
	return errors.Is(err, model.ErrNotAuthenticated)
}
