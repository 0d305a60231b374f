package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"ticketing-front/internal/authflow"
	"ticketing-front/internal/fsutil"
	"ticketing-front/internal/model"
	"ticketing-front/internal/qrview"
	"ticketing-front/internal/session"
	"ticketing-front/internal/storefront"
)

var errTicketInvalid = errors.New("ticket is not valid")

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func runOffers(ctx context.Context, a *app, args []string) error {
	var filter storefront.Filter
	var sortMode string

	flagSet := newFlags("offers", a)
	flagSet.StringVar(&filter.Query, "query", "", "match name, description or code")
	flagSet.StringVar(&filter.Seats, "seats", "all", "exact seat count")
	flagSet.StringVar(&filter.MaxPriceEuros, "max-price", "", "maximum price in euros")
	flagSet.StringVar(&sortMode, "sort", "default", "default, priceAsc, priceDesc or seats")
	if _, err := parseArgs(flagSet, args); err != nil {
		return err
	}
	filter.Sort = storefront.ParseSort(sortMode)

	// The catalog is public; a stored token is sent when present.
	token, err := a.store.Load()
	if err != nil {
		return err
	}
	offers, err := a.client.Offers(ctx, token)
	if err != nil {
		return err
	}

	rows := [][]string{}
	for _, offer := range storefront.Apply(offers, filter) {
		status := "on sale"
		if !offer.Active {
			status = "unavailable"
		}
		rows = append(rows, []string{
			strconv.FormatInt(offer.ID, 10), offer.Code, offer.Name,
			strconv.Itoa(offer.Seats), offer.PriceEuros() + " €", status,
		})
	}
	printTable(a.stdout, []string{"ID", "CODE", "NAME", "SEATS", "PRICE", "STATUS"}, rows)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	var req model.RegisterRequest
	flagSet := newFlags("register", a)
	flagSet.StringVar(&req.Email, "email", "", "account email")
	flagSet.StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	flagSet.StringVar(&req.FirstName, "first-name", "", "first name")
	flagSet.StringVar(&req.LastName, "last-name", "", "last name")
	if _, err := parseArgs(flagSet, args); err != nil {
		return err
	}

	if err := a.credentials(&req.Email, &req.Password); err != nil {
		return err
	}
	if _, err := a.client.Register(ctx, req); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if _, err := a.client.Login(ctx, model.LoginRequest{Email: req.Email, Password: req.Password}); err != nil {
		return err
	}
	a.printCodeSent(req.Email)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	var req model.LoginRequest
	flagSet := newFlags("login", a)
	flagSet.StringVar(&req.Email, "email", "", "account email")
	flagSet.StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	if _, err := parseArgs(flagSet, args); err != nil {
		return err
	}

	if err := a.credentials(&req.Email, &req.Password); err != nil {
		return err
	}
	if _, err := a.client.Login(ctx, req); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	a.printCodeSent(req.Email)
	return nil
}

func (a *app) printCodeSent(email string) {
	fmt.Fprintf(a.stdout, "A code has been sent to %s.\nComplete with: ticketing otp --email %s --code NNNNNN\n", email, email)
}

// credentials fills a missing password from the terminal. Without a
// terminal both values must come from flags.
func (a *app) credentials(email *string, password *string) error {
	*email = strings.TrimSpace(*email)
	if *email == "" {
		return errors.New("--email is required")
	}
	if *password != "" {
		return nil
	}

	file, ok := a.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return errors.New("--password is required when not on a terminal")
	}
	fmt.Fprint(a.stderr, "Password: ")
	raw, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	*password = string(raw)
	if *password == "" {
		return errors.New("password cannot be empty")
	}
	return nil
}

func runOTP(ctx context.Context, a *app, args []string) error {
	var email, code string
	flagSet := newFlags("otp", a)
	flagSet.StringVar(&email, "email", "", "email the code was sent to")
	flagSet.StringVar(&code, "code", "", "the 6-digit code (read from stdin when omitted)")
	if _, err := parseArgs(flagSet, args); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("--email is required")
	}
	if code == "" {
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read code: %w", err)
		}
		code = line
	}

	code = authflow.NormalizeOTP(code)
	if !authflow.CanSubmitOTP(code) {
		return fmt.Errorf("the code must be %d digits", authflow.OTPLength)
	}

	token, err := a.client.VerifyOTP(ctx, model.OTPVerifyRequest{Email: email, Code: code})
	if err != nil {
		a.logger.Debug("otp verification failed", "error", err)
		return errors.New(authflow.InvalidCodeMessage)
	}
	if err := a.store.Save(token); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Signed in as %s.\n", email)
	return nil
}

func runLogout(_ context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlags("logout", a), args); err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Signed out.")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlags("whoami", a), args); err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	profile, err := a.client.Me(ctx, token)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	id := session.Derive(token, profile)

	fmt.Fprintf(a.stdout, "User:  %s\n", profile.DisplayName())
	fmt.Fprintf(a.stdout, "Roles: %s\n", strings.Join(id.Roles.Sorted(), ", "))
	fmt.Fprintf(a.stdout, "Admin: %t  Gate: %t\n", id.IsAdmin, id.CanScan())
	if claims, ok := session.ParseClaims(token); ok && !claims.ExpiresAt.IsZero() {
		state := ""
		if claims.Expired(time.Now()) {
			state = " (expired)"
		}
		fmt.Fprintf(a.stdout, "Expiry: %s%s\n", claims.ExpiresAt.Local().Format(time.RFC3339), state)
	}
	return nil
}

func runOrders(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlags("orders", a), args); err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	orders, err := a.client.Orders(ctx, token)
	if err != nil {
		return err
	}

	rows := [][]string{}
	for _, order := range orders {
		created := ""
		if !order.CreatedAt.IsZero() {
			created = order.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{strconv.FormatInt(order.ID, 10), created})
	}
	printTable(a.stdout, []string{"ORDER", "CREATED"}, rows)
	return nil
}

func runTickets(ctx context.Context, a *app, args []string) error {
	var qrDir string
	flagSet := newFlags("tickets", a)
	flagSet.StringVar(&qrDir, "qr-dir", "", "also save every ticket's QR code as a PNG in this directory")
	rest, err := parseArgs(flagSet, args, "ORDER_ID")
	if err != nil {
		return err
	}
	orderID, err := parseID(rest[0])
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	tickets, err := a.client.OrderTickets(ctx, token, orderID)
	if err != nil {
		return err
	}
	printTickets(a.stdout, tickets)

	if qrDir == "" {
		return nil
	}
	written, err := exportQRCodes(ctx, a, token, qrDir, tickets)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%d QR code(s) written to %s.\n", written, qrDir)
	return nil
}

// exportQRCodes writes one PNG per ticket, named after the offer code. The
// inline image is used when the backend sent one.
func exportQRCodes(ctx context.Context, a *app, token string, dir string, tickets []model.Ticket) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}

	codes := map[int64]string{}
	if offers, err := a.client.Offers(ctx, token); err == nil {
		for _, offer := range offers {
			codes[offer.ID] = offer.Code
		}
	} else {
		slog.Debug("offer codes unavailable for file names", "error", err)
	}

	written := 0
	for _, ticket := range tickets {
		data, ok, err := ticket.InlineQRCode()
		if err != nil || !ok {
			data, err = a.client.TicketQR(ctx, token, ticket.ID)
			if err != nil {
				return written, fmt.Errorf("ticket %d: %w", ticket.ID, err)
			}
		}
		if !fsutil.IsPNG(data) {
			return written, fmt.Errorf("ticket %d: backend did not return a PNG", ticket.ID)
		}

		label := "ticket"
		if ticket.OfferID != nil && codes[*ticket.OfferID] != "" {
			label = codes[*ticket.OfferID]
		}
		name, err := fsutil.SafeFilename(fmt.Sprintf("%s-%d.png", label, ticket.ID))
		if err != nil {
			name = fmt.Sprintf("ticket-%d.png", ticket.ID)
		}

		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written++
	}
	return written, nil
}

func printTickets(w io.Writer, tickets []model.Ticket) {
	rows := [][]string{}
	for _, ticket := range tickets {
		offer := ""
		if ticket.OfferID != nil {
			offer = strconv.FormatInt(*ticket.OfferID, 10)
		}
		consumed := "no"
		if ticket.Consumed() {
			consumed = ticket.ConsumedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{strconv.FormatInt(ticket.ID, 10), offer, ticket.Key(), consumed})
	}
	printTable(w, []string{"TICKET", "OFFER", "KEY", "CONSUMED"}, rows)
}

func runQR(ctx context.Context, a *app, args []string) error {
	var output string
	var width int
	flagSet := newFlags("qr", a)
	flagSet.StringVarP(&output, "output", "o", "", "write the PNG to this file instead of printing it")
	flagSet.IntVar(&width, "width", 48, "maximum width in columns when printing")
	rest, err := parseArgs(flagSet, args, "TICKET_ID")
	if err != nil {
		return err
	}
	ticketID, err := parseID(rest[0])
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	data, err := a.client.TicketQR(ctx, token, ticketID)
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Fprintf(a.stdout, "QR code written to %s.\n", output)
		return nil
	}

	art, err := qrview.Render(data, qrview.Options{MaxWidth: width, Invert: true})
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, art)
	return nil
}

func runCheckout(ctx context.Context, a *app, args []string) error {
	var quantity int
	flagSet := newFlags("checkout", a)
	flagSet.IntVarP(&quantity, "quantity", "q", 1, "how many to buy")
	rest, err := parseArgs(flagSet, args, "OFFER_ID")
	if err != nil {
		return err
	}
	offerID, err := parseID(rest[0])
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	result, err := a.client.Checkout(ctx, token, []model.CheckoutItem{{OfferID: offerID, Quantity: max(1, quantity)}})
	if err != nil {
		return fmt.Errorf("purchase failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Order #%d confirmed.\n", result.OrderID)
	if len(result.Tickets) > 0 {
		printTickets(a.stdout, result.Tickets)
	}
	return nil
}

func runVerify(ctx context.Context, a *app, args []string) error {
	rest, err := parseArgs(newFlags("verify", a), args, "KEY")
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	valid, err := a.client.VerifyTicket(ctx, token, strings.TrimSpace(rest[0]))
	if err != nil {
		return err
	}
	if !valid {
		return errTicketInvalid
	}
	fmt.Fprintln(a.stdout, "Ticket is valid.")
	return nil
}

func runConsume(ctx context.Context, a *app, args []string) error {
	rest, err := parseArgs(newFlags("consume", a), args, "KEY")
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	if err := a.client.ConsumeTicket(ctx, token, strings.TrimSpace(rest[0])); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Ticket consumed. Entry granted.")
	return nil
}

func runSales(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlags("sales", a), args); err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	sales, err := a.client.AdminSales(ctx, token)
	if err != nil {
		return err
	}

	rows := [][]string{}
	for _, row := range sales.ByOffer {
		rows = append(rows, []string{strconv.FormatInt(row.OfferID, 10), row.OfferName, strconv.FormatInt(row.TicketsSold, 10)})
	}
	printTable(a.stdout, []string{"OFFER", "NAME", "SOLD"}, rows)
	fmt.Fprintf(a.stdout, "Total tickets sold: %d\n", sales.Total)
	return nil
}

func runAdminOffers(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlags("admin-offers", a), args); err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	offers, err := a.client.AdminListOffers(ctx, token)
	if err != nil {
		return err
	}

	rows := [][]string{}
	for _, offer := range offers {
		rows = append(rows, []string{
			strconv.FormatInt(offer.ID, 10), offer.Code, offer.Name,
			strconv.Itoa(offer.Seats), offer.PriceEuros() + " €", strconv.FormatBool(offer.Active),
		})
	}
	printTable(a.stdout, []string{"ID", "CODE", "NAME", "SEATS", "PRICE", "ACTIVE"}, rows)
	return nil
}

func runAdminDelete(ctx context.Context, a *app, args []string) error {
	rest, err := parseArgs(newFlags("admin-delete", a), args, "ID")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	if err := a.client.AdminDeleteOffer(ctx, token, id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Offer #%d deleted.\n", id)
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", model.ErrInvalidInput, raw)
	}
	return id, nil
}
