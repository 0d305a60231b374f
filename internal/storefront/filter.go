package storefront

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ticketing-front/internal/model"
)

type Sort string

const (
	SortDefault   Sort = "default"
	SortPriceAsc  Sort = "priceAsc"
	SortPriceDesc Sort = "priceDesc"
	SortSeats     Sort = "seats"
)

var sortCycle = []Sort{SortDefault, SortPriceAsc, SortPriceDesc, SortSeats}

// ParseSort maps a mode name to a Sort, falling back to SortDefault.
func ParseSort(raw string) Sort {
	for _, mode := range sortCycle {
		if strings.EqualFold(raw, string(mode)) {
			return mode
		}
	}
	return SortDefault
}

// Next returns the following mode in the selector cycle.
func (s Sort) Next() Sort {
	for i, mode := range sortCycle {
		if mode == s {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return SortDefault
}

func (s Sort) Label() string {
	switch s {
	case SortPriceAsc:
		return "price ↑"
	case SortPriceDesc:
		return "price ↓"
	case SortSeats:
		return "seats"
	default:
		return "default"
	}
}

// Filter holds the storefront selections as typed by the user. Seats and
// MaxPriceEuros stay strings so an empty or unparseable entry means unset.
type Filter struct {
	Query         string
	Seats         string
	MaxPriceEuros string
	Sort          Sort
}

// Matches reports whether a single offer passes the query, seat and
// price predicates.
func (f Filter) Matches(offer model.Offer) bool {
	// Spaces in the query are significant, as typed.
	if q := strings.ToLower(f.Query); q != "" {
		haystack := strings.ToLower(offer.Name + " " + offer.Description + " " + offer.Code)
		if !strings.Contains(haystack, q) {
			return false
		}
	}

	if seats, ok := f.seats(); ok && offer.Seats != seats {
		return false
	}

	if ceiling, ok := f.maxPrice(); ok && decimal.New(offer.PriceCents, -2).GreaterThan(ceiling) {
		return false
	}

	return true
}

// Apply filters then sorts. The input slice is never modified.
func Apply(offers []model.Offer, f Filter) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	for _, offer := range offers {
		if f.Matches(offer) {
			out = append(out, offer)
		}
	}

	switch f.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceCents > out[j].PriceCents })
	case SortSeats:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Seats < out[j].Seats })
	}

	return out
}

// SeatOptions lists the distinct seat counts in ascending order, for the
// seat selector.
func SeatOptions(offers []model.Offer) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, offer := range offers {
		if _, ok := seen[offer.Seats]; ok {
			continue
		}
		seen[offer.Seats] = struct{}{}
		out = append(out, offer.Seats)
	}
	sort.Ints(out)
	return out
}

func (f Filter) seats() (int, bool) {
	raw := strings.TrimSpace(f.Seats)
	if raw == "" || strings.EqualFold(raw, "all") {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// maxPrice reads the ceiling in euros. A comma is accepted as the decimal
// separator.
func (f Filter) maxPrice() (decimal.Decimal, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(f.MaxPriceEuros), ",", ".")
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
