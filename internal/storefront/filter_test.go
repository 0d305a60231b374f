package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/model"
)

func sampleOffers() []model.Offer {
	return []model.Offer{
		{ID: 1, Code: "SOLO", Name: "Billet Solo", Description: "Une place", PriceCents: 2500, Seats: 1, Active: true},
		{ID: 2, Code: "FAMILY", Name: "Pack Familial", Description: "Quatre places", PriceCents: 8000, Seats: 4, Active: true},
		{ID: 3, Code: "DUO", Name: "Duo", Description: "Deux places", PriceCents: 4500, Seats: 2, Active: true},
		{ID: 4, Code: "SOLO-VIP", Name: "Solo VIP", Description: "Loge", PriceCents: 12000, Seats: 1, Active: false},
		{ID: 5, Code: "PROMO", Name: "Promo", Description: "Duo promo", PriceCents: 4500, Seats: 2, Active: true},
	}
}

func ids(offers []model.Offer) []int64 {
	out := make([]int64, 0, len(offers))
	for _, offer := range offers {
		out = append(out, offer.ID)
	}
	return out
}

func TestApplySortModes(t *testing.T) {
	offers := sampleOffers()

	asc := Apply(offers, Filter{Sort: SortPriceAsc})
	for i := 1; i < len(asc); i++ {
		assert.LessOrEqual(t, asc[i-1].PriceCents, asc[i].PriceCents)
	}

	desc := Apply(offers, Filter{Sort: SortPriceDesc})
	for i := 1; i < len(desc); i++ {
		assert.GreaterOrEqual(t, desc[i-1].PriceCents, desc[i].PriceCents)
	}

	seats := Apply(offers, Filter{Sort: SortSeats})
	for i := 1; i < len(seats); i++ {
		assert.LessOrEqual(t, seats[i-1].Seats, seats[i].Seats)
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(Apply(offers, Filter{Sort: SortDefault})))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(Apply(offers, Filter{})))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	offers := sampleOffers()
	_ = Apply(offers, Filter{Sort: SortPriceDesc})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(offers))
}

func TestApplyQueryMatchesNameDescriptionAndCode(t *testing.T) {
	offers := sampleOffers()

	assert.Equal(t, []int64{1, 4}, ids(Apply(offers, Filter{Query: "solo"})))
	assert.Equal(t, []int64{3, 5}, ids(Apply(offers, Filter{Query: "DUO"})))
	assert.Equal(t, []int64{2}, ids(Apply(offers, Filter{Query: "quatre"})))
	assert.Equal(t, []int64{2}, ids(Apply(offers, Filter{Query: "family"})))
	assert.Empty(t, Apply(offers, Filter{Query: "nothing matches"}))
}

func TestApplyQueryKeepsSurroundingSpaces(t *testing.T) {
	offers := sampleOffers()

	assert.Equal(t, []int64{1, 2, 3}, ids(Apply(offers, Filter{Query: "place"})))
	assert.Equal(t, []int64{1}, ids(Apply(offers, Filter{Query: "place "})))
}

func TestApplySeatsAndPrice(t *testing.T) {
	offers := sampleOffers()

	assert.Equal(t, []int64{3, 5}, ids(Apply(offers, Filter{Seats: "2"})))
	assert.Len(t, Apply(offers, Filter{Seats: "all"}), 5)
	assert.Len(t, Apply(offers, Filter{Seats: "x"}), 5)

	assert.Equal(t, []int64{1, 3, 5}, ids(Apply(offers, Filter{MaxPriceEuros: "45"})))
	assert.Equal(t, []int64{1}, ids(Apply(offers, Filter{MaxPriceEuros: "44,99"})))
	assert.Len(t, Apply(offers, Filter{MaxPriceEuros: "cheap"}), 5)

	got := Apply(offers, Filter{Seats: "1", MaxPriceEuros: "100", Sort: SortPriceDesc})
	assert.Equal(t, []int64{1}, ids(got))
}

func TestApplyIsIdempotent(t *testing.T) {
	filters := []Filter{
		{Query: "o"},
		{Seats: "2", Sort: SortPriceAsc},
		{MaxPriceEuros: "50", Sort: SortSeats},
		{Query: "pack", Seats: "4", MaxPriceEuros: "80", Sort: SortPriceDesc},
	}

	for _, f := range filters {
		once := Apply(sampleOffers(), f)
		twice := Apply(once, f)
		require.Equal(t, ids(once), ids(twice), "filter %+v", f)
	}
}

func TestSeatOptions(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4}, SeatOptions(sampleOffers()))
	assert.Empty(t, SeatOptions(nil))
}

func TestSortCycle(t *testing.T) {
	assert.Equal(t, SortPriceAsc, SortDefault.Next())
	assert.Equal(t, SortDefault, SortSeats.Next())
	assert.Equal(t, SortPriceDesc, ParseSort("pricedesc"))
	assert.Equal(t, SortDefault, ParseSort("bogus"))
}

func TestMaxPriceBoundaryIsInclusive(t *testing.T) {
	offers := []model.Offer{
		{ID: 1, PriceCents: 2999},
		{ID: 2, PriceCents: 3000},
		{ID: 3, PriceCents: 1090},
	}

	assert.Equal(t, []int64{1, 3}, ids(Apply(offers, Filter{MaxPriceEuros: "29.99"})))
	assert.Equal(t, []int64{3}, ids(Apply(offers, Filter{MaxPriceEuros: " 10,9 "})))
	assert.Empty(t, Apply(offers, Filter{MaxPriceEuros: "10.899"}))
}
