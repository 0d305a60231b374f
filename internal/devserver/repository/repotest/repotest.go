// Package repotest holds the behaviour every repository.Stores
// implementation must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
)

// Run executes the suite. newStores must return empty stores on every
// call.
func Run(t *testing.T, newStores func(t *testing.T) repository.Stores) {
	t.Run("UserEmailIsUnique", func(t *testing.T) { userEmailIsUnique(t, newStores(t)) })
	t.Run("OTPConsumesOnce", func(t *testing.T) { otpConsumesOnce(t, newStores(t)) })
	t.Run("OTPReplacedByNewCode", func(t *testing.T) { otpReplacedByNewCode(t, newStores(t)) })
	t.Run("OfferCodeConflicts", func(t *testing.T) { offerCodeConflicts(t, newStores(t)) })
	t.Run("OfferDeleteGuard", func(t *testing.T) { offerDeleteGuard(t, newStores(t)) })
	t.Run("OrderLifecycle", func(t *testing.T) { orderLifecycle(t, newStores(t)) })
}

func userEmailIsUnique(t *testing.T, stores repository.Stores) {
	ctx := context.Background()

	created, err := stores.Users.Create(ctx, repository.User{Email: " Fan@JO.fr ", PasswordHash: "x", Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "fan@jo.fr", created.Email)
	assert.NotEmpty(t, created.Key)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = stores.Users.Create(ctx, repository.User{Email: "fan@jo.fr", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	found, err := stores.Users.FindByEmail(ctx, "FAN@jo.fr")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.Key, found.Key)

	found.Roles[0] = "ROLE_ADMIN"
	again, err := stores.Users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, again.Roles)

	_, err = stores.Users.FindByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = stores.Users.FindByEmail(ctx, "nobody@jo.fr")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func usable(now time.Time) func(repository.OTPCode) error {
	return func(code repository.OTPCode) error {
		if !code.Usable(now) {
			return errors.New("spent")
		}
		return nil
	}
}

func otpConsumesOnce(t *testing.T, stores repository.Stores) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, stores.OTPs.Store(ctx, repository.OTPCode{Email: "fan@jo.fr", Code: "123456", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, stores.OTPs.Store(ctx, repository.OTPCode{Email: "late@jo.fr", Code: "654321", ExpiresAt: now.Add(-time.Second)}))

	require.NoError(t, stores.OTPs.ConsumeLatest(ctx, "FAN@jo.fr", now, usable(now)))
	assert.EqualError(t, stores.OTPs.ConsumeLatest(ctx, "fan@jo.fr", now, usable(now)), "spent")
	assert.EqualError(t, stores.OTPs.ConsumeLatest(ctx, "late@jo.fr", now, usable(now)), "spent")
	assert.ErrorIs(t, stores.OTPs.ConsumeLatest(ctx, "other@jo.fr", now, usable(now)), repository.ErrNotFound)

	removed, err := stores.OTPs.CleanExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.ErrorIs(t, stores.OTPs.ConsumeLatest(ctx, "fan@jo.fr", now, usable(now)), repository.ErrNotFound)
}

func otpReplacedByNewCode(t *testing.T, stores repository.Stores) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, stores.OTPs.Store(ctx, repository.OTPCode{Email: "fan@jo.fr", Code: "111111", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, stores.OTPs.Store(ctx, repository.OTPCode{Email: "fan@jo.fr", Code: "222222", ExpiresAt: now.Add(time.Minute)}))

	var seen string
	require.NoError(t, stores.OTPs.ConsumeLatest(ctx, "fan@jo.fr", now, func(code repository.OTPCode) error {
		seen = code.Code
		return nil
	}))
	assert.Equal(t, "222222", seen)

	// A failed check leaves the code redeemable.
	require.NoError(t, stores.OTPs.Store(ctx, repository.OTPCode{Email: "fan@jo.fr", Code: "333333", ExpiresAt: now.Add(time.Minute)}))
	assert.EqualError(t, stores.OTPs.ConsumeLatest(ctx, "fan@jo.fr", now, func(repository.OTPCode) error { return errors.New("wrong code") }), "wrong code")
	require.NoError(t, stores.OTPs.ConsumeLatest(ctx, "fan@jo.fr", now, usable(now)))
}

func offerCodeConflicts(t *testing.T, stores repository.Stores) {
	ctx := context.Background()

	solo, err := stores.Offers.Create(ctx, model.OfferInput{Code: " SOLO ", Name: " Billet Solo ", Seats: 1, PriceCents: 2500, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "SOLO", solo.Code)
	assert.Equal(t, "Billet Solo", solo.Name)
	assert.True(t, solo.Active)

	_, err = stores.Offers.Create(ctx, model.OfferInput{Code: "solo", Name: "Clash", Seats: 1})
	assert.ErrorIs(t, err, repository.ErrConflict)

	duo, err := stores.Offers.Create(ctx, model.OfferInput{Code: "DUO", Name: "Billet Duo", Seats: 2})
	require.NoError(t, err)
	assert.False(t, duo.Active)

	_, err = stores.Offers.Update(ctx, duo.ID, model.OfferInput{Code: "Solo", Name: "Billet Duo", Seats: 2})
	assert.ErrorIs(t, err, repository.ErrConflict)

	renamed, err := stores.Offers.Update(ctx, duo.ID, model.OfferInput{Code: "duo", Name: "Duo+", Seats: 2, PriceCents: 4500})
	require.NoError(t, err)
	assert.Equal(t, "Duo+", renamed.Name)
	assert.Equal(t, "duo", renamed.Code)

	_, err = stores.Offers.Update(ctx, duo.ID+100, model.OfferInput{Code: "X", Name: "X", Seats: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	activated, err := stores.Offers.SetActive(ctx, duo.ID, true)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	_, err = stores.Offers.SetActive(ctx, duo.ID+100, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	offers, err := stores.Offers.List(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, solo.ID, offers[0].ID)
	assert.Equal(t, int64(4500), offers[1].PriceCents)

	found, err := stores.Offers.Find(ctx, solo.ID)
	require.NoError(t, err)
	assert.Equal(t, solo, found)
}

func offerDeleteGuard(t *testing.T, stores repository.Stores) {
	ctx := context.Background()
	offer, err := stores.Offers.Create(ctx, model.OfferInput{Code: "SOLO", Name: "Billet Solo", Seats: 1})
	require.NoError(t, err)

	inUse := func(int64) (bool, error) { return true, nil }
	unused := func(int64) (bool, error) { return false, nil }
	failing := errors.New("lookup failed")

	assert.ErrorIs(t, stores.Offers.Delete(ctx, offer.ID, inUse), repository.ErrConflict)
	assert.ErrorIs(t, stores.Offers.Delete(ctx, offer.ID, func(int64) (bool, error) { return false, failing }), failing)
	require.NoError(t, stores.Offers.Delete(ctx, offer.ID, unused))
	assert.ErrorIs(t, stores.Offers.Delete(ctx, offer.ID, nil), repository.ErrNotFound)
}

func orderLifecycle(t *testing.T, stores repository.Stores) {
	ctx := context.Background()

	buyer, err := stores.Users.Create(ctx, repository.User{Email: "buyer@jo.fr", PasswordHash: "x", Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)
	other, err := stores.Users.Create(ctx, repository.User{Email: "other@jo.fr", PasswordHash: "x", Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)
	duo, err := stores.Offers.Create(ctx, model.OfferInput{Code: "DUO", Name: "Billet Duo", Seats: 2, Active: true})
	require.NoError(t, err)
	family, err := stores.Offers.Create(ctx, model.OfferInput{Code: "FAMILY", Name: "Billet Famille", Seats: 4, Active: true})
	require.NoError(t, err)
	unsold, err := stores.Offers.Create(ctx, model.OfferInput{Code: "SOLO", Name: "Billet Solo", Seats: 1, Active: true})
	require.NoError(t, err)

	first, tickets, err := stores.Orders.Create(ctx, repository.Order{UserID: buyer.ID}, []repository.Ticket{
		{OfferID: duo.ID, FinalKey: "k1"},
		{OfferID: duo.ID, FinalKey: "k2"},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, first.ID, tickets[0].OrderID)
	assert.Equal(t, buyer.ID, tickets[1].UserID)
	assert.Less(t, tickets[0].ID, tickets[1].ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, _, err := stores.Orders.Create(ctx, repository.Order{UserID: buyer.ID}, []repository.Ticket{{OfferID: family.ID, FinalKey: "k3"}})
	require.NoError(t, err)

	_, _, err = stores.Orders.Create(ctx, repository.Order{UserID: buyer.ID}, []repository.Ticket{{OfferID: family.ID, FinalKey: "k3"}})
	assert.ErrorIs(t, err, repository.ErrConflict)

	orders, err := stores.Orders.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	none, err := stores.Orders.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	found, err := stores.Orders.FindOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, found.UserID)
	_, err = stores.Orders.FindOrder(ctx, second.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	listed, err := stores.Orders.TicketsByOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Less(t, listed[0].ID, listed[1].ID)
	assert.Equal(t, "k1", listed[0].FinalKey)

	byID, err := stores.Orders.FindTicket(ctx, tickets[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "k2", byID.FinalKey)
	_, err = stores.Orders.FindTicket(ctx, tickets[1].ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	byKey, err := stores.Orders.FindTicketByKey(ctx, "k3")
	require.NoError(t, err)
	assert.Equal(t, family.ID, byKey.OfferID)
	assert.Nil(t, byKey.ConsumedAt)
	_, err = stores.Orders.FindTicketByKey(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	consumed, err := stores.Orders.ConsumeOnce(ctx, "k1", time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, consumed.ConsumedAt)
	assert.Equal(t, tickets[0].ID, consumed.ID)

	_, err = stores.Orders.ConsumeOnce(ctx, "k1", time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = stores.Orders.ConsumeOnce(ctx, "missing", time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stamped, err := stores.Orders.FindTicketByKey(ctx, "k1")
	require.NoError(t, err)
	assert.NotNil(t, stamped.ConsumedAt)

	used, err := stores.Orders.HasTicketsForOffer(ctx, duo.ID)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = stores.Orders.HasTicketsForOffer(ctx, unsold.ID)
	require.NoError(t, err)
	assert.False(t, used)

	counts, err := stores.Orders.CountByOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, []repository.OfferCount{{OfferID: duo.ID, Count: 2}, {OfferID: family.ID, Count: 1}}, counts)
}
