package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
)

const offerColumns = `id, code, name, description, price_cents, seats, active`

type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

func (r *OfferRepository) List(ctx context.Context) ([]model.Offer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows, "scan offer")
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}

func (r *OfferRepository) Find(ctx context.Context, id int64) (model.Offer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	return scanOffer(row, "find offer")
}

func (r *OfferRepository) Create(ctx context.Context, input model.OfferInput) (model.Offer, error) {
	input = trimInput(input)
	row := r.pool.QueryRow(ctx,
		`INSERT INTO offers (code, name, description, price_cents, seats, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+offerColumns,
		input.Code, input.Name, input.Description, input.PriceCents, input.Seats, input.Active)
	return scanOffer(row, "create offer")
}

func (r *OfferRepository) Update(ctx context.Context, id int64, input model.OfferInput) (model.Offer, error) {
	input = trimInput(input)
	row := r.pool.QueryRow(ctx,
		`UPDATE offers
		 SET code = $2, name = $3, description = $4, price_cents = $5, seats = $6, active = $7
		 WHERE id = $1
		 RETURNING `+offerColumns,
		id, input.Code, input.Name, input.Description, input.PriceCents, input.Seats, input.Active)
	return scanOffer(row, "update offer")
}

func (r *OfferRepository) SetActive(ctx context.Context, id int64, active bool) (model.Offer, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE offers SET active = $2 WHERE id = $1 RETURNING `+offerColumns, id, active)
	return scanOffer(row, "set offer active")
}

// Delete locks the offer row while inUse runs. A ticket referencing the
// offer still maps to ErrConflict through the foreign key.
func (r *OfferRepository) Delete(ctx context.Context, id int64, inUse func(int64) (bool, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete offer: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM offers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock offer: %w", err)
	}

	if inUse != nil {
		used, err := inUse(id)
		if err != nil {
			return err
		}
		if used {
			return repository.ErrConflict
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id); err != nil {
		if hasCode(err, foreignKeyViolation) {
			return repository.ErrConflict
		}
		return fmt.Errorf("delete offer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete offer: %w", err)
	}
	return nil
}

func scanOffer(row rowScanner, op string) (model.Offer, error) {
	var offer model.Offer
	err := row.Scan(&offer.ID, &offer.Code, &offer.Name, &offer.Description, &offer.PriceCents, &offer.Seats, &offer.Active)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.Offer{}, repository.ErrNotFound
	case hasCode(err, uniqueViolation):
		return model.Offer{}, repository.ErrConflict
	case err != nil:
		return model.Offer{}, fmt.Errorf("%s: %w", op, err)
	}
	return offer, nil
}

func trimInput(input model.OfferInput) model.OfferInput {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	return input
}
