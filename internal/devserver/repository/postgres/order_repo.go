package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketing-front/internal/devserver/repository"
)

const ticketSelect = `SELECT t.id, t.order_id, o.user_id, t.offer_id, t.final_key, t.consumed_at
	FROM tickets t JOIN orders o ON o.id = t.order_id`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its tickets in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order repository.Order, tickets []repository.Ticket) (repository.Order, []repository.Ticket, error) {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return repository.Order{}, nil, fmt.Errorf("begin order: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, created_at) VALUES ($1, $2) RETURNING id`,
		order.UserID, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return repository.Order{}, nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]repository.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		ticket.OrderID = order.ID
		ticket.UserID = order.UserID
		err := tx.QueryRow(ctx,
			`INSERT INTO tickets (order_id, offer_id, final_key, consumed_at)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			ticket.OrderID, ticket.OfferID, ticket.FinalKey, ticket.ConsumedAt).Scan(&ticket.ID)
		if hasCode(err, uniqueViolation) {
			return repository.Order{}, nil, repository.ErrConflict
		}
		if err != nil {
			return repository.Order{}, nil, fmt.Errorf("create ticket: %w", err)
		}
		created = append(created, ticket)
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.Order{}, nil, fmt.Errorf("commit order: %w", err)
	}
	return order, created, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]repository.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []repository.Order{}
	for rows.Next() {
		order, err := scanOrder(rows, "scan order")
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) FindOrder(ctx context.Context, id int64) (repository.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, created_at FROM orders WHERE id = $1`, id)
	return scanOrder(row, "find order")
}

func (r *OrderRepository) TicketsByOrder(ctx context.Context, orderID int64) ([]repository.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.order_id = $1 ORDER BY t.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []repository.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows, "scan ticket")
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

func (r *OrderRepository) FindTicket(ctx context.Context, id int64) (repository.Ticket, error) {
	row := r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id = $1`, id)
	return scanTicket(row, "find ticket")
}

func (r *OrderRepository) FindTicketByKey(ctx context.Context, key string) (repository.Ticket, error) {
	row := r.pool.QueryRow(ctx, ticketSelect+` WHERE t.final_key = $1`, key)
	return scanTicket(row, "find ticket by key")
}

// ConsumeOnce stamps an unconsumed ticket in a single statement. A missing
// or already consumed ticket yields ErrNotFound.
func (r *OrderRepository) ConsumeOnce(ctx context.Context, key string, now time.Time) (repository.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tickets t SET consumed_at = $2
		 FROM orders o
		 WHERE o.id = t.order_id AND t.final_key = $1 AND t.consumed_at IS NULL
		 RETURNING t.id, t.order_id, o.user_id, t.offer_id, t.final_key, t.consumed_at`,
		key, now)
	return scanTicket(row, "consume ticket")
}

func (r *OrderRepository) HasTicketsForOffer(ctx context.Context, offerID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE offer_id = $1)`, offerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check offer tickets: %w", err)
	}
	return exists, nil
}

func (r *OrderRepository) CountByOffer(ctx context.Context) ([]repository.OfferCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT offer_id, COUNT(*) FROM tickets GROUP BY offer_id ORDER BY offer_id`)
	if err != nil {
		return nil, fmt.Errorf("count tickets by offer: %w", err)
	}
	defer rows.Close()

	counts := []repository.OfferCount{}
	for rows.Next() {
		var count repository.OfferCount
		if err := rows.Scan(&count.OfferID, &count.Count); err != nil {
			return nil, fmt.Errorf("scan offer count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer counts: %w", err)
	}
	return counts, nil
}

func scanOrder(row rowScanner, op string) (repository.Order, error) {
	var order repository.Order
	err := row.Scan(&order.ID, &order.UserID, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Order{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	order.CreatedAt = order.CreatedAt.UTC()
	return order, nil
}

func scanTicket(row rowScanner, op string) (repository.Ticket, error) {
	var ticket repository.Ticket
	err := row.Scan(&ticket.ID, &ticket.OrderID, &ticket.UserID, &ticket.OfferID, &ticket.FinalKey, &ticket.ConsumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Ticket{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	return ticket, nil
}
