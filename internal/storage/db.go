package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"pronto-core/internal/models"
	"pronto-core/internal/workflow"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB is the relational store for sessions, orders and employees. All
// mutations to a given order or session are serialized through row-level
// transactions; status updates carry an expected-status predicate so
// racing identical actions resolve to exactly one write.
type DB struct {
	Bun *bun.DB
}

func NewDB(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// ---------------- SESSIONS ----------------

func (d *DB) CreateSession(session *models.Session) error {
	_, err := d.Bun.NewInsert().Model(session).Exec(context.Background())
	return err
}

func (d *DB) GetSessionByID(id string) (*models.Session, error) {
	var session models.Session
	err := d.Bun.NewSelect().
		Model(&session).
		Relation("Orders").
		Relation("Orders.Items").
		Where("session.id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOpenSessionByTable returns the table's current non-closed session,
// or ErrNotFound. At most one can exist per table.
func (d *DB) GetOpenSessionByTable(tableNumber int) (*models.Session, error) {
	var session models.Session
	err := d.Bun.NewSelect().
		Model(&session).
		Relation("Orders").
		Relation("Orders.Items").
		Where("session.table_number = ?", tableNumber).
		Where("session.status != ?", models.SessionClosed).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open session for table %d: %w", tableNumber, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSessionStatus writes the session's status, totals and stamps,
// guarded by the expected current status. Returns false when another
// transaction got there first.
func (d *DB) UpdateSessionStatus(session *models.Session, expectStatus ...string) (bool, error) {
	q := d.Bun.NewUpdate().
		Model(session).
		Column("status", "subtotal", "tax", "tip", "total",
			"check_requested_at", "tip_confirmed_at", "closed_at",
			"payment_method", "payment_reference").
		Where("id = ?", session.ID)
	if len(expectStatus) > 0 {
		q = q.Where("status IN (?)", bun.In(expectStatus))
	}

	res, err := q.Exec(context.Background())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateSessionTotals persists the recomputed totals cache.
func (d *DB) UpdateSessionTotals(sessionID string, totals models.Totals) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Session)(nil)).
		Set("subtotal = ?", totals.Subtotal).
		Set("tax = ?", totals.Tax).
		Set("tip = ?", totals.Tip).
		Set("total = ?", totals.Total).
		Where("id = ?", sessionID).
		Exec(context.Background())
	return err
}

// ListSessionsByStatus returns sessions in any of the given statuses,
// newest first, with their orders loaded.
func (d *DB) ListSessionsByStatus(statuses ...string) ([]*models.Session, error) {
	var sessions []*models.Session
	err := d.Bun.NewSelect().
		Model(&sessions).
		Relation("Orders").
		Relation("Orders.Items").
		Where("session.status IN (?)", bun.In(statuses)).
		Order("opened_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListRecentlyClosedSessions returns sessions closed within the window,
// for the cashier's recent list.
func (d *DB) ListRecentlyClosedSessions(since time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	err := d.Bun.NewSelect().
		Model(&sessions).
		Relation("Orders").
		Relation("Orders.Items").
		Where("session.status = ?", models.SessionClosed).
		Where("session.closed_at >= ?", since).
		Order("closed_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ---------------- ORDERS ----------------

// CreateOrder inserts the order and its items in one transaction and
// refreshes the owning session's totals cache within the same unit of
// work, so totals never drift from the items they derive from.
func (d *DB) CreateOrder(order *models.Order, totals models.Totals) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) > 0 {
			if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewUpdate().
			Model((*models.Session)(nil)).
			Set("subtotal = ?", totals.Subtotal).
			Set("tax = ?", totals.Tax).
			Set("tip = ?", totals.Tip).
			Set("total = ?", totals.Total).
			Where("id = ?", order.SessionID).
			Exec(ctx)
		return err
	})
}

func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyOrderTransition persists a transition the workflow engine already
// validated: status, cancel reason and item delivery stamps, plus the
// history row, in one transaction. The expected-status predicate (which
// matches the legacy spelling too) makes the write first-wins under
// concurrency; false means the row had already moved on.
func (d *DB) ApplyOrderTransition(order *models.Order, from workflow.Status, history *models.OrderStatusHistory) (bool, error) {
	applied := false
	err := d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(order).
			Column("workflow_status", "updated_at", "cancel_reason").
			Where("id = ?", order.ID).
			Where("workflow_status IN (?)", bun.In(workflow.StoredForms(from))).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil // lost the race; caller re-reads
		}
		applied = true

		for _, item := range order.Items {
			if _, err := tx.NewUpdate().
				Model(item).
				Column("delivered_quantity", "delivered_at", "delivered_by").
				Where("id = ?", item.ID).
				Exec(ctx); err != nil {
				return err
			}
		}

		if history != nil {
			if _, err := tx.NewInsert().Model(history).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return applied, err
}

// ListOrdersByStatus returns orders in any of the given workflow
// statuses (legacy spellings included), oldest first so consoles work
// queues in arrival order.
func (d *DB) ListOrdersByStatus(statuses ...workflow.Status) ([]*models.Order, error) {
	var forms []string
	for _, s := range statuses {
		forms = append(forms, workflow.StoredForms(s)...)
	}

	var orders []*models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Items").
		Where("\"order\".workflow_status IN (?)", bun.In(forms)).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FinalizeSessionPayment closes the session and finalizes every
// non-cancelled order to paid in one transaction. This is the single
// point that moves orders to their paid terminal state.
func (d *DB) FinalizeSessionPayment(session *models.Session) error {
	return d.Bun.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(session).
			Column("status", "subtotal", "tax", "tip", "total",
				"closed_at", "payment_method", "payment_reference").
			Where("id = ?", session.ID).
			Where("status = ?", models.SessionAwaitingPayment).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("session %s is no longer payable: %w", session.ID, ErrNotFound)
		}

		cancelledForms := workflow.StoredForms(workflow.StatusCancelled)
		_, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("workflow_status = ?", string(workflow.StatusPaid)).
			Set("updated_at = ?", time.Now().UTC()).
			Where("session_id = ?", session.ID).
			Where("workflow_status NOT IN (?)", bun.In(append(cancelledForms, string(workflow.StatusPaid), "payed"))).
			Exec(ctx)
		return err
	})
}

// ---------------- EMPLOYEES ----------------

func (d *DB) GetEmployeeByID(id string) (*models.Employee, error) {
	var employee models.Employee
	err := d.Bun.NewSelect().
		Model(&employee).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (d *DB) GetOrderHistory(orderID string) ([]*models.OrderStatusHistory, error) {
	var history []*models.OrderStatusHistory
	err := d.Bun.NewSelect().
		Model(&history).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return history, nil
}
