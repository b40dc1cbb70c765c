package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocms/internal/models"
)

const borrowColumns = `id, user_id, user_name, item_id, item_name, quantity,
                       start_date, end_date, status, notes, decision_reason,
                       decided_by, decided_at, return_condition, returned_at,
                       created_at, updated_at, version`

// CreateBorrowRequestWithLock checks availability and inserts the pending
// request inside one transaction. Counters are not touched: a pending
// request reserves nothing until approval.
func (db *DB) CreateBorrowRequestWithLock(ctx context.Context, req *models.BorrowRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var available int64
	err = tx.QueryRowContext(ctx,
		`SELECT available FROM items WHERE id = ? AND is_active = 1`, req.ItemID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if req.Quantity > available {
		return ErrNotAvailable
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO borrow_requests (user_id, user_name, item_id, item_name, quantity,
                                      start_date, end_date, status, notes,
                                      created_at, updated_at, version)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.UserID,
		req.UserName,
		req.ItemID,
		req.ItemName,
		req.Quantity,
		req.StartDate.Format("2006-01-02"),
		req.EndDate.Format("2006-01-02"),
		models.StatusPending,
		req.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert borrow request in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit borrow request: %w", err)
	}

	req.ID = id
	req.Status = models.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Version = 1
	return nil
}

// ApproveBorrowRequest re-validates availability at decision time and moves
// quantity from available to borrowed, all inside one transaction guarded
// by the request's optimistic version. On any failure the ledger and the
// request are left exactly as they were.
func (db *DB) ApproveBorrowRequest(ctx context.Context, id, version, approverID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	req, err := getBorrowRequestTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if req.Status != models.StatusPending {
		return ErrInvalidTransition
	}

	// The guard in the UPDATE makes the decrement race-safe: a concurrent
	// approval that drained availability first leaves zero rows affected.
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET available = available - ?, borrowed = borrowed + ?, updated_at = ?
         WHERE id = ? AND available >= ?`,
		req.Quantity, req.Quantity, time.Now(), req.ItemID, req.Quantity)
	if err != nil {
		return fmt.Errorf("failed to update item ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotAvailable
	}

	now := time.Now()
	res, err = tx.ExecContext(ctx,
		`UPDATE borrow_requests SET status = ?, decided_by = ?, decided_at = ?,
                                    version = version + 1, updated_at = ?
         WHERE id = ? AND version = ? AND status = ?`,
		models.StatusApproved, approverID, now, now, id, version, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update borrow request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}
	return db.refreshItemsCache(ctx)
}

// ReturnBorrowRequest moves borrowed quantity back into the ledger. Damaged
// returns are routed into maintenance instead of available.
func (db *DB) ReturnBorrowRequest(ctx context.Context, id, version, staffID int64, condition string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	req, err := getBorrowRequestTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if req.Status != models.StatusApproved {
		return ErrInvalidTransition
	}

	target := "available"
	if condition == models.ConditionDamaged {
		target = "maintenance"
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET borrowed = borrowed - ?, `+target+` = `+target+` + ?, updated_at = ?
         WHERE id = ? AND borrowed >= ?`,
		req.Quantity, req.Quantity, time.Now(), req.ItemID, req.Quantity)
	if err != nil {
		return fmt.Errorf("failed to update item ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConcurrentModification
	}

	now := time.Now()
	res, err = tx.ExecContext(ctx,
		`UPDATE borrow_requests SET status = ?, return_condition = ?, returned_at = ?,
                                    decided_by = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND version = ? AND status = ?`,
		models.StatusReturned, condition, now, staffID, now, id, version, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to update borrow request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit return: %w", err)
	}
	return db.refreshItemsCache(ctx)
}

// UpdateBorrowStatusWithVersion performs a counter-free transition (reject,
// cancel). The status guard distinguishes an illegal transition from a lost
// version race instead of silently matching zero rows.
func (db *DB) UpdateBorrowStatusWithVersion(ctx context.Context, id, version int64, from, to string, actorID int64, reason string) error {
	now := time.Now()
	res, err := db.ExecContext(ctx,
		`UPDATE borrow_requests SET status = ?, decision_reason = ?, decided_by = ?, decided_at = ?,
                                    version = version + 1, updated_at = ?
         WHERE id = ? AND version = ? AND status = ?`,
		to, reason, actorID, now, now, id, version, from)
	if err != nil {
		return fmt.Errorf("failed to update borrow request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.classifyBorrowConflict(ctx, id, from)
	}
	return nil
}

func (db *DB) classifyBorrowConflict(ctx context.Context, id int64, expected string) error {
	req, err := db.GetBorrowRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != expected {
		return ErrInvalidTransition
	}
	return ErrConcurrentModification
}

func (db *DB) GetBorrowRequest(ctx context.Context, id int64) (*models.BorrowRequest, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_requests WHERE id = ?`
	req, err := scanBorrowRequest(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get borrow request: %w", err)
	}
	return req, nil
}

func getBorrowRequestTx(ctx context.Context, tx *sql.Tx, id int64) (*models.BorrowRequest, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_requests WHERE id = ?`
	req, err := scanBorrowRequest(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get borrow request in tx: %w", err)
	}
	return req, nil
}

func scanBorrowRequest(row rowScanner) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	var startDate, endDate string
	var notes, reason, condition sql.NullString
	var decidedBy sql.NullInt64
	var decidedAt, returnedAt sql.NullTime
	err := row.Scan(
		&req.ID, &req.UserID, &req.UserName, &req.ItemID, &req.ItemName, &req.Quantity,
		&startDate, &endDate, &req.Status, &notes, &reason,
		&decidedBy, &decidedAt, &condition, &returnedAt,
		&req.CreatedAt, &req.UpdatedAt, &req.Version,
	)
	if err != nil {
		return nil, err
	}

	req.Notes = notes.String
	req.DecisionReason = reason.String
	req.ReturnCondition = condition.String
	if decidedBy.Valid {
		req.DecidedBy = &decidedBy.Int64
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	if returnedAt.Valid {
		req.ReturnedAt = &returnedAt.Time
	}

	if req.StartDate, err = parseDateColumn(startDate); err != nil {
		return nil, fmt.Errorf("failed to parse start date %s: %w", startDate, err)
	}
	if req.EndDate, err = parseDateColumn(endDate); err != nil {
		return nil, fmt.Errorf("failed to parse end date %s: %w", endDate, err)
	}
	return &req, nil
}

func parseDateColumn(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05-07:00", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", value)
}

func (db *DB) GetUserBorrowRequests(ctx context.Context, userID int64) ([]*models.BorrowRequest, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_requests WHERE user_id = ? ORDER BY created_at DESC`
	return db.queryBorrowRequests(ctx, query, userID)
}

func (db *DB) GetBorrowRequestsByStatus(ctx context.Context, status string) ([]*models.BorrowRequest, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_requests WHERE status = ? ORDER BY created_at ASC`
	return db.queryBorrowRequests(ctx, query, status)
}

func (db *DB) GetAllBorrowRequests(ctx context.Context) ([]*models.BorrowRequest, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_requests ORDER BY created_at DESC`
	return db.queryBorrowRequests(ctx, query)
}

func (db *DB) queryBorrowRequests(ctx context.Context, query string, args ...interface{}) ([]*models.BorrowRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrow requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.BorrowRequest
	for rows.Next() {
		req, err := scanBorrowRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrow request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// VerifyLedger re-reads an item's counters and checks the ledger invariant.
func (db *DB) VerifyLedger(ctx context.Context, itemID int64) error {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	item, err := db.queryItem(ctx, query, itemID)
	if err != nil {
		return err
	}
	if !item.LedgerBalanced() {
		return fmt.Errorf("ledger out of balance for item %d: %d + %d + %d != %d",
			item.ID, item.Available, item.Borrowed, item.Maintenance, item.Total)
	}
	return nil
}
