package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocms/internal/models"
)

const reservationColumns = `id, user_id, user_name, lab_id, lab_name, date,
                            start_time, end_time, purpose, status, decision_reason,
                            decided_by, decided_at, created_at, updated_at, version`

// CreateReservationWithLock runs the overlap check and the insert in one
// transaction so two conflicting submissions cannot both pass the check.
// Overlap uses half-open semantics: [a,b) and [c,d) conflict iff
// a < d AND c < b, so back-to-back windows coexist.
func (db *DB) CreateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	startTime, err := canonicalTime(res.StartTime)
	if err != nil {
		return err
	}
	endTime, err := canonicalTime(res.EndTime)
	if err != nil {
		return err
	}
	res.StartTime, res.EndTime = startTime, endTime

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
         WHERE lab_id = ? AND date = ? AND status IN (?, ?)
           AND start_time < ? AND end_time > ?`,
		res.LabID, res.Date.Format("2006-01-02"),
		models.StatusPending, models.StatusApproved,
		res.EndTime, res.StartTime).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrOverlap
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, user_name, lab_id, lab_name, date,
                                   start_time, end_time, purpose, status,
                                   created_at, updated_at, version)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UserID,
		res.UserName,
		res.LabID,
		res.LabName,
		res.Date.Format("2006-01-02"),
		res.StartTime,
		res.EndTime,
		res.Purpose,
		models.StatusPending,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.ID = id
	res.Status = models.StatusPending
	res.CreatedAt = now
	res.UpdatedAt = now
	res.Version = 1
	return nil
}

// canonicalTime reformats an HH:MM bound through the layout. Overlap and
// ordering queries compare times as strings, so "9:00" must never reach
// the table: lexically it sorts after "12:00".
func canonicalTime(value string) (string, error) {
	t, err := time.Parse(models.TimeLayout, value)
	if err != nil {
		return "", ErrInvalidTimeWindow
	}
	return t.Format(models.TimeLayout), nil
}

// UpdateReservationStatusWithVersion performs a status-only transition with
// an optimistic version guard. Zero rows affected means either the status
// no longer matches (illegal transition, including terminal states) or
// another writer bumped the version first.
func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id, version int64, from, to string, actorID int64, reason string) error {
	now := time.Now()
	res, err := db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, decision_reason = ?, decided_by = ?, decided_at = ?,
                                 version = version + 1, updated_at = ?
         WHERE id = ? AND version = ? AND status = ?`,
		to, reason, actorID, now, now, id, version, from)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.classifyReservationConflict(ctx, id, from)
	}
	return nil
}

func (db *DB) classifyReservationConflict(ctx context.Context, id int64, expected string) error {
	res, err := db.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.Status != expected {
		return ErrInvalidTransition
	}
	return ErrConcurrentModification
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// GetLabWindows returns the occupied windows for a lab on a date, ordered
// by start time. Only pending and approved reservations block time.
func (db *DB) GetLabWindows(ctx context.Context, labID int64, date time.Time) ([]models.Window, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT start_time, end_time, status FROM reservations
         WHERE lab_id = ? AND date = ? AND status IN (?, ?)
         ORDER BY start_time ASC`,
		labID, date.Format("2006-01-02"), models.StatusPending, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to get lab windows: %w", err)
	}
	defer rows.Close()

	var windows []models.Window
	for rows.Next() {
		var w models.Window
		if err := rows.Scan(&w.StartTime, &w.EndTime, &w.Status); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (db *DB) GetUserReservations(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY date DESC, start_time ASC`
	return db.queryReservations(ctx, query, userID)
}

func (db *DB) GetReservationsByStatus(ctx context.Context, status string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = ? ORDER BY date ASC, start_time ASC`
	return db.queryReservations(ctx, query, status)
}

func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
              WHERE date >= ? AND date <= ? ORDER BY date ASC, start_time ASC`
	return db.queryReservations(ctx, query, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// GetDailyReservations groups reservations by date string over a range, for
// timetable export.
func (db *DB) GetDailyReservations(ctx context.Context, start, end time.Time) (map[string][]*models.Reservation, error) {
	reservations, err := db.GetReservationsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Reservation)
	for _, res := range reservations {
		key := res.Date.Format("2006-01-02")
		daily[key] = append(daily[key], res)
	}
	return daily, nil
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	var dateStr string
	var purpose, reason sql.NullString
	var decidedBy sql.NullInt64
	var decidedAt sql.NullTime
	err := row.Scan(
		&res.ID, &res.UserID, &res.UserName, &res.LabID, &res.LabName, &dateStr,
		&res.StartTime, &res.EndTime, &purpose, &res.Status, &reason,
		&decidedBy, &decidedAt, &res.CreatedAt, &res.UpdatedAt, &res.Version,
	)
	if err != nil {
		return nil, err
	}

	res.Purpose = purpose.String
	res.DecisionReason = reason.String
	if decidedBy.Valid {
		res.DecidedBy = &decidedBy.Int64
	}
	if decidedAt.Valid {
		res.DecidedAt = &decidedAt.Time
	}

	if res.Date, err = parseDateColumn(dateStr); err != nil {
		return nil, fmt.Errorf("failed to parse reservation date %s: %w", dateStr, err)
	}
	return &res, nil
}
