package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocms/internal/models"
)

const labColumns = `id, name, location, capacity, sort_order, is_active, created_at, updated_at`

// SeedLabs upserts the configured lab catalog by name and refreshes the
// in-memory cache.
func (db *DB) SeedLabs(ctx context.Context, labs []models.Lab) error {
	for i := range labs {
		lab := &labs[i]
		existing, err := db.GetLabByName(ctx, lab.Name)
		switch {
		case errors.Is(err, ErrNotFound):
			if err := db.CreateLab(ctx, lab); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			existing.Location = lab.Location
			existing.Capacity = lab.Capacity
			existing.SortOrder = lab.SortOrder
			existing.IsActive = lab.IsActive
			if err := db.UpdateLab(ctx, existing); err != nil {
				return err
			}
			*lab = *existing
		}
	}
	return db.refreshLabsCache(ctx)
}

func (db *DB) CreateLab(ctx context.Context, lab *models.Lab) error {
	query := `INSERT INTO labs (name, location, capacity, sort_order, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		lab.Name, lab.Location, lab.Capacity, lab.SortOrder, lab.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create lab: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	lab.ID = id
	lab.CreatedAt = now
	lab.UpdatedAt = now

	db.mu.Lock()
	db.labsCache[id] = *lab
	db.mu.Unlock()

	return nil
}

func (db *DB) UpdateLab(ctx context.Context, lab *models.Lab) error {
	query := `UPDATE labs SET location = ?, capacity = ?, sort_order = ?, is_active = ?, updated_at = ?
              WHERE id = ?`
	_, err := db.ExecContext(ctx, query,
		lab.Location, lab.Capacity, lab.SortOrder, lab.IsActive, time.Now(), lab.ID)
	if err != nil {
		return fmt.Errorf("failed to update lab: %w", err)
	}
	return db.refreshLabsCache(ctx)
}

func (db *DB) GetLabByID(ctx context.Context, id int64) (*models.Lab, error) {
	db.mu.RLock()
	if lab, ok := db.labsCache[id]; ok {
		db.mu.RUnlock()
		return &lab, nil
	}
	db.mu.RUnlock()

	query := `SELECT ` + labColumns + ` FROM labs WHERE id = ?`
	return db.queryLab(ctx, query, id)
}

func (db *DB) GetLabByName(ctx context.Context, name string) (*models.Lab, error) {
	query := `SELECT ` + labColumns + ` FROM labs WHERE name = ?`
	return db.queryLab(ctx, query, name)
}

func (db *DB) GetActiveLabs(ctx context.Context) ([]*models.Lab, error) {
	query := `SELECT ` + labColumns + ` FROM labs WHERE is_active = 1 ORDER BY sort_order ASC, name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active labs: %w", err)
	}
	defer rows.Close()

	var labs []*models.Lab
	for rows.Next() {
		var lab models.Lab
		err := rows.Scan(&lab.ID, &lab.Name, &lab.Location, &lab.Capacity,
			&lab.SortOrder, &lab.IsActive, &lab.CreatedAt, &lab.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab: %w", err)
		}
		labs = append(labs, &lab)
	}
	return labs, rows.Err()
}

func (db *DB) queryLab(ctx context.Context, query string, args ...interface{}) (*models.Lab, error) {
	var lab models.Lab
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&lab.ID, &lab.Name, &lab.Location, &lab.Capacity,
		&lab.SortOrder, &lab.IsActive, &lab.CreatedAt, &lab.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return &lab, nil
}

func (db *DB) refreshLabsCache(ctx context.Context) error {
	labs, err := db.GetActiveLabs(ctx)
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.labsCache = make(map[int64]models.Lab, len(labs))
	for _, lab := range labs {
		db.labsCache[lab.ID] = *lab
	}
	db.mu.Unlock()
	return nil
}
