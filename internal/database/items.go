package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"geocms/internal/models"
)

const itemColumns = `id, name, description, category, total, available, borrowed,
                     maintenance, sort_order, is_active, created_at, updated_at`

// SeedItems upserts the configured equipment catalog by name and refreshes
// the in-memory cache. Counter columns are only written on first insert so
// a restart never clobbers a live ledger.
func (db *DB) SeedItems(ctx context.Context, items []models.Item) error {
	for i := range items {
		item := &items[i]
		existing, err := db.GetItemByName(ctx, item.Name)
		switch {
		case errors.Is(err, ErrNotFound):
			if item.Available == 0 && item.Borrowed == 0 && item.Maintenance == 0 {
				item.Available = item.Total
			}
			if err := db.CreateItem(ctx, item); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			existing.Description = item.Description
			existing.Category = item.Category
			existing.SortOrder = item.SortOrder
			existing.IsActive = item.IsActive
			if err := db.UpdateItemMeta(ctx, existing); err != nil {
				return err
			}
			*item = *existing
		}
	}
	return db.refreshItemsCache(ctx)
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, category, total, available, borrowed,
                                 maintenance, sort_order, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Category,
		item.Total,
		item.Available,
		item.Borrowed,
		item.Maintenance,
		item.SortOrder,
		item.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now

	db.mu.Lock()
	db.itemsCache[id] = *item
	db.mu.Unlock()

	return nil
}

// UpdateItemMeta writes descriptive fields only. Ledger counters are
// mutated exclusively by the borrow transaction paths.
func (db *DB) UpdateItemMeta(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET description = ?, category = ?, sort_order = ?,
                               is_active = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query,
		item.Description, item.Category, item.SortOrder, item.IsActive, time.Now(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return db.refreshItemsCache(ctx)
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	db.mu.RLock()
	if item, ok := db.itemsCache[id]; ok {
		db.mu.RUnlock()
		return &item, nil
	}
	db.mu.RUnlock()

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	return db.queryItem(ctx, query, id)
}

func (db *DB) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE name = ?`
	return db.queryItem(ctx, query, name)
}

func (db *DB) GetActiveItems(ctx context.Context) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE is_active = 1 ORDER BY sort_order ASC, name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (db *DB) DeactivateItem(ctx context.Context, id int64) error {
	query := `UPDATE items SET is_active = 0, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to deactivate item: %w", err)
	}
	return db.refreshItemsCache(ctx)
}

func (db *DB) queryItem(ctx context.Context, query string, args ...interface{}) (*models.Item, error) {
	var item models.Item
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.Name, &item.Description, &item.Category,
		&item.Total, &item.Available, &item.Borrowed, &item.Maintenance,
		&item.SortOrder, &item.IsActive, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(rows rowScanner) (*models.Item, error) {
	var item models.Item
	err := rows.Scan(
		&item.ID, &item.Name, &item.Description, &item.Category,
		&item.Total, &item.Available, &item.Borrowed, &item.Maintenance,
		&item.SortOrder, &item.IsActive, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}

func (db *DB) refreshItemsCache(ctx context.Context) error {
	items, err := db.GetActiveItems(ctx)
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.itemsCache = make(map[int64]models.Item, len(items))
	for _, item := range items {
		db.itemsCache[item.ID] = *item
	}
	db.mu.Unlock()
	return nil
}

// SortedItems returns the cached active catalog ordered by sort_order.
func (db *DB) SortedItems() []models.Item {
	db.mu.RLock()
	defer db.mu.RUnlock()

	items := make([]models.Item, 0, len(db.itemsCache))
	for _, item := range db.itemsCache {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Name < items[j].Name
	})
	return items
}
