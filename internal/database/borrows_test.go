package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"geocms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBorrowRequest(item *models.Item, userID, qty int64) *models.BorrowRequest {
	return &models.BorrowRequest{
		UserID:    userID,
		UserName:  "Student",
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  qty,
		StartDate: time.Now().AddDate(0, 0, 1),
		EndDate:   time.Now().AddDate(0, 0, 5),
	}
}

func TestBorrowApprovalLedger(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Brunton Compass", 10)

	req := newBorrowRequest(item, 1, 3)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, int64(1), req.Version)

	// Pending reserves nothing.
	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Available)

	require.NoError(t, db.ApproveBorrowRequest(ctx, req.ID, req.Version, 42))

	got, err = db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Available)
	assert.Equal(t, int64(3), got.Borrowed)
	assert.Equal(t, int64(0), got.Maintenance)
	require.NoError(t, db.VerifyLedger(ctx, item.ID))

	loaded, err := db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, loaded.Status)
	require.NotNil(t, loaded.DecidedBy)
	assert.Equal(t, int64(42), *loaded.DecidedBy)
	assert.NotNil(t, loaded.DecidedAt)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestBorrowReturnGood(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "GPS Unit", 5)

	req := newBorrowRequest(item, 1, 2)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))
	require.NoError(t, db.ApproveBorrowRequest(ctx, req.ID, req.Version, 42))

	loaded, err := db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NoError(t, db.ReturnBorrowRequest(ctx, req.ID, loaded.Version, 42, models.ConditionGood))

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Available)
	assert.Equal(t, int64(0), got.Borrowed)
	require.NoError(t, db.VerifyLedger(ctx, item.ID))

	loaded, err = db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, loaded.Status)
	assert.Equal(t, models.ConditionGood, loaded.ReturnCondition)
	assert.NotNil(t, loaded.ReturnedAt)
}

func TestBorrowReturnDamaged(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Clinometer", 4)

	req := newBorrowRequest(item, 1, 2)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))
	require.NoError(t, db.ApproveBorrowRequest(ctx, req.ID, req.Version, 42))

	loaded, err := db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NoError(t, db.ReturnBorrowRequest(ctx, req.ID, loaded.Version, 42, models.ConditionDamaged))

	// Damaged units go to maintenance, not back into circulation.
	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Available)
	assert.Equal(t, int64(0), got.Borrowed)
	assert.Equal(t, int64(2), got.Maintenance)
	require.NoError(t, db.VerifyLedger(ctx, item.ID))
}

func TestBorrowRejectLeavesLedgerAlone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Sieve Set", 6)

	req := newBorrowRequest(item, 1, 3)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))

	err := db.UpdateBorrowStatusWithVersion(ctx, req.ID, req.Version,
		models.StatusPending, models.StatusRejected, 42, "out for calibration")
	require.NoError(t, err)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Available)
	assert.Equal(t, int64(0), got.Borrowed)

	loaded, err := db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, loaded.Status)
	assert.Equal(t, "out for calibration", loaded.DecisionReason)
}

func TestBorrowTerminalStateGuard(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Rock Hammer", 6)

	req := newBorrowRequest(item, 1, 1)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))
	require.NoError(t, db.UpdateBorrowStatusWithVersion(ctx, req.ID, req.Version,
		models.StatusPending, models.StatusRejected, 42, ""))

	loaded, err := db.GetBorrowRequest(ctx, req.ID)
	require.NoError(t, err)

	// Approving a rejected request must fail and leave counters untouched.
	err = db.ApproveBorrowRequest(ctx, req.ID, loaded.Version, 42)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Available)
}

func TestBorrowStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Hand Lens", 6)

	req := newBorrowRequest(item, 1, 1)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))

	// A writer who read version 1 but races another version-1 writer
	// must get a concurrency error, not an invalid transition.
	require.NoError(t, db.UpdateBorrowStatusWithVersion(ctx, req.ID, req.Version,
		models.StatusPending, models.StatusPending, req.UserID, ""))

	err := db.UpdateBorrowStatusWithVersion(ctx, req.ID, req.Version,
		models.StatusPending, models.StatusCancelled, req.UserID, "")
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestBorrowOverdraftRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Total Station", 2)

	req := newBorrowRequest(item, 1, 3)
	err := db.CreateBorrowRequestWithLock(ctx, req)
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestBorrowApprovalRevalidatesAvailability(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Theodolite", 3)

	// Two pending requests both passed the submit-time check.
	first := newBorrowRequest(item, 1, 2)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, first))
	second := newBorrowRequest(item, 2, 2)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, second))

	require.NoError(t, db.ApproveBorrowRequest(ctx, first.ID, first.Version, 42))

	// Only one unit remains, so the second approval must fail cleanly.
	err := db.ApproveBorrowRequest(ctx, second.ID, second.Version, 42)
	assert.ErrorIs(t, err, ErrNotAvailable)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Available)
	assert.Equal(t, int64(2), got.Borrowed)
	require.NoError(t, db.VerifyLedger(ctx, item.ID))

	loaded, err := db.GetBorrowRequest(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, loaded.Status)
}

func TestConcurrentBorrowApprovals(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Scarce Item", 1)

	const numGoroutines = 10
	requests := make([]*models.BorrowRequest, numGoroutines)
	for i := range requests {
		req := newBorrowRequest(item, int64(i+1), 1)
		require.NoError(t, db.CreateBorrowRequestWithLock(ctx, req))
		requests[i] = req
	}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for _, req := range requests {
		go func(id, version int64) {
			defer wg.Done()
			results <- db.ApproveBorrowRequest(ctx, id, version, 42)
		}(req.ID, req.Version)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		}
	}

	// With one unit on the shelf, exactly one approval may win.
	assert.Equal(t, 1, successCount)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Available)
	assert.Equal(t, int64(1), got.Borrowed)
	require.NoError(t, db.VerifyLedger(ctx, item.ID))
}

func TestGetBorrowRequestsByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	item := createTestItem(t, db, "Compass", 10)

	first := newBorrowRequest(item, 1, 1)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, first))
	second := newBorrowRequest(item, 2, 1)
	require.NoError(t, db.CreateBorrowRequestWithLock(ctx, second))
	require.NoError(t, db.ApproveBorrowRequest(ctx, second.ID, second.Version, 42))

	pending, err := db.GetBorrowRequestsByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	mine, err := db.GetUserBorrowRequests(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusApproved, mine[0].Status)
}
