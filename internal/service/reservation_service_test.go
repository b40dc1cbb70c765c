package service

import (
	"context"
	"testing"
	"time"

	"geocms/internal/database"
	"geocms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReservationService(t *testing.T) {
	repo := new(mockRepo)
	bus := new(mockEventBus)
	worker := new(mockWorker)
	svc := NewReservationService(repo, bus, worker, 30, testLogger())
	ctx := context.Background()

	t.Run("ValidateWindow", func(t *testing.T) {
		start, end, err := validateWindow("09:00", "11:00")
		assert.NoError(t, err)
		assert.Equal(t, "09:00", start)
		assert.Equal(t, "11:00", end)

		// Unpadded hours are accepted on input but stored zero padded.
		start, end, err = validateWindow("9:00", "9:30")
		assert.NoError(t, err)
		assert.Equal(t, "09:00", start)
		assert.Equal(t, "09:30", end)

		_, _, err = validateWindow("11:00", "09:00")
		assert.ErrorIs(t, err, database.ErrInvalidTimeWindow)
		_, _, err = validateWindow("09:00", "09:00")
		assert.ErrorIs(t, err, database.ErrInvalidTimeWindow)
		_, _, err = validateWindow("9am", "11:00")
		assert.ErrorIs(t, err, database.ErrInvalidTimeWindow)
		_, _, err = validateWindow("09:00", "25:00")
		assert.ErrorIs(t, err, database.ErrInvalidTimeWindow)
	})

	t.Run("SubmitRequest", func(t *testing.T) {
		lab := &models.Lab{ID: 2, Name: "GIS Lab"}
		date := time.Now().AddDate(0, 0, 7)

		repo.On("GetLabByID", ctx, int64(2)).Return(lab, nil).Once()
		repo.On("CreateReservationWithLock", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTimetableSync", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		res, err := svc.SubmitRequest(ctx, studentSession(), 2, date, "09:00", "11:00", "practical")
		assert.NoError(t, err)
		assert.Equal(t, "GIS Lab", res.LabName)
		repo.AssertExpectations(t)
	})

	t.Run("SubmitRequestPadsTimes", func(t *testing.T) {
		lab := &models.Lab{ID: 2, Name: "GIS Lab"}
		date := time.Now().AddDate(0, 0, 7)

		repo.On("GetLabByID", ctx, int64(2)).Return(lab, nil).Once()
		repo.On("CreateReservationWithLock", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTimetableSync", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		res, err := svc.SubmitRequest(ctx, studentSession(), 2, date, "9:00", "11:00", "practical")
		assert.NoError(t, err)
		assert.Equal(t, "09:00", res.StartTime)
		repo.AssertExpectations(t)
	})

	t.Run("SubmitRequestOverlap", func(t *testing.T) {
		lab := &models.Lab{ID: 2, Name: "GIS Lab"}
		date := time.Now().AddDate(0, 0, 7)

		repo.On("GetLabByID", ctx, int64(2)).Return(lab, nil).Once()
		repo.On("CreateReservationWithLock", ctx, mock.AnythingOfType("*models.Reservation")).Return(database.ErrOverlap).Once()

		_, err := svc.SubmitRequest(ctx, studentSession(), 2, date, "09:00", "11:00", "practical")
		assert.ErrorIs(t, err, database.ErrOverlap)
		repo.AssertExpectations(t)
	})

	t.Run("SubmitRequestDateValidation", func(t *testing.T) {
		_, err := svc.SubmitRequest(ctx, studentSession(), 2, time.Now().AddDate(0, 0, -3), "09:00", "11:00", "")
		assert.ErrorIs(t, err, database.ErrPastDate)

		_, err = svc.SubmitRequest(ctx, studentSession(), 2, time.Now().AddDate(0, 0, 60), "09:00", "11:00", "")
		assert.ErrorIs(t, err, database.ErrDateTooFar)
	})

	t.Run("ApproveRequiresStaff", func(t *testing.T) {
		err := svc.Approve(ctx, studentSession(), 5, 1)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("ApproveAndReject", func(t *testing.T) {
		res := &models.Reservation{ID: 5, Status: models.StatusApproved}

		repo.On("UpdateReservationStatusWithVersion", ctx, int64(5), int64(1),
			models.StatusPending, models.StatusApproved, int64(42), "").Return(nil).Once()
		repo.On("GetReservation", ctx, int64(5)).Return(res, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTimetableSync", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, svc.Approve(ctx, staffSession(), 5, 1))

		rejected := &models.Reservation{ID: 6, Status: models.StatusRejected}
		repo.On("UpdateReservationStatusWithVersion", ctx, int64(6), int64(1),
			models.StatusPending, models.StatusRejected, int64(42), "maintenance day").Return(nil).Once()
		repo.On("GetReservation", ctx, int64(6)).Return(rejected, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTimetableSync", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, svc.Reject(ctx, staffSession(), 6, 1, "maintenance day"))
		repo.AssertExpectations(t)
	})

	t.Run("CancelOwnerOnly", func(t *testing.T) {
		res := &models.Reservation{ID: 7, UserID: 777, Status: models.StatusPending}
		repo.On("GetReservation", ctx, int64(7)).Return(res, nil).Once()

		err := svc.Cancel(ctx, studentSession(), 7, 1)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertExpectations(t)
	})

	t.Run("Complete", func(t *testing.T) {
		res := &models.Reservation{ID: 8, Status: models.StatusCompleted}

		repo.On("UpdateReservationStatusWithVersion", ctx, int64(8), int64(2),
			models.StatusApproved, models.StatusCompleted, int64(42), "").Return(nil).Once()
		repo.On("GetReservation", ctx, int64(8)).Return(res, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTimetableSync", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, svc.Complete(ctx, staffSession(), 8, 2))
		repo.AssertExpectations(t)
	})

	t.Run("Availability", func(t *testing.T) {
		lab := &models.Lab{ID: 2, Name: "GIS Lab"}
		date := time.Now().AddDate(0, 0, 1)
		windows := []models.Window{{StartTime: "09:00", EndTime: "11:00", Status: models.StatusApproved}}

		repo.On("GetLabByID", ctx, int64(2)).Return(lab, nil).Once()
		repo.On("GetLabWindows", ctx, int64(2), date).Return(windows, nil).Once()

		got, err := svc.Availability(ctx, 2, date)
		assert.NoError(t, err)
		assert.Equal(t, windows, got)
		repo.AssertExpectations(t)
	})

	t.Run("ListScopedByRole", func(t *testing.T) {
		mine := []*models.Reservation{
			{ID: 1, UserID: 1, Status: models.StatusPending},
			{ID: 2, UserID: 1, Status: models.StatusCancelled},
		}
		repo.On("GetUserReservations", ctx, int64(1)).Return(mine, nil).Once()

		got, err := svc.List(ctx, studentSession(), models.StatusPending)
		assert.NoError(t, err)
		assert.Len(t, got, 1)

		pending := []*models.Reservation{{ID: 3}}
		repo.On("GetReservationsByStatus", ctx, models.StatusPending).Return(pending, nil).Once()

		got, err = svc.List(ctx, staffSession(), models.StatusPending)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		repo.AssertExpectations(t)
	})
}
