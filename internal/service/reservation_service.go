package service

import (
	"context"
	"errors"
	"time"

	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/events"
	"geocms/internal/metrics"
	"geocms/internal/models"

	"github.com/rs/zerolog"
)

type ReservationService struct {
	repo               domain.Repository
	eventBus           domain.EventPublisher
	sheetsWorker       domain.SyncWorker
	maxReservationDays int
	logger             *zerolog.Logger
}

func NewReservationService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, maxReservationDays int, logger *zerolog.Logger) *ReservationService {
	if maxReservationDays <= 0 {
		maxReservationDays = 60
	}
	return &ReservationService{
		repo:               repo,
		eventBus:           eventBus,
		sheetsWorker:       sheetsWorker,
		maxReservationDays: maxReservationDays,
		logger:             logger,
	}
}

func (s *ReservationService) validateDate(date time.Time) error {
	if date.Before(time.Now().AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}
	maxDate := time.Now().AddDate(0, 0, s.maxReservationDays)
	if date.After(maxDate) {
		return database.ErrDateTooFar
	}
	return nil
}

// validateWindow checks both bounds parse as HH:MM and the window is
// non-empty. It returns the bounds reformatted through the layout: the
// overlap check compares times as strings, so unpadded input like "9:00"
// must be stored as "09:00".
func validateWindow(startTime, endTime string) (string, string, error) {
	start, err := time.Parse(models.TimeLayout, startTime)
	if err != nil {
		return "", "", database.ErrInvalidTimeWindow
	}
	end, err := time.Parse(models.TimeLayout, endTime)
	if err != nil {
		return "", "", database.ErrInvalidTimeWindow
	}
	if !end.After(start) {
		return "", "", database.ErrInvalidTimeWindow
	}
	return start.Format(models.TimeLayout), end.Format(models.TimeLayout), nil
}

func (s *ReservationService) SubmitRequest(ctx context.Context, session *models.Session, labID int64, date time.Time, startTime, endTime, purpose string) (*models.Reservation, error) {
	if err := s.validateDate(date); err != nil {
		return nil, err
	}
	startTime, endTime, err := validateWindow(startTime, endTime)
	if err != nil {
		return nil, err
	}

	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return nil, err
	}

	res := &models.Reservation{
		UserID:    session.UserID,
		UserName:  session.Name,
		LabID:     lab.ID,
		LabName:   lab.Name,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Purpose:   purpose,
	}
	if err := s.repo.CreateReservationWithLock(ctx, res); err != nil {
		if errors.Is(err, database.ErrOverlap) {
			metrics.IncReservationConflict()
		}
		return nil, err
	}

	s.publishEvent(events.EventReservationSubmitted, res, session, "")
	s.enqueueTimetableSync(ctx)
	return res, nil
}

func (s *ReservationService) Approve(ctx context.Context, session *models.Session, id, version int64) error {
	return s.decide(ctx, session, id, version, models.StatusApproved, events.EventReservationApproved, "")
}

func (s *ReservationService) Reject(ctx context.Context, session *models.Session, id, version int64, reason string) error {
	return s.decide(ctx, session, id, version, models.StatusRejected, events.EventReservationRejected, reason)
}

func (s *ReservationService) decide(ctx context.Context, session *models.Session, id, version int64, to, eventType, reason string) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	err := s.repo.UpdateReservationStatusWithVersion(ctx, id, version,
		models.StatusPending, to, session.UserID, reason)
	if err != nil {
		return err
	}

	if res, err := s.repo.GetReservation(ctx, id); err == nil {
		s.publishEvent(eventType, res, session, reason)
	}
	s.enqueueTimetableSync(ctx)
	return nil
}

// Cancel withdraws a pending reservation. Only the requester may cancel.
func (s *ReservationService) Cancel(ctx context.Context, session *models.Session, id, version int64) error {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.UserID != session.UserID {
		return ErrPermissionDenied
	}

	err = s.repo.UpdateReservationStatusWithVersion(ctx, id, version,
		models.StatusPending, models.StatusCancelled, session.UserID, "")
	if err != nil {
		return err
	}

	if res, err := s.repo.GetReservation(ctx, id); err == nil {
		s.publishEvent(events.EventReservationCancelled, res, session, "")
	}
	s.enqueueTimetableSync(ctx)
	return nil
}

// Complete closes an approved reservation after the session took place.
func (s *ReservationService) Complete(ctx context.Context, session *models.Session, id, version int64) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	err := s.repo.UpdateReservationStatusWithVersion(ctx, id, version,
		models.StatusApproved, models.StatusCompleted, session.UserID, "")
	if err != nil {
		return err
	}

	if res, err := s.repo.GetReservation(ctx, id); err == nil {
		s.publishEvent(events.EventReservationCompleted, res, session, "")
	}
	s.enqueueTimetableSync(ctx)
	return nil
}

func (s *ReservationService) Get(ctx context.Context, session *models.Session, id int64) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != session.UserID && !session.IsStaff() {
		return nil, ErrPermissionDenied
	}
	return res, nil
}

func (s *ReservationService) List(ctx context.Context, session *models.Session, status string) ([]*models.Reservation, error) {
	if !session.IsStaff() {
		reservations, err := s.repo.GetUserReservations(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return filterReservationsByStatus(reservations, status), nil
	}

	if status == "" {
		start := time.Now().AddDate(0, 0, -models.DefaultExportRangeDays)
		end := time.Now().AddDate(0, 0, s.maxReservationDays)
		return s.repo.GetReservationsByDateRange(ctx, start, end)
	}
	return s.repo.GetReservationsByStatus(ctx, status)
}

// Availability returns the occupied windows for a lab on a date. Anyone
// logged in may look at it.
func (s *ReservationService) Availability(ctx context.Context, labID int64, date time.Time) ([]models.Window, error) {
	if _, err := s.repo.GetLabByID(ctx, labID); err != nil {
		return nil, err
	}
	return s.repo.GetLabWindows(ctx, labID, date)
}

func filterReservationsByStatus(reservations []*models.Reservation, status string) []*models.Reservation {
	if status == "" {
		return reservations
	}
	var out []*models.Reservation
	for _, res := range reservations {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out
}

func (s *ReservationService) publishEvent(eventType string, res *models.Reservation, session *models.Session, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		UserID:        res.UserID,
		UserName:      res.UserName,
		LabID:         res.LabID,
		LabName:       res.LabName,
		Date:          res.Date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Status:        res.Status,
		Reason:        reason,
		ActorID:       session.UserID,
		ActorName:     session.Name,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", res.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueTimetableSync(ctx context.Context) {
	if s.sheetsWorker == nil {
		return
	}
	start := time.Now()
	end := start.AddDate(0, 0, models.DefaultExportRangeDays)
	if err := s.sheetsWorker.EnqueueTimetableSync(ctx, start, end); err != nil {
		s.logger.Error().Err(err).Msg("timetable sync enqueue error")
	}
}
