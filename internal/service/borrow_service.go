package service

import (
	"context"
	"time"

	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/events"
	"geocms/internal/metrics"
	"geocms/internal/models"

	"github.com/rs/zerolog"
)

type BorrowService struct {
	repo          domain.Repository
	eventBus      domain.EventPublisher
	sheetsWorker  domain.SyncWorker
	maxBorrowDays int
	logger        *zerolog.Logger
}

func NewBorrowService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, maxBorrowDays int, logger *zerolog.Logger) *BorrowService {
	if maxBorrowDays <= 0 {
		maxBorrowDays = 90
	}
	return &BorrowService{
		repo:          repo,
		eventBus:      eventBus,
		sheetsWorker:  sheetsWorker,
		maxBorrowDays: maxBorrowDays,
		logger:        logger,
	}
}

func (s *BorrowService) validateDates(startDate, endDate time.Time) error {
	if startDate.Before(time.Now().AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}
	if endDate.Before(startDate) {
		return database.ErrPastDate
	}
	maxDate := time.Now().AddDate(0, 0, s.maxBorrowDays)
	if endDate.After(maxDate) {
		return database.ErrDateTooFar
	}
	return nil
}

func (s *BorrowService) SubmitRequest(ctx context.Context, session *models.Session, itemID, quantity int64, startDate, endDate time.Time, notes string) (*models.BorrowRequest, error) {
	if quantity <= 0 {
		return nil, database.ErrInvalidQuantity
	}
	if err := s.validateDates(startDate, endDate); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	req := &models.BorrowRequest{
		UserID:    session.UserID,
		UserName:  session.Name,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  quantity,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     notes,
	}
	if err := s.repo.CreateBorrowRequestWithLock(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBorrowSubmitted, req, session, "")
	s.enqueueLedgerSync(ctx)
	return req, nil
}

func (s *BorrowService) Approve(ctx context.Context, session *models.Session, id, version int64) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	if err := s.repo.ApproveBorrowRequest(ctx, id, version, session.UserID); err != nil {
		return err
	}
	metrics.IncBorrowDecision("approved")

	if req, err := s.repo.GetBorrowRequest(ctx, id); err == nil {
		s.publishEvent(events.EventBorrowApproved, req, session, "")
	}
	s.enqueueLedgerSync(ctx)
	return nil
}

func (s *BorrowService) Reject(ctx context.Context, session *models.Session, id, version int64, reason string) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	err := s.repo.UpdateBorrowStatusWithVersion(ctx, id, version,
		models.StatusPending, models.StatusRejected, session.UserID, reason)
	if err != nil {
		return err
	}
	metrics.IncBorrowDecision("rejected")

	if req, err := s.repo.GetBorrowRequest(ctx, id); err == nil {
		s.publishEvent(events.EventBorrowRejected, req, session, reason)
	}
	s.enqueueLedgerSync(ctx)
	return nil
}

// Cancel withdraws a pending request. Only the requester may cancel, and
// only while the request is still pending.
func (s *BorrowService) Cancel(ctx context.Context, session *models.Session, id, version int64) error {
	req, err := s.repo.GetBorrowRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.UserID != session.UserID {
		return ErrPermissionDenied
	}

	err = s.repo.UpdateBorrowStatusWithVersion(ctx, id, version,
		models.StatusPending, models.StatusCancelled, session.UserID, "")
	if err != nil {
		return err
	}
	metrics.IncBorrowDecision("cancelled")

	if req, err := s.repo.GetBorrowRequest(ctx, id); err == nil {
		s.publishEvent(events.EventBorrowCancelled, req, session, "")
	}
	s.enqueueLedgerSync(ctx)
	return nil
}

func (s *BorrowService) Return(ctx context.Context, session *models.Session, id, version int64, condition string) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}
	if condition != models.ConditionGood && condition != models.ConditionDamaged {
		return database.ErrInvalidCondition
	}

	if err := s.repo.ReturnBorrowRequest(ctx, id, version, session.UserID, condition); err != nil {
		return err
	}
	metrics.IncBorrowDecision("returned")

	if req, err := s.repo.GetBorrowRequest(ctx, id); err == nil {
		s.publishEvent(events.EventBorrowReturned, req, session, condition)
	}
	s.enqueueLedgerSync(ctx)
	return nil
}

func (s *BorrowService) Get(ctx context.Context, session *models.Session, id int64) (*models.BorrowRequest, error) {
	req, err := s.repo.GetBorrowRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != session.UserID && !session.IsStaff() {
		return nil, ErrPermissionDenied
	}
	return req, nil
}

// List returns all requests for staff, the caller's own otherwise. An
// empty status means no filter.
func (s *BorrowService) List(ctx context.Context, session *models.Session, status string) ([]*models.BorrowRequest, error) {
	if !session.IsStaff() {
		requests, err := s.repo.GetUserBorrowRequests(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return filterBorrowsByStatus(requests, status), nil
	}

	if status == "" {
		return s.repo.GetAllBorrowRequests(ctx)
	}
	return s.repo.GetBorrowRequestsByStatus(ctx, status)
}

func filterBorrowsByStatus(requests []*models.BorrowRequest, status string) []*models.BorrowRequest {
	if status == "" {
		return requests
	}
	var out []*models.BorrowRequest
	for _, req := range requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out
}

func (s *BorrowService) publishEvent(eventType string, req *models.BorrowRequest, session *models.Session, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BorrowEventPayload{
		RequestID: req.ID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		ItemID:    req.ItemID,
		ItemName:  req.ItemName,
		Quantity:  req.Quantity,
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    reason,
		ActorID:   session.UserID,
		ActorName: session.Name,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("request_id", req.ID).Msg("publish event error")
	}
}

func (s *BorrowService) enqueueLedgerSync(ctx context.Context) {
	if s.sheetsWorker == nil {
		return
	}
	if err := s.sheetsWorker.EnqueueLedgerSync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("ledger sync enqueue error")
	}
}
