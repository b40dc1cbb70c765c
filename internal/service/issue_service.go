package service

import (
	"context"
	"strings"

	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/events"
	"geocms/internal/metrics"
	"geocms/internal/models"

	"github.com/rs/zerolog"
)

type IssueService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewIssueService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *IssueService {
	return &IssueService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *IssueService) Report(ctx context.Context, session *models.Session, labID int64, computer, title, description string) (*models.Issue, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, database.ErrInvalidTitle
	}

	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return nil, err
	}

	issue := &models.Issue{
		LabID:        lab.ID,
		LabName:      lab.Name,
		Computer:     computer,
		ReporterID:   session.UserID,
		ReporterName: session.Name,
		Title:        title,
		Description:  description,
	}
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}
	metrics.IncIssueTransition(models.IssuePending)

	s.publishEvent(events.EventIssueReported, issue, session)
	return issue, nil
}

func (s *IssueService) Assign(ctx context.Context, session *models.Session, id, technicianID int64) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	technician, err := s.repo.GetUserByID(ctx, technicianID)
	if err != nil {
		return err
	}
	if !models.IsStaffRole(technician.Role) {
		return ErrPermissionDenied
	}

	err = s.repo.AssignIssue(ctx, id, technician.ID, technician.Name, session.UserID, session.Name)
	if err != nil {
		return err
	}
	metrics.IncIssueTransition(models.IssueInProgress)

	if issue, err := s.repo.GetIssue(ctx, id); err == nil {
		s.publishEvent(events.EventIssueAssigned, issue, session)
	}
	return nil
}

func (s *IssueService) Resolve(ctx context.Context, session *models.Session, id int64, note string) error {
	if !session.IsStaff() {
		return ErrPermissionDenied
	}

	if err := s.repo.ResolveIssue(ctx, id, session.UserID, session.Name, note); err != nil {
		return err
	}
	metrics.IncIssueTransition(models.IssueResolved)

	if issue, err := s.repo.GetIssue(ctx, id); err == nil {
		s.publishEvent(events.EventIssueResolved, issue, session)
	}
	return nil
}

// Comment appends to the issue's history. The trail is append-only, so
// there is no corresponding edit or delete.
func (s *IssueService) Comment(ctx context.Context, session *models.Session, id int64, body string) (*models.IssueComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, database.ErrInvalidTitle
	}

	comment := &models.IssueComment{
		IssueID:    id,
		AuthorID:   session.UserID,
		AuthorName: session.Name,
		Body:       body,
	}
	if err := s.repo.AddIssueComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes an issue and its history. Administrators only.
func (s *IssueService) Delete(ctx context.Context, session *models.Session, id int64) error {
	if !session.IsAdmin() {
		return ErrPermissionDenied
	}
	return s.repo.DeleteIssue(ctx, id)
}

func (s *IssueService) Get(ctx context.Context, session *models.Session, id int64) (*models.Issue, []*models.IssueComment, error) {
	issue, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if issue.ReporterID != session.UserID && !session.IsStaff() {
		return nil, nil, ErrPermissionDenied
	}

	comments, err := s.repo.GetIssueComments(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return issue, comments, nil
}

func (s *IssueService) List(ctx context.Context, session *models.Session, status string) ([]*models.Issue, error) {
	if !session.IsStaff() {
		issues, err := s.repo.GetUserIssues(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return filterIssuesByStatus(issues, status), nil
	}

	if status == "" {
		return s.repo.GetAllIssues(ctx)
	}
	return s.repo.GetIssuesByStatus(ctx, status)
}

func filterIssuesByStatus(issues []*models.Issue, status string) []*models.Issue {
	if status == "" {
		return issues
	}
	var out []*models.Issue
	for _, issue := range issues {
		if issue.Status == status {
			out = append(out, issue)
		}
	}
	return out
}

func (s *IssueService) publishEvent(eventType string, issue *models.Issue, session *models.Session) {
	if s.eventBus == nil {
		return
	}

	payload := events.IssueEventPayload{
		IssueID:      issue.ID,
		LabID:        issue.LabID,
		LabName:      issue.LabName,
		Computer:     issue.Computer,
		ReporterID:   issue.ReporterID,
		ReporterName: issue.ReporterName,
		Title:        issue.Title,
		Status:       issue.Status,
		AssignedName: issue.AssignedName,
		ActorID:      session.UserID,
		ActorName:    session.Name,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("issue_id", issue.ID).Msg("publish event error")
	}
}
