package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocms/internal/models"
)

const issueColumns = `id, lab_id, lab_name, computer, reporter_id, reporter_name,
                      title, description, status, assigned_to, assigned_name,
                      resolved_by, resolved_at, created_at, updated_at`

// CreateIssue inserts the report and its first history record in one
// transaction.
func (db *DB) CreateIssue(ctx context.Context, issue *models.Issue) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO issues (lab_id, lab_name, computer, reporter_id, reporter_name,
                             title, description, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.LabID, issue.LabName, issue.Computer, issue.ReporterID, issue.ReporterName,
		issue.Title, issue.Description, models.IssuePending, now, now)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := appendIssueCommentTx(ctx, tx, id, issue.ReporterID, issue.ReporterName, "Issue reported", now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issue: %w", err)
	}

	issue.ID = id
	issue.Status = models.IssuePending
	issue.CreatedAt = now
	issue.UpdatedAt = now
	return nil
}

// AssignIssue sets the technician and auto-advances a pending issue to
// in_progress. Assigning a resolved issue fails. A history record is
// appended in the same transaction.
func (db *DB) AssignIssue(ctx context.Context, id int64, technicianID int64, technicianName string, actorID int64, actorName string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	issue, err := getIssueTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if issue.Status == models.IssueResolved {
		return ErrAlreadyResolved
	}

	status := issue.Status
	if status == models.IssuePending {
		status = models.IssueInProgress
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE issues SET assigned_to = ?, assigned_name = ?, status = ?, updated_at = ?
         WHERE id = ?`,
		technicianID, technicianName, status, now, id)
	if err != nil {
		return fmt.Errorf("failed to assign issue: %w", err)
	}

	note := fmt.Sprintf("Assigned to %s", technicianName)
	if err := appendIssueCommentTx(ctx, tx, id, actorID, actorName, note, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignment: %w", err)
	}
	return nil
}

// ResolveIssue marks the issue resolved, recording resolver and timestamp
// together. Resolving an already-resolved issue fails rather than silently
// succeeding.
func (db *DB) ResolveIssue(ctx context.Context, id, resolverID int64, resolverName, note string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	res, err := tx.ExecContext(ctx,
		`UPDATE issues SET status = ?, resolved_by = ?, resolved_at = ?, updated_at = ?
         WHERE id = ? AND status != ?`,
		models.IssueResolved, resolverID, now, now, id, models.IssueResolved)
	if err != nil {
		return fmt.Errorf("failed to resolve issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getIssueTx(ctx, tx, id); err != nil {
			return err
		}
		return ErrAlreadyResolved
	}

	if note == "" {
		note = "Issue resolved"
	}
	if err := appendIssueCommentTx(ctx, tx, id, resolverID, resolverName, note, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}
	return nil
}

// AddIssueComment appends one immutable history record.
func (db *DB) AddIssueComment(ctx context.Context, comment *models.IssueComment) error {
	if _, err := db.GetIssue(ctx, comment.IssueID); err != nil {
		return err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO issue_comments (issue_id, author_id, author_name, body, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		comment.IssueID, comment.AuthorID, comment.AuthorName, comment.Body, now)
	if err != nil {
		return fmt.Errorf("failed to add issue comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	comment.CreatedAt = now
	return nil
}

// DeleteIssue removes the report and its entire history trail.
func (db *DB) DeleteIssue(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_comments WHERE issue_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete issue comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}
	return nil
}

func (db *DB) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id = ?`
	issue, err := scanIssue(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

func getIssueTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id = ?`
	issue, err := scanIssue(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue in tx: %w", err)
	}
	return issue, nil
}

func (db *DB) GetIssuesByStatus(ctx context.Context, status string) ([]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE status = ? ORDER BY created_at ASC`
	return db.queryIssues(ctx, query, status)
}

func (db *DB) GetUserIssues(ctx context.Context, reporterID int64) ([]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE reporter_id = ? ORDER BY created_at DESC`
	return db.queryIssues(ctx, query, reporterID)
}

func (db *DB) GetAllIssues(ctx context.Context) ([]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues ORDER BY created_at DESC`
	return db.queryIssues(ctx, query)
}

func (db *DB) GetIssueComments(ctx context.Context, issueID int64) ([]*models.IssueComment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, issue_id, author_id, author_name, body, created_at
         FROM issue_comments WHERE issue_id = ? ORDER BY created_at ASC, id ASC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.IssueComment
	for rows.Next() {
		var c models.IssueComment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (db *DB) queryIssues(ctx context.Context, query string, args ...interface{}) ([]*models.Issue, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []*models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	var issue models.Issue
	var computer, description, assignedName sql.NullString
	var assignedTo, resolvedBy sql.NullInt64
	var resolvedAt sql.NullTime
	err := row.Scan(
		&issue.ID, &issue.LabID, &issue.LabName, &computer, &issue.ReporterID, &issue.ReporterName,
		&issue.Title, &description, &issue.Status, &assignedTo, &assignedName,
		&resolvedBy, &resolvedAt, &issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	issue.Computer = computer.String
	issue.Description = description.String
	issue.AssignedName = assignedName.String
	if assignedTo.Valid {
		issue.AssignedTo = &assignedTo.Int64
	}
	if resolvedBy.Valid {
		issue.ResolvedBy = &resolvedBy.Int64
	}
	if resolvedAt.Valid {
		issue.ResolvedAt = &resolvedAt.Time
	}
	return &issue, nil
}

func appendIssueCommentTx(ctx context.Context, tx *sql.Tx, issueID, authorID int64, authorName, body string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO issue_comments (issue_id, author_id, author_name, body, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		issueID, authorID, authorName, body, at)
	if err != nil {
		return fmt.Errorf("failed to append issue comment: %w", err)
	}
	return nil
}
