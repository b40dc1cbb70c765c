package database

import (
	"context"
	"testing"

	"geocms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestIssue(t *testing.T, db *DB, lab *models.Lab) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		LabID:        lab.ID,
		LabName:      lab.Name,
		Computer:     "PC-07",
		ReporterID:   1,
		ReporterName: "Student",
		Title:        "Monitor flickering",
		Description:  "Screen flickers whenever ArcGIS starts",
	}
	require.NoError(t, db.CreateIssue(context.Background(), issue))
	return issue
}

func TestIssueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "GIS Lab")
	issue := createTestIssue(t, db, lab)
	assert.Equal(t, models.IssuePending, issue.Status)

	// Creation leaves one history record.
	comments, err := db.GetIssueComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Issue reported", comments[0].Body)

	// Assignment auto-advances pending to in_progress.
	require.NoError(t, db.AssignIssue(ctx, issue.ID, 7, "Tech Silva", 42, "Staff Fernando"))

	loaded, err := db.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueInProgress, loaded.Status)
	require.NotNil(t, loaded.AssignedTo)
	assert.Equal(t, int64(7), *loaded.AssignedTo)
	assert.Equal(t, "Tech Silva", loaded.AssignedName)
	assert.Nil(t, loaded.ResolvedAt)

	// Reassignment keeps in_progress.
	require.NoError(t, db.AssignIssue(ctx, issue.ID, 8, "Tech Bandara", 42, "Staff Fernando"))
	loaded, err = db.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueInProgress, loaded.Status)
	assert.Equal(t, "Tech Bandara", loaded.AssignedName)

	require.NoError(t, db.ResolveIssue(ctx, issue.ID, 8, "Tech Bandara", "Replaced the display cable"))

	loaded, err = db.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, loaded.Status)
	require.NotNil(t, loaded.ResolvedBy)
	assert.Equal(t, int64(8), *loaded.ResolvedBy)
	require.NotNil(t, loaded.ResolvedAt)

	// The trail records every step in order.
	comments, err = db.GetIssueComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 4)
	assert.Equal(t, "Assigned to Tech Silva", comments[1].Body)
	assert.Equal(t, "Assigned to Tech Bandara", comments[2].Body)
	assert.Equal(t, "Replaced the display cable", comments[3].Body)
}

func TestIssueResolvedIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "Mineralogy Lab")
	issue := createTestIssue(t, db, lab)

	require.NoError(t, db.ResolveIssue(ctx, issue.ID, 8, "Tech Silva", ""))

	err := db.ResolveIssue(ctx, issue.ID, 9, "Tech Bandara", "")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	err = db.AssignIssue(ctx, issue.ID, 9, "Tech Bandara", 42, "Staff Fernando")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// The first resolver's stamp stays.
	loaded, err := db.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.ResolvedBy)
	assert.Equal(t, int64(8), *loaded.ResolvedBy)
}

func TestIssueResolveDefaultNote(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "Hydrology Lab")
	issue := createTestIssue(t, db, lab)

	require.NoError(t, db.ResolveIssue(ctx, issue.ID, 8, "Tech Silva", ""))

	comments, err := db.GetIssueComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Issue resolved", comments[1].Body)
}

func TestIssueComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "Survey Lab")
	issue := createTestIssue(t, db, lab)

	comment := &models.IssueComment{
		IssueID:    issue.ID,
		AuthorID:   1,
		AuthorName: "Student",
		Body:       "Also happens on PC-08",
	}
	require.NoError(t, db.AddIssueComment(ctx, comment))
	assert.NotZero(t, comment.ID)

	// Commenting on a missing issue fails.
	err := db.AddIssueComment(ctx, &models.IssueComment{IssueID: 9999, AuthorID: 1, Body: "?"})
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := db.GetIssueComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Also happens on PC-08", comments[1].Body)
}

func TestDeleteIssueRemovesTrail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "Teaching Lab")
	issue := createTestIssue(t, db, lab)
	require.NoError(t, db.AddIssueComment(ctx, &models.IssueComment{
		IssueID: issue.ID, AuthorID: 1, AuthorName: "Student", Body: "ping",
	}))

	require.NoError(t, db.DeleteIssue(ctx, issue.ID))

	_, err := db.GetIssue(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := db.GetIssueComments(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = db.DeleteIssue(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetIssuesByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lab := createTestLab(t, db, "Petrology Lab")
	open := createTestIssue(t, db, lab)
	closed := createTestIssue(t, db, lab)
	require.NoError(t, db.ResolveIssue(ctx, closed.ID, 8, "Tech Silva", ""))

	pending, err := db.GetIssuesByStatus(ctx, models.IssuePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)

	resolved, err := db.GetIssuesByStatus(ctx, models.IssueResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, closed.ID, resolved[0].ID)

	mine, err := db.GetUserIssues(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
