package service

import (
	"context"
	"io"
	"time"

	"geocms/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func staffSession() *models.Session {
	return &models.Session{Token: "t-staff", UserID: 42, Username: "staff", Name: "Staff Fernando", Role: models.RoleStaff}
}

func studentSession() *models.Session {
	return &models.Session{Token: "t-stud", UserID: 1, Username: "student", Name: "J. Perera", Role: models.RoleStudent}
}

func adminSession() *models.Session {
	return &models.Session{Token: "t-admin", UserID: 99, Username: "admin", Name: "Admin", Role: models.RoleAdmin}
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *mockRepo) GetItemByName(ctx context.Context, n string) (*models.Item, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *mockRepo) GetActiveItems(ctx context.Context) ([]*models.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) GetLabByID(ctx context.Context, id int64) (*models.Lab, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lab), args.Error(1)
}
func (m *mockRepo) GetActiveLabs(ctx context.Context) ([]*models.Lab, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lab), args.Error(1)
}

func (m *mockRepo) CreateBorrowRequestWithLock(ctx context.Context, req *models.BorrowRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockRepo) ApproveBorrowRequest(ctx context.Context, id, v, aid int64) error {
	return m.Called(ctx, id, v, aid).Error(0)
}
func (m *mockRepo) ReturnBorrowRequest(ctx context.Context, id, v, sid int64, c string) error {
	return m.Called(ctx, id, v, sid, c).Error(0)
}
func (m *mockRepo) UpdateBorrowStatusWithVersion(ctx context.Context, id, v int64, from, to string, aid int64, r string) error {
	return m.Called(ctx, id, v, from, to, aid, r).Error(0)
}
func (m *mockRepo) GetBorrowRequest(ctx context.Context, id int64) (*models.BorrowRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BorrowRequest), args.Error(1)
}
func (m *mockRepo) GetUserBorrowRequests(ctx context.Context, uid int64) ([]*models.BorrowRequest, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BorrowRequest), args.Error(1)
}
func (m *mockRepo) GetBorrowRequestsByStatus(ctx context.Context, s string) ([]*models.BorrowRequest, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BorrowRequest), args.Error(1)
}
func (m *mockRepo) GetAllBorrowRequests(ctx context.Context) ([]*models.BorrowRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BorrowRequest), args.Error(1)
}

func (m *mockRepo) CreateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	return m.Called(ctx, res).Error(0)
}
func (m *mockRepo) UpdateReservationStatusWithVersion(ctx context.Context, id, v int64, from, to string, aid int64, r string) error {
	return m.Called(ctx, id, v, from, to, aid, r).Error(0)
}
func (m *mockRepo) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockRepo) GetLabWindows(ctx context.Context, lid int64, d time.Time) ([]models.Window, error) {
	args := m.Called(ctx, lid, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Window), args.Error(1)
}
func (m *mockRepo) GetUserReservations(ctx context.Context, uid int64) ([]*models.Reservation, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockRepo) GetReservationsByStatus(ctx context.Context, s string) ([]*models.Reservation, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockRepo) GetReservationsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockRepo) GetDailyReservations(ctx context.Context, s, e time.Time) (map[string][]*models.Reservation, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*models.Reservation), args.Error(1)
}

func (m *mockRepo) CreateIssue(ctx context.Context, issue *models.Issue) error {
	return m.Called(ctx, issue).Error(0)
}
func (m *mockRepo) AssignIssue(ctx context.Context, id, tid int64, tn string, aid int64, an string) error {
	return m.Called(ctx, id, tid, tn, aid, an).Error(0)
}
func (m *mockRepo) ResolveIssue(ctx context.Context, id, rid int64, rn, n string) error {
	return m.Called(ctx, id, rid, rn, n).Error(0)
}
func (m *mockRepo) AddIssueComment(ctx context.Context, c *models.IssueComment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) DeleteIssue(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Issue), args.Error(1)
}
func (m *mockRepo) GetIssueComments(ctx context.Context, id int64) ([]*models.IssueComment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssueComment), args.Error(1)
}
func (m *mockRepo) GetIssuesByStatus(ctx context.Context, s string) ([]*models.Issue, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Issue), args.Error(1)
}
func (m *mockRepo) GetUserIssues(ctx context.Context, rid int64) ([]*models.Issue, error) {
	args := m.Called(ctx, rid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Issue), args.Error(1)
}
func (m *mockRepo) GetAllIssues(ctx context.Context) ([]*models.Issue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Issue), args.Error(1)
}

func (m *mockRepo) CreateOrUpdateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByUsername(ctx context.Context, n string) (*models.User, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUsersByRole(ctx context.Context, r string) ([]*models.User, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) UpdateUserActivity(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) VerifyLedger(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTimetableSync(ctx context.Context, s, e time.Time) error {
	return m.Called(ctx, s, e).Error(0)
}
func (m *mockWorker) EnqueueLedgerSync(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
