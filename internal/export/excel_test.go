package export

import (
	"io"
	"testing"
	"time"

	"geocms/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	logger := zerolog.New(io.Discard)
	return NewExporter(t.TempDir(), &logger)
}

func TestBuildTimetable(t *testing.T) {
	e := newTestExporter(t)

	start, _ := time.Parse("2006-01-02", "2026-09-07")
	end := start.AddDate(0, 0, 2)

	labs := []*models.Lab{
		{ID: 1, Name: "GIS Lab", Capacity: 30},
		{ID: 2, Name: "Mineralogy Lab", Capacity: 20},
	}
	daily := map[string][]*models.Reservation{
		"2026-09-07": {
			{LabID: 1, LabName: "GIS Lab", UserName: "J. Perera", StartTime: "09:00", EndTime: "11:00", Status: models.StatusApproved, Purpose: "practical"},
			{LabID: 1, LabName: "GIS Lab", UserName: "K. Silva", StartTime: "11:00", EndTime: "13:00", Status: models.StatusPending},
			{LabID: 2, LabName: "Mineralogy Lab", UserName: "M. Fernando", StartTime: "10:00", EndTime: "12:00", Status: models.StatusCancelled},
		},
	}

	f, err := e.BuildTimetable(daily, labs, start, end)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Timetable", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "2026-09-07")

	// Row 3 / column B is the first lab on the first date.
	cell, err := f.GetCellValue("Timetable", "B3")
	require.NoError(t, err)
	assert.Contains(t, cell, "09:00-11:00 J. Perera")
	assert.Contains(t, cell, "11:00-13:00 K. Silva")

	// Cancelled reservations do not appear; the lab shows as free.
	cell, err = f.GetCellValue("Timetable", "B4")
	require.NoError(t, err)
	assert.Equal(t, "free", cell)
}

func TestSaveTimetable(t *testing.T) {
	e := newTestExporter(t)

	start, _ := time.Parse("2006-01-02", "2026-09-07")
	path, err := e.SaveTimetable(map[string][]*models.Reservation{}, nil, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Timetable")
}

func TestBuildLedger(t *testing.T) {
	e := newTestExporter(t)

	items := []*models.Item{
		{ID: 1, Name: "Brunton Compass", Category: "field", Total: 10, Available: 7, Borrowed: 2, Maintenance: 1},
	}
	requests := []*models.BorrowRequest{
		{ID: 5, UserName: "J. Perera", ItemName: "Brunton Compass", Quantity: 2,
			StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 3),
			Status: models.StatusReturned, ReturnCondition: models.ConditionDamaged, CreatedAt: time.Now()},
	}

	f, err := e.BuildLedger(items, requests)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Equipment", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Brunton Compass", name)

	maintenance, err := f.GetCellValue("Equipment", "G2")
	require.NoError(t, err)
	assert.Equal(t, "1", maintenance)

	condition, err := f.GetCellValue("Requests", "H2")
	require.NoError(t, err)
	assert.Equal(t, models.ConditionDamaged, condition)
}
