package api

import (
	"fmt"
	"net/http"
	"time"

	"geocms/internal/models"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportReservations streams the lab timetable workbook for a date
// range. Staff only.
func (s *HTTPServer) handleExportReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !sessionFrom(r).IsStaff() {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	startDate, endDate, err := exportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	daily, err := s.repo.GetDailyReservations(r.Context(), startDate, endDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	labs, err := s.repo.GetActiveLabs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	f, err := s.exporter.BuildTimetable(daily, labs, startDate, endDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("timetable_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	streamWorkbook(w, f, name)
}

// handleExportLedger streams the equipment ledger workbook. Staff only.
func (s *HTTPServer) handleExportLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !sessionFrom(r).IsStaff() {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	items, err := s.repo.GetActiveItems(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	requests, err := s.repo.GetAllBorrowRequests(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	f, err := s.exporter.BuildLedger(items, requests)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("ledger_%s.xlsx", time.Now().Format("2006-01-02"))
	streamWorkbook(w, f, name)
}

func exportRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 0, models.DefaultExportRangeDays)

	var err error
	if raw := r.URL.Query().Get("start"); raw != "" {
		if startDate, err = parseDateParam(raw); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start must be YYYY-MM-DD")
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		if endDate, err = parseDateParam(raw); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be YYYY-MM-DD")
		}
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("end is before start")
	}
	return startDate, endDate, nil
}

func streamWorkbook(w http.ResponseWriter, f *excelize.File, name string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_ = f.Write(w)
	_ = f.Close()
}
