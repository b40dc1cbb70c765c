package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"geocms/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	timetableSheetName = "Timetable"
	itemsSheetName     = "Equipment"
	requestsSheetName  = "Requests"
)

// SheetsService mirrors the lab timetable and the equipment ledger into
// Google Sheets using a service account.
type SheetsService struct {
	service           *sheets.Service
	timetableSpreadID string
	ledgerSpreadID    string
}

func NewSheetsService(credentialsFile, timetableSpreadID, ledgerSpreadID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:           srv,
		timetableSpreadID: timetableSpreadID,
		ledgerSpreadID:    ledgerSpreadID,
	}, nil
}

// TestConnection reads the first timetable cell to verify access.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.timetableSpreadID, timetableSheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail returns the service account email, useful for
// telling admins whom to share the spreadsheet with.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// ReplaceTimetableSheet rewrites the timetable sheet with a lab-by-date
// grid for the given range.
func (s *SheetsService) ReplaceTimetableSheet(ctx context.Context, startDate, endDate time.Time,
	daily map[string][]*models.Reservation, labs []*models.Lab) error {

	clearRange := timetableSheetName + "!A:Z"
	_, err := s.service.Spreadsheets.Values.Clear(s.timetableSpreadID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to clear timetable sheet: %v", err)
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	if days <= 0 {
		return fmt.Errorf("invalid date range: %s to %s",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	var data [][]interface{}
	data = append(data, []interface{}{
		fmt.Sprintf("Lab timetable: %s to %s",
			startDate.Format("02.01.2006"), endDate.Format("02.01.2006")),
	})
	data = append(data, []interface{}{})

	// Date columns, labs as rows.
	dateCols := make(map[string]int)
	headerRow := []interface{}{""}
	for d, col := startDate, 1; !d.After(endDate); d, col = d.AddDate(0, 0, 1), col+1 {
		headerRow = append(headerRow, d.Format("Mon 02.01"))
		dateCols[d.Format("2006-01-02")] = col
	}
	data = append(data, headerRow)

	for _, lab := range labs {
		row := make([]interface{}, len(headerRow))
		row[0] = lab.Name
		for i := 1; i < len(row); i++ {
			row[i] = "free"
		}

		for dateStr, reservations := range daily {
			col, ok := dateCols[dateStr]
			if !ok {
				continue
			}
			var cell strings.Builder
			for _, res := range reservations {
				if res.LabID != lab.ID {
					continue
				}
				if res.Status == models.StatusCancelled || res.Status == models.StatusRejected {
					continue
				}
				fmt.Fprintf(&cell, "%s-%s %s (%s)\n", res.StartTime, res.EndTime, res.UserName, res.Status)
			}
			if cell.Len() > 0 {
				row[col] = strings.TrimRight(cell.String(), "\n")
			}
		}
		data = append(data, row)
	}

	return s.writeRange(ctx, s.timetableSpreadID, timetableSheetName, data)
}

// ReplaceLedgerSheet rewrites the equipment and requests sheets.
func (s *SheetsService) ReplaceLedgerSheet(ctx context.Context, items []*models.Item, requests []*models.BorrowRequest) error {
	itemRows := [][]interface{}{
		{"ID", "Name", "Category", "Total", "Available", "Borrowed", "Maintenance"},
	}
	for _, item := range items {
		itemRows = append(itemRows, []interface{}{
			item.ID, item.Name, item.Category,
			item.Total, item.Available, item.Borrowed, item.Maintenance,
		})
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.ledgerSpreadID, itemsSheetName+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear equipment sheet: %v", err)
	}
	if err := s.writeRange(ctx, s.ledgerSpreadID, itemsSheetName, itemRows); err != nil {
		return err
	}

	requestRows := [][]interface{}{
		{"ID", "User", "Item", "Quantity", "Start", "End", "Status", "Condition", "Submitted"},
	}
	for _, req := range requests {
		requestRows = append(requestRows, []interface{}{
			req.ID, req.UserName, req.ItemName, req.Quantity,
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"),
			req.Status, req.ReturnCondition,
			req.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.ledgerSpreadID, requestsSheetName+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear requests sheet: %v", err)
	}
	return s.writeRange(ctx, s.ledgerSpreadID, requestsSheetName, requestRows)
}

func (s *SheetsService) writeRange(ctx context.Context, spreadID, sheetName string, values [][]interface{}) error {
	rangeData := fmt.Sprintf("%s!A1", sheetName)
	valueRange := &sheets.ValueRange{Values: values}

	_, err := s.service.Spreadsheets.Values.Update(spreadID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to update %s sheet: %v", sheetName, err)
	}
	return nil
}
