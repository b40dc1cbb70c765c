package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"geocms/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter builds xlsx workbooks for the reservation timetable and the
// equipment ledger.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// BuildTimetable lays labs out as rows and dates as columns, one cell
// listing the day's windows for that lab.
func (e *Exporter) BuildTimetable(daily map[string][]*models.Reservation, labs []*models.Lab, startDate, endDate time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheetName = "Timetable"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Lab timetable: %s - %s",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	dateCols := writeDateHeaders(f, sheetName, startDate, endDate)
	writeLabHeaders(f, sheetName, labs)
	e.writeReservationCells(f, sheetName, daily, labs, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 24)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// SaveTimetable writes the timetable workbook under the export directory
// and returns its path.
func (e *Exporter) SaveTimetable(daily map[string][]*models.Reservation, labs []*models.Lab, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.BuildTimetable(daily, labs, startDate, endDate)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("timetable_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Timetable export created")
	return filePath, nil
}

// BuildLedger produces a two-sheet workbook: the items sheet with the
// quantity ledger and a requests sheet with the full borrow history.
func (e *Exporter) BuildLedger(items []*models.Item, requests []*models.BorrowRequest) (*excelize.File, error) {
	f := excelize.NewFile()

	const itemsSheet = "Equipment"
	index, err := f.NewSheet(itemsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Name", "Category", "Total", "Available", "Borrowed", "Maintenance"}
	writeHeaderRow(f, itemsSheet, headers)

	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.ID)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Name)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Category)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Total)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.Available)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), item.Borrowed)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("G%d", row), item.Maintenance)
	}
	_ = f.SetColWidth(itemsSheet, "B", "B", 30)

	const requestsSheet = "Requests"
	if _, err := f.NewSheet(requestsSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}

	reqHeaders := []string{"ID", "User", "Item", "Quantity", "Start", "End", "Status", "Condition", "Submitted"}
	writeHeaderRow(f, requestsSheet, reqHeaders)

	for i, req := range requests {
		row := i + 2
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("A%d", row), req.ID)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("B%d", row), req.UserName)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("C%d", row), req.ItemName)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("D%d", row), req.Quantity)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("E%d", row), req.StartDate.Format("2006-01-02"))
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("F%d", row), req.EndDate.Format("2006-01-02"))
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("G%d", row), req.Status)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("H%d", row), req.ReturnCondition)
		_ = f.SetCellValue(requestsSheet, fmt.Sprintf("I%d", row), req.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = f.SetColWidth(requestsSheet, "B", "C", 25)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateCols := make(map[string]int)

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("Mon 02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateCols[currentDate.Format("2006-01-02")] = col

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateCols
}

func writeLabHeaders(f *excelize.File, sheetName string, labs []*models.Lab) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, lab := range labs {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (cap. %d)", lab.Name, lab.Capacity))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		row++
	}
}

func (e *Exporter) writeReservationCells(f *excelize.File, sheetName string,
	daily map[string][]*models.Reservation, labs []*models.Lab, dateCols map[string]int,
) {
	for dateKey, reservations := range daily {
		col, exists := dateCols[dateKey]
		if !exists {
			continue
		}

		byLab := make(map[int64][]*models.Reservation)
		for _, res := range reservations {
			byLab[res.LabID] = append(byLab[res.LabID], res)
		}

		row := 3
		for _, lab := range labs {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			labReservations := activeReservations(byLab[lab.ID])

			var cellValue string
			for _, res := range labReservations {
				cellValue += fmt.Sprintf("%s-%s %s (%s)\n", res.StartTime, res.EndTime, res.UserName, res.Status)
				if res.Purpose != "" {
					cellValue += fmt.Sprintf("   %s\n", res.Purpose)
				}
			}
			if cellValue == "" {
				cellValue = "free"
			}
			_ = f.SetCellValue(sheetName, cell, cellValue)

			if styleID, err := reservationCellStyle(f, labReservations); err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
			row++
		}
	}
}

// activeReservations drops cancelled and rejected entries from a cell.
func activeReservations(reservations []*models.Reservation) []*models.Reservation {
	var active []*models.Reservation
	for _, res := range reservations {
		if res.Status == models.StatusCancelled || res.Status == models.StatusRejected {
			continue
		}
		active = append(active, res)
	}
	return active
}

func reservationCellStyle(f *excelize.File, reservations []*models.Reservation) (int, error) {
	fillColor := "#FFFFFF"
	if len(reservations) > 0 {
		fillColor = "#C6EFCE"
		for _, res := range reservations {
			if res.Status == models.StatusPending {
				fillColor = "#FFEB9C"
				break
			}
		}
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}
