// Package export renders the admin booking report as an XLSX workbook.
package export

import (
	"fmt"
	"strings"

	"krishi/internal/projection"

	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

var bookingHeaders = []string{
	"ID", "Landowner", "Contact", "Service Date", "Days", "Service Type",
	"Labor Needed", "Machine Type", "Labor Status", "Machinery Status",
	"Accepted Labor", "Accepted Machinery", "Action",
}

// BuildBookingsReport renders every booking of the admin view into a
// workbook. The caller owns closing or saving the returned file.
func BuildBookingsReport(view *projection.AdminView) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for col, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	for i, b := range view.Bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.LandownerName,
			b.LandownerContact,
			b.ServiceDate.Format("2006-01-02"),
			b.Days,
			b.ServiceType,
			b.NumLabor,
			b.MachineType,
			b.Labor.Label,
			b.Machinery.Label,
			strings.Join(b.Labor.Accepted, ", "),
			strings.Join(b.Machinery.Accepted, ", "),
			string(b.Action),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingsSheet, "B", "M", 18)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
