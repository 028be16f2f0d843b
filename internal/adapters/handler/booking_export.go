package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

const bookingsSheet = "Bookings"

var bookingColumns = []struct {
	header string
	width  float64
}{
	{"ID", 38},
	{"Guest", 24},
	{"Email", 30},
	{"Phone", 18},
	{"Room", 10},
	{"Check-in", 12},
	{"Check-out", 12},
	{"Nights", 8},
	{"Guests", 8},
	{"Total", 10},
	{"Status", 12},
	{"Payment", 12},
	{"Received", 20},
}

// Export serves the filtered admin booking list as an XLSX workbook.
func (h *BookingHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter := domain.BookingFilter{
		HostelID: r.URL.Query().Get("hostel_id"),
		Status:   domain.BookingStatus(strings.ToLower(r.URL.Query().Get("status"))),
	}
	bookings, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Failed to fetch bookings")
		return
	}

	data, err := exportBookingsXLSX(bookings)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgBookingNotFound, "Failed to export bookings")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"bookings_%s.xlsx\"", time.Now().Format("20060102")))
	_, _ = w.Write(data)
}

func exportBookingsXLSX(bookings []domain.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	for c, col := range bookingColumns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, col.header)
		name, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(bookingsSheet, name, name, col.width)
	}

	for i, b := range bookings {
		row := i + 2
		phone := ""
		if b.GuestPhone != nil {
			phone = *b.GuestPhone
		}
		values := []any{
			b.ID,
			b.GuestName,
			b.GuestEmail,
			phone,
			b.RoomID,
			b.CheckIn.String(),
			b.CheckOut.String(),
			b.Nights(),
			b.GuestCount,
			b.TotalPrice,
			string(b.Status),
			string(b.PaymentStatus),
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(bookingsSheet, cell, v)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#0A4843"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(bookingColumns), 1)
	_ = f.SetCellStyle(bookingsSheet, "A1", last, style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
