package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"krishi/internal/models"
)

const bookingColumns = `id, landowner_id, landowner_name, date(service_date),
                        days, service_type, num_labor, machine_type, created_at`

// CreateBooking persists a new booking. Bookings are immutable after this.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				landowner_id, landowner_name, service_date, days,
				service_type, num_labor, machine_type, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.LandownerID,
		booking.LandownerName,
		booking.ServiceDate.Format("2006-01-02"),
		booking.Days,
		booking.ServiceType,
		booking.NumLabor,
		booking.MachineType,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingsByLandowner returns a landowner's own bookings, newest first.
func (db *DB) GetBookingsByLandowner(ctx context.Context, landownerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE landowner_id = ? ORDER BY id DESC`
	return db.queryBookings(ctx, query, landownerID)
}

// GetBookingsByServiceTypes returns bookings whose service_type is any of the
// given values, newest first. Responder dashboards use this to list only the
// bookings that request their role.
func (db *DB) GetBookingsByServiceTypes(ctx context.Context, serviceTypes ...string) ([]*models.Booking, error) {
	if len(serviceTypes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(serviceTypes)), ", ")
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE service_type IN (` + placeholders + `) ORDER BY id DESC`

	args := make([]interface{}, len(serviceTypes))
	for i, st := range serviceTypes {
		args[i] = st
	}
	return db.queryBookings(ctx, query, args...)
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY id DESC`
	return db.queryBookings(ctx, query)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var dateStr string
	var machineType sql.NullString
	err := row.Scan(
		&booking.ID, &booking.LandownerID, &booking.LandownerName, &dateStr,
		&booking.Days, &booking.ServiceType, &booking.NumLabor, &machineType,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.MachineType = machineType.String
	booking.ServiceDate, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return &booking, nil
}
