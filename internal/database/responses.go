package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"krishi/internal/models"
)

const responseColumns = `id, booking_id, responder_id, responder_name,
                         responder_role, decision, created_at`

// CreateResponse appends one responder's decision for a booking. The unique
// index on (booking_id, responder_id) makes first-response-wins hold even
// across concurrent submissions; a violation maps to ErrDuplicateResponse.
func (db *DB) CreateResponse(ctx context.Context, response *models.BookingResponse) error {
	query := `INSERT INTO booking_responses (
				booking_id, responder_id, responder_name, responder_role,
				decision, created_at
			) VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		response.BookingID,
		response.ResponderID,
		response.ResponderName,
		response.ResponderRole,
		response.Decision,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateResponse
		}
		return fmt.Errorf("failed to create response: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	response.ID = id
	response.CreatedAt = now
	return nil
}

// GetResponses returns all responses for a booking in insertion order, which
// is the arrival order the evaluator uses to fill the labor quota.
func (db *DB) GetResponses(ctx context.Context, bookingID int64) ([]*models.BookingResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM booking_responses WHERE booking_id = ? ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.BookingResponse
	for rows.Next() {
		r := &models.BookingResponse{}
		err := rows.Scan(
			&r.ID, &r.BookingID, &r.ResponderID, &r.ResponderName,
			&r.ResponderRole, &r.Decision, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// GetResponsesForBookings returns responses for many bookings in one query,
// grouped by booking id and ordered by insertion within each group. Dashboard
// projections use this to avoid a per-booking round trip.
func (db *DB) GetResponsesForBookings(ctx context.Context, bookingIDs []int64) (map[int64][]*models.BookingResponse, error) {
	result := make(map[int64][]*models.BookingResponse)
	if len(bookingIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(bookingIDs)), ", ")
	query := `SELECT ` + responseColumns + ` FROM booking_responses
              WHERE booking_id IN (` + placeholders + `) ORDER BY id ASC`

	args := make([]interface{}, len(bookingIDs))
	for i, id := range bookingIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses for bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &models.BookingResponse{}
		err := rows.Scan(
			&r.ID, &r.BookingID, &r.ResponderID, &r.ResponderName,
			&r.ResponderRole, &r.Decision, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		result[r.BookingID] = append(result[r.BookingID], r)
	}
	return result, rows.Err()
}

// HasResponded reports whether the responder already answered the booking.
func (db *DB) HasResponded(ctx context.Context, bookingID, responderID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM booking_responses WHERE booking_id = ? AND responder_id = ?`
	var count int
	err := db.QueryRowContext(ctx, query, bookingID, responderID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check response: %w", err)
	}
	return count > 0, nil
}
