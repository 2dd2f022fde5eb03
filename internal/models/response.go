package models

import "time"

// BookingResponse is one responder's Accept/Reject decision on one booking.
// At most one row ever exists per (booking, responder) pair; the store
// enforces this with a unique index. Responder name and role are snapshotted
// at submission time so status evaluation needs no user join.
type BookingResponse struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	ResponderID   int64     `json:"responder_id"`
	ResponderName string    `json:"responder_name"`
	ResponderRole string    `json:"responder_role"` // labor, machinery
	Decision      string    `json:"decision"`       // Accept, Reject
	CreatedAt     time.Time `json:"created_at"`
}

// Accepted reports whether the response is an acceptance.
func (r *BookingResponse) Accepted() bool {
	return r.Decision == DecisionAccept
}
