package models

import "time"

// Booking is a landowner's request for labor and/or machinery over a date
// range. Immutable once created; fulfillment status is derived from the
// responses on file, never stored here.
type Booking struct {
	ID            int64     `json:"id"`
	LandownerID   int64     `json:"landowner_id"`
	LandownerName string    `json:"landowner_name"`
	ServiceDate   time.Time `json:"service_date"`
	Days          int       `json:"days"`
	ServiceType   string    `json:"service_type"` // labor, machinery, both
	NumLabor      int       `json:"num_labor"`    // 0 means no labor quota requested
	MachineType   string    `json:"machine_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// WantsLabor reports whether the booking requests laborer participation.
func (b *Booking) WantsLabor() bool {
	return b.ServiceType == ServiceLabor || b.ServiceType == ServiceBoth
}

// WantsMachinery reports whether the booking requests machinery participation.
func (b *Booking) WantsMachinery() bool {
	return b.ServiceType == ServiceMachinery || b.ServiceType == ServiceBoth
}
