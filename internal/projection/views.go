// Package projection assembles the evaluator's output into the role-scoped
// dashboard structures. Builders are pure: they take bookings, their
// responses and the population counts, and never touch the store.
package projection

import (
	"time"

	"krishi/internal/fulfillment"
	"krishi/internal/models"
)

// BookingStatus is the per-booking status block shared by the views.
type BookingStatus struct {
	ID          int64                 `json:"id"`
	ServiceDate time.Time             `json:"service_date"`
	Days        int                   `json:"days"`
	ServiceType string                `json:"service_type"`
	NumLabor    int                   `json:"num_labor,omitempty"`
	MachineType string                `json:"machine_type,omitempty"`
	Labor       fulfillment.SubStatus `json:"labor"`
	Machinery   fulfillment.SubStatus `json:"machinery"`
	Action      fulfillment.Action    `json:"action"`
}

// LandownerView lists a landowner's own bookings with full status detail.
type LandownerView struct {
	Bookings []BookingStatus `json:"bookings"`
}

// ResponderBooking is one row of a laborer's or machinery owner's dashboard.
// OpenForMore is advisory display state: it reflects the responses read for
// this projection, not a reservation.
type ResponderBooking struct {
	ID            int64     `json:"id"`
	LandownerName string    `json:"landowner_name"`
	ServiceDate   time.Time `json:"service_date"`
	Days          int       `json:"days"`
	ServiceType   string    `json:"service_type"`
	NumLabor      int       `json:"num_labor,omitempty"`
	MachineType   string    `json:"machine_type,omitempty"`
	StatusLabel   string    `json:"status_label"`
	Action        string    `json:"action"`
	HasResponded  bool      `json:"has_responded"`
	OpenForMore   bool      `json:"open_for_more"`
}

// ResponderView is the dashboard for one responder role.
type ResponderView struct {
	Role     string             `json:"role"`
	Bookings []ResponderBooking `json:"bookings"`
}

// AdminBooking augments the status block with landowner contact details.
type AdminBooking struct {
	BookingStatus
	LandownerID      int64  `json:"landowner_id"`
	LandownerName    string `json:"landowner_name"`
	LandownerContact string `json:"landowner_contact,omitempty"`
}

// UserSummary is one row of the admin user directories.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Contact  string `json:"contact,omitempty"`
	District string `json:"district,omitempty"`
}

// AdminView shows every booking and the per-role user directories.
type AdminView struct {
	Bookings        []AdminBooking `json:"bookings"`
	Landowners      []UserSummary  `json:"landowners"`
	Laborers        []UserSummary  `json:"laborers"`
	MachineryOwners []UserSummary  `json:"machinery_owners"`
}

// BuildLandownerView projects a landowner's bookings.
func BuildLandownerView(bookings []*models.Booking, responses map[int64][]*models.BookingResponse, pop fulfillment.Population) *LandownerView {
	view := &LandownerView{Bookings: make([]BookingStatus, 0, len(bookings))}
	for _, b := range bookings {
		view.Bookings = append(view.Bookings, bookingStatus(b, responses[b.ID], pop))
	}
	return view
}

// BuildLaborView projects bookings that request labor, annotated for the
// viewing laborer.
func BuildLaborView(viewerID int64, bookings []*models.Booking, responses map[int64][]*models.BookingResponse, pop fulfillment.Population) *ResponderView {
	view := &ResponderView{Role: models.RoleLabor, Bookings: make([]ResponderBooking, 0, len(bookings))}
	for _, b := range bookings {
		if !b.WantsLabor() {
			continue
		}
		rs := responses[b.ID]
		status := fulfillment.Evaluate(b, rs, pop)
		needed := fulfillment.NeededLabor(b)
		accepted := fulfillment.AcceptedCount(rs, models.RoleLabor)

		view.Bookings = append(view.Bookings, ResponderBooking{
			ID:            b.ID,
			LandownerName: b.LandownerName,
			ServiceDate:   b.ServiceDate,
			Days:          b.Days,
			ServiceType:   b.ServiceType,
			NumLabor:      b.NumLabor,
			StatusLabel:   status.Labor.Label,
			Action:        string(status.Action),
			HasResponded:  fulfillment.HasResponded(rs, viewerID),
			OpenForMore:   needed > 0 && accepted < needed,
		})
	}
	return view
}

// BuildMachineryView projects bookings that request machinery, annotated for
// the viewing owner. A booking stays open until any machinery acceptance is
// on file.
func BuildMachineryView(viewerID int64, bookings []*models.Booking, responses map[int64][]*models.BookingResponse, pop fulfillment.Population) *ResponderView {
	view := &ResponderView{Role: models.RoleMachinery, Bookings: make([]ResponderBooking, 0, len(bookings))}
	for _, b := range bookings {
		if !b.WantsMachinery() {
			continue
		}
		rs := responses[b.ID]
		status := fulfillment.Evaluate(b, rs, pop)

		view.Bookings = append(view.Bookings, ResponderBooking{
			ID:            b.ID,
			LandownerName: b.LandownerName,
			ServiceDate:   b.ServiceDate,
			Days:          b.Days,
			ServiceType:   b.ServiceType,
			MachineType:   b.MachineType,
			StatusLabel:   status.Machinery.Label,
			Action:        string(status.Action),
			HasResponded:  fulfillment.HasResponded(rs, viewerID),
			OpenForMore:   fulfillment.AcceptedCount(rs, models.RoleMachinery) == 0,
		})
	}
	return view
}

// BuildAdminView projects every booking plus the user directories. No
// per-viewer filtering.
func BuildAdminView(
	bookings []*models.Booking,
	responses map[int64][]*models.BookingResponse,
	pop fulfillment.Population,
	landowners, laborers, machineryOwners []*models.User,
) *AdminView {
	view := &AdminView{
		Bookings:        make([]AdminBooking, 0, len(bookings)),
		Landowners:      userSummaries(landowners),
		Laborers:        userSummaries(laborers),
		MachineryOwners: userSummaries(machineryOwners),
	}

	contacts := make(map[int64]string, len(landowners))
	for _, u := range landowners {
		contacts[u.ID] = u.Contact
	}

	for _, b := range bookings {
		view.Bookings = append(view.Bookings, AdminBooking{
			BookingStatus:    bookingStatus(b, responses[b.ID], pop),
			LandownerID:      b.LandownerID,
			LandownerName:    b.LandownerName,
			LandownerContact: contacts[b.LandownerID],
		})
	}
	return view
}

func bookingStatus(b *models.Booking, responses []*models.BookingResponse, pop fulfillment.Population) BookingStatus {
	status := fulfillment.Evaluate(b, responses, pop)
	return BookingStatus{
		ID:          b.ID,
		ServiceDate: b.ServiceDate,
		Days:        b.Days,
		ServiceType: b.ServiceType,
		NumLabor:    b.NumLabor,
		MachineType: b.MachineType,
		Labor:       status.Labor,
		Machinery:   status.Machinery,
		Action:      status.Action,
	}
}

func userSummaries(users []*models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.DisplayName(),
			Contact:  u.Contact,
			District: u.District,
		})
	}
	return out
}
