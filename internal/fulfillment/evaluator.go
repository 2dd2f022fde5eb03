// Package fulfillment turns a booking's accumulated responses into its
// fulfillment status. Evaluation is a pure function of the booking, the
// responses in arrival order, and the global responder populations; it never
// touches the store, the clock, or any other ambient state, so the same
// inputs always produce the same status.
package fulfillment

import (
	"fmt"
	"strings"

	"krishi/internal/models"
)

// State is the fulfillment state of one resource dimension.
type State string

const (
	StateNotApplicable State = "Not Applicable"
	StatePending       State = "Pending"
	StatePartial       State = "Partial"
	StateConfirmed     State = "Confirmed"
	StateRejected      State = "Rejected"
)

// Terminal reports whether the state can no longer change the overall action.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateRejected
}

// Action is the overall booking disposition.
type Action string

const (
	ActionClosed  Action = "Closed"
	ActionPending Action = "Pending"
)

// Population holds the global count of registered responders per role,
// snapshotted by the caller at evaluation time.
type Population struct {
	Labor     int
	Machinery int
}

// SubStatus is the evaluated state of one resource dimension plus the
// responder names that count toward fulfilling it.
type SubStatus struct {
	State    State    `json:"state"`
	Accepted []string `json:"accepted,omitempty"`
	Label    string   `json:"label"`
}

// Status is the full evaluation result for a booking.
type Status struct {
	Labor     SubStatus `json:"labor"`
	Machinery SubStatus `json:"machinery"`
	Action    Action    `json:"action"`
}

// NormalizeServiceType canonicalizes a raw service type for comparison.
// Unrecognized values pass through trimmed and lowercased; the evaluator
// treats them as never closable.
func NormalizeServiceType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Evaluate computes the fulfillment status of a booking from the complete set
// of its responses, in arrival order, plus the responder populations.
func Evaluate(b *models.Booking, responses []*models.BookingResponse, pop Population) Status {
	serviceType := NormalizeServiceType(b.ServiceType)
	c := tally(responses)

	labor := laborStatus(serviceType, b.NumLabor, c, pop)
	machinery := machineryStatus(serviceType, c, pop)

	return Status{
		Labor:     labor,
		Machinery: machinery,
		Action:    overallAction(serviceType, labor.State, machinery.State),
	}
}

// NeededLabor returns the effective labor quota for a booking: the requested
// count when labor is part of the service type, zero otherwise.
func NeededLabor(b *models.Booking) int {
	serviceType := NormalizeServiceType(b.ServiceType)
	if serviceType != models.ServiceLabor && serviceType != models.ServiceBoth {
		return 0
	}
	if b.NumLabor < 0 {
		return 0
	}
	return b.NumLabor
}

// AcceptedCount returns how many responses of the given role are acceptances.
func AcceptedCount(responses []*models.BookingResponse, role string) int {
	n := 0
	for _, r := range responses {
		if r.ResponderRole == role && r.Accepted() {
			n++
		}
	}
	return n
}

// HasResponded reports whether the responder already answered the booking.
func HasResponded(responses []*models.BookingResponse, responderID int64) bool {
	for _, r := range responses {
		if r.ResponderID == responderID {
			return true
		}
	}
	return false
}

type counts struct {
	acceptedLabor     []string // names in arrival order
	rejectedLabor     int
	acceptedMachinery []string
	rejectedMachinery int
}

func tally(responses []*models.BookingResponse) counts {
	var c counts
	for _, r := range responses {
		switch r.ResponderRole {
		case models.RoleLabor:
			if r.Accepted() {
				c.acceptedLabor = append(c.acceptedLabor, r.ResponderName)
			} else {
				c.rejectedLabor++
			}
		case models.RoleMachinery:
			if r.Accepted() {
				c.acceptedMachinery = append(c.acceptedMachinery, r.ResponderName)
			} else {
				c.rejectedMachinery++
			}
		}
	}
	return c
}

func laborStatus(serviceType string, numLabor int, c counts, pop Population) SubStatus {
	if serviceType != models.ServiceLabor && serviceType != models.ServiceBoth {
		return SubStatus{State: StateNotApplicable, Label: string(StateNotApplicable)}
	}
	if numLabor <= 0 {
		// No quantity was ever requested; labor fulfillment cannot be
		// judged quantitatively.
		return SubStatus{State: StateNotApplicable, Label: string(StateNotApplicable)}
	}

	if len(c.acceptedLabor) >= numLabor {
		// Arrival order decides which acceptances fill the quota; later
		// acceptances stay on file but do not count toward it.
		accepted := append([]string(nil), c.acceptedLabor[:numLabor]...)
		return SubStatus{State: StateConfirmed, Accepted: accepted, Label: string(StateConfirmed)}
	}

	if pop.Labor > 0 && c.rejectedLabor >= pop.Labor {
		// Every registered laborer has declined.
		return SubStatus{State: StateRejected, Label: string(StateRejected)}
	}

	return SubStatus{
		State: StatePartial,
		Label: fmt.Sprintf("%d/%d Accepted", len(c.acceptedLabor), numLabor),
	}
}

func machineryStatus(serviceType string, c counts, pop Population) SubStatus {
	if serviceType != models.ServiceMachinery && serviceType != models.ServiceBoth {
		return SubStatus{State: StateNotApplicable, Label: string(StateNotApplicable)}
	}

	if len(c.acceptedMachinery) > 0 {
		// A single acceptance fulfills the booking; every accepting owner
		// is recorded as a confirmed provider.
		accepted := append([]string(nil), c.acceptedMachinery...)
		return SubStatus{State: StateConfirmed, Accepted: accepted, Label: string(StateConfirmed)}
	}

	if pop.Machinery > 0 && c.rejectedMachinery >= pop.Machinery {
		return SubStatus{State: StateRejected, Label: string(StateRejected)}
	}

	return SubStatus{State: StatePending, Label: string(StatePending)}
}

func overallAction(serviceType string, labor, machinery State) Action {
	switch serviceType {
	case models.ServiceBoth:
		if labor.Terminal() && machinery.Terminal() {
			return ActionClosed
		}
	case models.ServiceLabor:
		if labor.Terminal() {
			return ActionClosed
		}
	case models.ServiceMachinery:
		if machinery.Terminal() {
			return ActionClosed
		}
	}
	// Unrecognized service types never close.
	return ActionPending
}
