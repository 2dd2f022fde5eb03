package projection

import (
	"testing"
	"time"

	"krishi/internal/fulfillment"
	"krishi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(id int64, serviceType string, numLabor int) *models.Booking {
	return &models.Booking{
		ID:            id,
		LandownerID:   1,
		LandownerName: "Ramesh",
		ServiceDate:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Days:          2,
		ServiceType:   serviceType,
		NumLabor:      numLabor,
		MachineType:   "tractor",
	}
}

func testResponse(bookingID, responderID int64, role, decision string) *models.BookingResponse {
	return &models.BookingResponse{
		BookingID:     bookingID,
		ResponderID:   responderID,
		ResponderName: "Responder",
		ResponderRole: role,
		Decision:      decision,
	}
}

func TestBuildLandownerView(t *testing.T) {
	bookings := []*models.Booking{
		testBooking(1, models.ServiceLabor, 2),
		testBooking(2, models.ServiceMachinery, 0),
	}
	responses := map[int64][]*models.BookingResponse{
		1: {testResponse(1, 10, models.RoleLabor, models.DecisionAccept)},
	}
	pop := fulfillment.Population{Labor: 5, Machinery: 2}

	view := BuildLandownerView(bookings, responses, pop)
	require.Len(t, view.Bookings, 2)

	assert.Equal(t, fulfillment.StatePartial, view.Bookings[0].Labor.State)
	assert.Equal(t, "1/2 Accepted", view.Bookings[0].Labor.Label)
	assert.Equal(t, fulfillment.ActionPending, view.Bookings[0].Action)

	assert.Equal(t, fulfillment.StateNotApplicable, view.Bookings[1].Labor.State)
	assert.Equal(t, fulfillment.StatePending, view.Bookings[1].Machinery.State)
}

func TestBuildLaborView_OpenForMore(t *testing.T) {
	bookings := []*models.Booking{testBooking(1, models.ServiceLabor, 2)}
	pop := fulfillment.Population{Labor: 5}

	view := BuildLaborView(99, bookings, nil, pop)
	require.Len(t, view.Bookings, 1)
	assert.Equal(t, models.RoleLabor, view.Role)
	assert.True(t, view.Bookings[0].OpenForMore)
	assert.False(t, view.Bookings[0].HasResponded)

	// Quota filled: no longer open.
	responses := map[int64][]*models.BookingResponse{
		1: {
			testResponse(1, 10, models.RoleLabor, models.DecisionAccept),
			testResponse(1, 99, models.RoleLabor, models.DecisionAccept),
		},
	}
	view = BuildLaborView(99, bookings, responses, pop)
	require.Len(t, view.Bookings, 1)
	assert.False(t, view.Bookings[0].OpenForMore)
	assert.True(t, view.Bookings[0].HasResponded)
}

func TestBuildLaborView_SkipsMachineryOnlyBookings(t *testing.T) {
	bookings := []*models.Booking{
		testBooking(1, models.ServiceLabor, 1),
		testBooking(2, models.ServiceMachinery, 0),
		testBooking(3, models.ServiceBoth, 1),
	}

	view := BuildLaborView(99, bookings, nil, fulfillment.Population{Labor: 3})
	require.Len(t, view.Bookings, 2)
	assert.Equal(t, int64(1), view.Bookings[0].ID)
	assert.Equal(t, int64(3), view.Bookings[1].ID)
}

func TestBuildMachineryView_OpenUntilAccepted(t *testing.T) {
	bookings := []*models.Booking{testBooking(1, models.ServiceMachinery, 0)}
	pop := fulfillment.Population{Machinery: 2}

	view := BuildMachineryView(99, bookings, nil, pop)
	require.Len(t, view.Bookings, 1)
	assert.True(t, view.Bookings[0].OpenForMore)

	responses := map[int64][]*models.BookingResponse{
		1: {testResponse(1, 50, models.RoleMachinery, models.DecisionAccept)},
	}
	view = BuildMachineryView(99, bookings, responses, pop)
	require.Len(t, view.Bookings, 1)
	assert.False(t, view.Bookings[0].OpenForMore)
	assert.Equal(t, string(fulfillment.StateConfirmed), view.Bookings[0].StatusLabel)
}

func TestBuildAdminView(t *testing.T) {
	bookings := []*models.Booking{testBooking(1, models.ServiceBoth, 1)}
	landowners := []*models.User{{
		ID:       1,
		Username: "ramesh",
		Name:     "Ramesh",
		Contact:  "9999999999",
		Role:     models.RoleLandowner,
	}}
	laborers := []*models.User{{ID: 10, Username: "suresh", Role: models.RoleLabor}}

	view := BuildAdminView(bookings, nil, fulfillment.Population{Labor: 1}, landowners, laborers, nil)

	require.Len(t, view.Bookings, 1)
	assert.Equal(t, "Ramesh", view.Bookings[0].LandownerName)
	assert.Equal(t, "9999999999", view.Bookings[0].LandownerContact)

	require.Len(t, view.Landowners, 1)
	assert.Equal(t, "ramesh", view.Landowners[0].Username)

	require.Len(t, view.Laborers, 1)
	// DisplayName falls back to the username when name is empty.
	assert.Equal(t, "suresh", view.Laborers[0].Name)

	assert.Empty(t, view.MachineryOwners)
}
