package export

import (
	"testing"
	"time"

	"krishi/internal/fulfillment"
	"krishi/internal/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBookingsReport(t *testing.T) {
	view := &projection.AdminView{
		Bookings: []projection.AdminBooking{
			{
				BookingStatus: projection.BookingStatus{
					ID:          1,
					ServiceDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
					Days:        2,
					ServiceType: "both",
					NumLabor:    2,
					MachineType: "tractor",
					Labor: fulfillment.SubStatus{
						State:    fulfillment.StateConfirmed,
						Accepted: []string{"Suresh", "Mahesh"},
						Label:    "Confirmed",
					},
					Machinery: fulfillment.SubStatus{
						State: fulfillment.StatePending,
						Label: "Pending",
					},
					Action: fulfillment.ActionPending,
				},
				LandownerID:      1,
				LandownerName:    "Ramesh",
				LandownerContact: "9999999999",
			},
		},
	}

	f, err := BuildBookingsReport(view)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), bookingsSheet)
	assert.NotContains(t, f.GetSheetList(), "Sheet1")

	header, err := f.GetCellValue(bookingsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	name, err := f.GetCellValue(bookingsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh", name)

	acceptedLabor, err := f.GetCellValue(bookingsSheet, "K2")
	require.NoError(t, err)
	assert.Equal(t, "Suresh, Mahesh", acceptedLabor)

	action, err := f.GetCellValue(bookingsSheet, "M2")
	require.NoError(t, err)
	assert.Equal(t, "Pending", action)
}

func TestBuildBookingsReport_Empty(t *testing.T) {
	f, err := BuildBookingsReport(&projection.AdminView{})
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(bookingsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	empty, err := f.GetCellValue(bookingsSheet, "A2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
