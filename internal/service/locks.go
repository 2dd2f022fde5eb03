package service

import "sync"

// bookingLocks hands out one mutex per booking id so response recording is
// serialized per booking while distinct bookings proceed in parallel. Locks
// are never evicted; the registry grows with the number of bookings that ever
// received a response, which is bounded by the booking table.
type bookingLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *bookingLocks) lock(bookingID int64) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[bookingID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[bookingID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
