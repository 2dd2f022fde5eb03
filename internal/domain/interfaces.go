package domain

import (
	"context"
	"time"

	"krishi/internal/fulfillment"
	"krishi/internal/models"
	"krishi/internal/projection"
)

// Repository is the entity store surface consumed by the services.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User, passwordHash string) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (int64, string, error)
	CountUsersByRole(ctx context.Context, role string) (int, error)
	GetUsersByRole(ctx context.Context, role string) ([]*models.User, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingsByLandowner(ctx context.Context, landownerID int64) ([]*models.Booking, error)
	GetBookingsByServiceTypes(ctx context.Context, serviceTypes ...string) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)

	CreateResponse(ctx context.Context, response *models.BookingResponse) error
	GetResponses(ctx context.Context, bookingID int64) ([]*models.BookingResponse, error)
	GetResponsesForBookings(ctx context.Context, bookingIDs []int64) (map[int64][]*models.BookingResponse, error)
	HasResponded(ctx context.Context, bookingID, responderID int64) (bool, error)
}

// SessionRepository stores login sessions for the HTTP surface.
type SessionRepository interface {
	SetSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	ClearSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher publishes domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// UserService is the identity store surface.
type UserService interface {
	Register(ctx context.Context, user *models.User, password string) error
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
	Population(ctx context.Context) (fulfillment.Population, error)
	UsersByRole(ctx context.Context, role string) ([]*models.User, error)
}

// BookingService owns booking creation, response recording and the four
// role-scoped dashboard projections.
type BookingService interface {
	CreateBooking(ctx context.Context, landownerID int64, input models.Booking) (*models.Booking, error)
	SubmitResponse(ctx context.Context, bookingID, responderID int64, decision string) (*models.BookingResponse, error)
	Status(ctx context.Context, bookingID int64) (fulfillment.Status, error)
	LandownerView(ctx context.Context, landownerID int64) (*projection.LandownerView, error)
	LaborView(ctx context.Context, viewerID int64) (*projection.ResponderView, error)
	MachineryView(ctx context.Context, viewerID int64) (*projection.ResponderView, error)
	AdminView(ctx context.Context) (*projection.AdminView, error)
}
