package service

import (
	"context"
	"errors"
	"fmt"

	"krishi/internal/database"
	"krishi/internal/domain"
	"krishi/internal/events"
	"krishi/internal/fulfillment"
	"krishi/internal/metrics"
	"krishi/internal/models"
	"krishi/internal/projection"

	"github.com/rs/zerolog"
)

// BookingService owns booking creation, response recording and the dashboard
// projections. Fulfillment status is evaluated fresh from the responses on
// file at every read; it is never stored.
type BookingService struct {
	repo     domain.Repository
	users    domain.UserService
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	locks    *bookingLocks
}

func NewBookingService(repo domain.Repository, users domain.UserService, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
		logger:   logger,
		locks:    newBookingLocks(),
	}
}

// CreateBooking validates and persists a landowner's service request.
func (s *BookingService) CreateBooking(ctx context.Context, landownerID int64, input models.Booking) (*models.Booking, error) {
	landowner, err := s.repo.GetUserByID(ctx, landownerID)
	if err != nil {
		return nil, err
	}
	if landowner.Role != models.RoleLandowner {
		return nil, fmt.Errorf("%w: only landowners create bookings", database.ErrInvalidRole)
	}

	serviceType := fulfillment.NormalizeServiceType(input.ServiceType)
	switch serviceType {
	case models.ServiceLabor, models.ServiceMachinery, models.ServiceBoth:
	default:
		return nil, fmt.Errorf("%w: unknown service type %q", database.ErrInvalidInput, input.ServiceType)
	}
	if input.Days < 1 || input.Days > models.MaxBookingDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", database.ErrInvalidInput, models.MaxBookingDays)
	}
	if input.NumLabor < 0 {
		return nil, fmt.Errorf("%w: num_labor must not be negative", database.ErrInvalidInput)
	}
	if input.ServiceDate.IsZero() {
		return nil, fmt.Errorf("%w: service date is required", database.ErrInvalidInput)
	}

	booking := &models.Booking{
		LandownerID:   landownerID,
		LandownerName: landowner.DisplayName(),
		ServiceDate:   input.ServiceDate,
		Days:          input.Days,
		ServiceType:   serviceType,
		NumLabor:      input.NumLabor,
		MachineType:   input.MachineType,
	}
	if !booking.WantsLabor() {
		booking.NumLabor = 0
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishBookingEvent(events.EventBookingCreated, booking)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("service_type", booking.ServiceType).
		Int("num_labor", booking.NumLabor).
		Msg("booking created")

	return booking, nil
}

// SubmitResponse records a responder's decision for a booking. Recording is
// serialized per booking so the evaluator's quota check and the insert are
// atomic with respect to other submissions for the same booking; reads stay
// lock-free. The store's unique index keeps first-response-wins regardless.
func (s *BookingService) SubmitResponse(ctx context.Context, bookingID, responderID int64, decision string) (*models.BookingResponse, error) {
	if !models.ValidDecision(decision) {
		return nil, fmt.Errorf("%w: unknown decision %q", database.ErrInvalidInput, decision)
	}

	responder, err := s.repo.GetUserByID(ctx, responderID)
	if err != nil {
		return nil, err
	}
	if responder.Role != models.RoleLabor && responder.Role != models.RoleMachinery {
		return nil, fmt.Errorf("%w: role %q cannot respond to bookings", database.ErrInvalidRole, responder.Role)
	}

	mu := s.locks.lock(bookingID)
	defer mu.Unlock()

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// A responder whose role the booking never requested is rejected at
	// write time rather than silently recorded and ignored.
	if responder.Role == models.RoleLabor && !booking.WantsLabor() {
		return nil, fmt.Errorf("%w: booking %d does not request labor", database.ErrInvalidRole, bookingID)
	}
	if responder.Role == models.RoleMachinery && !booking.WantsMachinery() {
		return nil, fmt.Errorf("%w: booking %d does not request machinery", database.ErrInvalidRole, bookingID)
	}

	responded, err := s.repo.HasResponded(ctx, bookingID, responderID)
	if err != nil {
		return nil, err
	}
	if responded {
		metrics.IncDuplicateResponse()
		return nil, database.ErrDuplicateResponse
	}

	response := &models.BookingResponse{
		BookingID:     bookingID,
		ResponderID:   responderID,
		ResponderName: responder.DisplayName(),
		ResponderRole: responder.Role,
		Decision:      decision,
	}
	if err := s.repo.CreateResponse(ctx, response); err != nil {
		if errors.Is(err, database.ErrDuplicateResponse) {
			metrics.IncDuplicateResponse()
		}
		return nil, err
	}

	metrics.IncResponseRecorded(responder.Role, decision)

	status, err := s.Status(ctx, bookingID)
	if err != nil {
		// The response is committed; status evaluation is read-side only.
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("status evaluation after response failed")
		return response, nil
	}

	if s.eventBus != nil {
		payload := events.ResponseEventPayload{
			BookingID:     bookingID,
			ResponderID:   responderID,
			ResponderName: response.ResponderName,
			ResponderRole: response.ResponderRole,
			Decision:      decision,
			LaborStatus:   status.Labor.Label,
			MachineStatus: status.Machinery.Label,
			Action:        string(status.Action),
		}
		if err := s.eventBus.PublishJSON(events.EventResponseRecorded, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("publish event error")
		}
	}
	if status.Action == fulfillment.ActionClosed {
		metrics.IncBookingClosed()
		s.publishBookingEvent(events.EventBookingClosed, booking)
	}

	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("responder_id", responderID).
		Str("decision", decision).
		Str("action", string(status.Action)).
		Msg("response recorded")

	return response, nil
}

// Status evaluates the booking's fulfillment from the responses on file.
func (s *BookingService) Status(ctx context.Context, bookingID int64) (fulfillment.Status, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return fulfillment.Status{}, err
	}
	responses, err := s.repo.GetResponses(ctx, bookingID)
	if err != nil {
		return fulfillment.Status{}, err
	}
	pop, err := s.users.Population(ctx)
	if err != nil {
		return fulfillment.Status{}, err
	}
	return fulfillment.Evaluate(booking, responses, pop), nil
}

// LandownerView returns the landowner's own bookings with full status.
func (s *BookingService) LandownerView(ctx context.Context, landownerID int64) (*projection.LandownerView, error) {
	viewer, err := s.repo.GetUserByID(ctx, landownerID)
	if err != nil {
		return nil, err
	}
	if viewer.Role != models.RoleLandowner {
		return nil, fmt.Errorf("%w: user %d is not a landowner", database.ErrInvalidRole, landownerID)
	}

	bookings, err := s.repo.GetBookingsByLandowner(ctx, landownerID)
	if err != nil {
		return nil, err
	}
	responses, pop, err := s.responsesAndPopulation(ctx, bookings)
	if err != nil {
		return nil, err
	}
	return projection.BuildLandownerView(bookings, responses, pop), nil
}

// LaborView returns every booking requesting labor, annotated for the viewer.
func (s *BookingService) LaborView(ctx context.Context, viewerID int64) (*projection.ResponderView, error) {
	if err := s.requireRole(ctx, viewerID, models.RoleLabor); err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByServiceTypes(ctx, models.ServiceLabor, models.ServiceBoth)
	if err != nil {
		return nil, err
	}
	responses, pop, err := s.responsesAndPopulation(ctx, bookings)
	if err != nil {
		return nil, err
	}
	return projection.BuildLaborView(viewerID, bookings, responses, pop), nil
}

// MachineryView returns every booking requesting machinery, annotated for
// the viewer.
func (s *BookingService) MachineryView(ctx context.Context, viewerID int64) (*projection.ResponderView, error) {
	if err := s.requireRole(ctx, viewerID, models.RoleMachinery); err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByServiceTypes(ctx, models.ServiceMachinery, models.ServiceBoth)
	if err != nil {
		return nil, err
	}
	responses, pop, err := s.responsesAndPopulation(ctx, bookings)
	if err != nil {
		return nil, err
	}
	return projection.BuildMachineryView(viewerID, bookings, responses, pop), nil
}

// AdminView returns every booking plus the user directories.
func (s *BookingService) AdminView(ctx context.Context) (*projection.AdminView, error) {
	bookings, err := s.repo.GetAllBookings(ctx)
	if err != nil {
		return nil, err
	}
	responses, pop, err := s.responsesAndPopulation(ctx, bookings)
	if err != nil {
		return nil, err
	}

	landowners, err := s.repo.GetUsersByRole(ctx, models.RoleLandowner)
	if err != nil {
		return nil, err
	}
	laborers, err := s.repo.GetUsersByRole(ctx, models.RoleLabor)
	if err != nil {
		return nil, err
	}
	machineryOwners, err := s.repo.GetUsersByRole(ctx, models.RoleMachinery)
	if err != nil {
		return nil, err
	}

	return projection.BuildAdminView(bookings, responses, pop, landowners, laborers, machineryOwners), nil
}

func (s *BookingService) requireRole(ctx context.Context, userID int64, role string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != role {
		return fmt.Errorf("%w: user %d is not %s", database.ErrInvalidRole, userID, role)
	}
	return nil
}

func (s *BookingService) responsesAndPopulation(ctx context.Context, bookings []*models.Booking) (map[int64][]*models.BookingResponse, fulfillment.Population, error) {
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	responses, err := s.repo.GetResponsesForBookings(ctx, ids)
	if err != nil {
		return nil, fulfillment.Population{}, err
	}
	pop, err := s.users.Population(ctx)
	if err != nil {
		return nil, fulfillment.Population{}, err
	}
	return responses, pop, nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		LandownerID:   booking.LandownerID,
		LandownerName: booking.LandownerName,
		ServiceType:   booking.ServiceType,
		ServiceDate:   booking.ServiceDate,
		NumLabor:      booking.NumLabor,
		MachineType:   booking.MachineType,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
