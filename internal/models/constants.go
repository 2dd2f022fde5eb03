package models

const (
	RoleAdmin     = "admin"
	RoleLandowner = "landowner"
	RoleLabor     = "labor"
	RoleMachinery = "machinery"
)

const (
	ServiceLabor     = "labor"
	ServiceMachinery = "machinery"
	ServiceBoth      = "both"
)

const (
	DecisionAccept = "Accept"
	DecisionReject = "Reject"
)

const (
	// DefaultSessionTTL lifetime of a login session in seconds
	DefaultSessionTTL = 24 * 60 * 60

	// RateLimitRequests number of requests per window
	RateLimitRequests = 20

	// RateLimitWindow rate limit window in seconds
	RateLimitWindow = 60

	// LoginRateLimit maximum login attempts per client per window
	LoginRateLimit = 10

	// MaxBookingDays maximum booking duration in days
	MaxBookingDays = 90
)

// Roles lists every registrable role.
var Roles = []string{RoleAdmin, RoleLandowner, RoleLabor, RoleMachinery}

// ResponderRoles lists the roles allowed to answer a booking.
var ResponderRoles = []string{RoleLabor, RoleMachinery}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidDecision reports whether decision is Accept or Reject.
func ValidDecision(decision string) bool {
	return decision == DecisionAccept || decision == DecisionReject
}
