package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID  = "user_id"
	ContextKeyProfile = "profile"
)

// Session
const SessionName = "opsdesk_session"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Invites expire after this many days
const InviteExpiryDays = 7

// SignedURLExpiry is how long document preview URLs stay valid
const SignedURLExpirySeconds = 900
