package values

type ContextKey string

// Statuses returned to handlers and mapped to HTTP codes in util.StatusCode.
const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	BadRequestBody = "bad-request"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not-allowed"
	Conflict       = "conflict"
	NotFound       = "not-found"
	NotAuthorised  = "not-authorised"
	TokenExpired   = "token-expired"
	ActiveLogin    = "active-login"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-Id"

	ContextTracingKey = ContextKey("tracing-context")
)

// Incident broadcast channel name used by the websocket manager.
const TopicIncidents = "incidents"
