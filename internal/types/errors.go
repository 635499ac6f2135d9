package types

// Error messages returned to the browser. Internal details never appear here.
const (
	ErrMsgMethodNotAllowed = "Method not allowed"
	ErrMsgUpstream         = "OpenAI error"
	ErrMsgServer           = "Server error"
)

// ErrorResponse is returned to the browser on failure.
// Details carries the upstream body text for upstream rejections only.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Details *string `json:"details,omitempty"`
}

// NewErrorResponse creates an error body without details.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// NewUpstreamErrorResponse creates the body relayed for a non-2xx upstream
// reply. details is always present in the output, even when empty.
func NewUpstreamErrorResponse(details string) *ErrorResponse {
	return &ErrorResponse{
		Error:   ErrMsgUpstream,
		Details: &details,
	}
}
