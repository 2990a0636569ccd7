package internal

const (
	// ErrCodeUnknown is the error code for unknown errors
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeRepoError is returned when the request to a repo fails with an error
	ErrCodeRepoError = "STORAGE_QUERY_FAILED"
	// ErrCodeIllegalJSON is returned when the request did not contain a valid JSON body
	ErrCodeIllegalJSON = "ILLEGAL_JSON_REQUEST"
	// ErrCodeValidationFailed is returned when any field in the transferred data does not validate
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	// ErrCodeInvalidUint is returned when an ID is required inside a request, but is not provided or in a wrong format
	ErrCodeInvalidUint = "INVALID_UINT"
	// ErrCodeIllegalDate is returned when a date parameter cannot be parsed
	ErrCodeIllegalDate = "ILLEGAL_DATE"
	// ErrCodeEventNotFound is returned when an operation works on an event that does not exist
	ErrCodeEventNotFound = "EVENT_NOT_FOUND"
	// ErrCodeSongNotFound is returned when a referenced song does not exist
	ErrCodeSongNotFound = "SONG_NOT_FOUND"
	// ErrCodeBlockoutNotFound is returned when an operation works on a blockout window that does not exist
	// or that the requesting user is not allowed to see
	ErrCodeBlockoutNotFound = "BLOCKOUT_NOT_FOUND"
	// ErrCodeUserNotFound is returned when a referenced user account does not exist
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	// ErrCodeDuplicateSetlistEntry is returned when a song is added to an event's set list a second time
	ErrCodeDuplicateSetlistEntry = "DUPLICATE_SETLIST_ENTRY"
	// ErrCodeDuplicateEmail is returned when a user account is created or updated with an email address
	// that is already taken
	ErrCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// ErrCodeLoginFailed is returned when the user fails to login for some reason
	ErrCodeLoginFailed = "LOGIN_FAILED"
	// ErrCodeNotLoggedIn is returned when the user tried to access an API that needs a logged-in user, but the user
	// has no authenticated session
	ErrCodeNotLoggedIn = "NOT_LOGGED_IN"
	// ErrCodeForbidden is returned when the logged-in user lacks the role required for an operation
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeRateLimitExceeded is returned when a client exceeds one of the request rate limits
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidAPIKey is returned when a service client presents a missing or unknown API key
	ErrCodeInvalidAPIKey = "INVALID_API_KEY"
)

// HTTPError is an error that contains information about the error message to return to the client
type HTTPError struct {
	message string
	code    string
	status  int
	data    interface{}
}

// MakeError creates a new HTTPError with the given contents
func MakeError(status int, code, message string) *HTTPError {
	return MakeErrorWithData(status, code, message, nil)
}

// MakeErrorWithData creates a new HTTPError with the given contents and an additional data element
func MakeErrorWithData(status int, code, message string, data interface{}) *HTTPError {
	return &HTTPError{message, code, status, data}
}

// Error implements the errorer interface
func (e *HTTPError) Error() string {
	return e.message
}

// Status returns the HTTP status that should be returned
func (e *HTTPError) Status() int {
	return e.status
}

// ErrorCode returns the machine-readable error code
func (e *HTTPError) ErrorCode() string {
	return e.code
}

// Data returns additional data about the error
func (e *HTTPError) Data() interface{} {
	return e.data
}
