package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrBookNotFound is returned when a book is not found.
	ErrBookNotFound = errors.New("book not found")
	// ErrReviewNotFound is returned when a review is not found.
	ErrReviewNotFound = errors.New("review not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when the username or email is taken.
	ErrUserAlreadyExists = errors.New("user with this username or email already exists")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWeakPassword is returned when a password fails the acceptance policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters with one uppercase letter and one digit")
	// ErrInvalidRating is returned when a rating is outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidRole is returned when a role is outside the closed enumeration.
	ErrInvalidRole = errors.New("unknown role")
	// ErrInvalidToken is returned when a token fails signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotReviewOwner is returned when a caller mutates a review they do not own.
	ErrNotReviewOwner = errors.New("you can only modify your own reviews")
	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrLLMUnavailable is returned when the LLM provider is unreachable.
	ErrLLMUnavailable = errors.New("llm provider unavailable")
	// ErrLLMNotConfigured is returned when no LLM API key is set.
	ErrLLMNotConfigured = errors.New("llm service not configured")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrBookNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "BOOK_NOT_FOUND")
	case errors.Is(err, ErrReviewNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "REVIEW_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrWeakPassword):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "WEAK_PASSWORD")
	case errors.Is(err, ErrInvalidRating):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_RATING")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrNotReviewOwner):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_REVIEW_OWNER")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrLLMUnavailable), errors.Is(err, ErrLLMNotConfigured):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "LLM_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
