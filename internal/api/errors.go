package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/internal/service"
	"example.com/backstage/services/ingest/internal/store"
	"example.com/backstage/services/ingest/internal/tracing"
)

const internalServerError = "Internal Server Error"

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Details    map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error represents an API error
type Error struct {
	StatusCode int
	Message    string
	Details    map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// NewError creates an API error with the given status
func NewError(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// NewValidationError creates a 400 carrying a list of problems
func NewValidationError(message string, problems ...string) *Error {
	e := &Error{StatusCode: http.StatusBadRequest, Message: message}
	if len(problems) > 0 {
		e.Details = map[string]any{"errors": problems}
	}
	return e
}

// NewNotFoundError creates the 404 for a missing record
func NewNotFoundError(id string) *Error {
	return NewError(http.StatusNotFound, fmt.Sprintf("Record with id %s not found", id))
}

// toAPIError maps domain errors onto API errors. Anything unknown is a 500
// whose cause stays in the server log.
func toAPIError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError("Invalid query parameters", validationMessages(verrs)...)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return newTooLargeError(tooLarge)
	}

	switch {
	case errors.Is(err, service.ErrInvalidData),
		errors.Is(err, service.ErrInvalidMetadata),
		errors.Is(err, store.ErrInvalidPayload):
		return NewValidationError(err.Error())
	case errors.Is(err, store.ErrInvalidPagination):
		return NewValidationError("Invalid pagination parameters")
	case errors.Is(err, store.ErrNotFound):
		return NewError(http.StatusNotFound, "Record not found")
	}

	return NewError(http.StatusInternalServerError, internalServerError)
}

func newTooLargeError(err *http.MaxBytesError) *Error {
	return &Error{
		StatusCode: http.StatusRequestEntityTooLarge,
		Message:    "Request body too large",
		Details:    map[string]any{"limit": err.Limit},
	}
}

// bodyError classifies a JSON binding failure on the ingest body
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return newTooLargeError(tooLarge)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.As(err, &typeErr) {
		return service.ErrInvalidData
	}
	return NewValidationError("Invalid JSON body", err.Error())
}

// ErrorHandler renders the last error pushed with c.Error as the error envelope
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		apiErr := toAPIError(err)

		if apiErr.StatusCode >= http.StatusInternalServerError {
			tracing.NoticeError(requestContext(c), err)
			log.Error().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status_code", apiErr.StatusCode).
				Str("request_id", c.GetString(requestIDKey)).
				Msgf("%+v", err)
		} else {
			log.Warn().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status_code", apiErr.StatusCode).
				Str("request_id", c.GetString(requestIDKey)).
				Msg(apiErr.Message)
		}

		writeError(c, apiErr)
	}
}

func writeError(c *gin.Context, apiErr *Error) {
	c.AbortWithStatusJSON(apiErr.StatusCode, ErrorResponse{
		Error: ErrorBody{
			Message:    apiErr.Message,
			StatusCode: apiErr.StatusCode,
			Details:    apiErr.Details,
		},
	})
}

// NotFoundHandler answers unmatched routes
func NotFoundHandler(c *gin.Context) {
	_ = c.Error(NewError(http.StatusNotFound,
		fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)))
}
