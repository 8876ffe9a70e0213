package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/leo-stone-dot/qs_go/qs"
)

// ErrResponse is the JSON body of every failed request.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

// Application error codes.
const (
	CodeInvalidOption int64 = 1001
	CodeDepthExceeded int64 = 1002
)

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest maps qs errors to 400 responses.
func ErrInvalidRequest(err error) render.Renderer {
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
	switch {
	case errors.Is(err, qs.ErrInvalidOption):
		resp.AppCode = CodeInvalidOption
	case errors.Is(err, qs.ErrDepthExceeded):
		resp.AppCode = CodeDepthExceeded
	}
	return resp
}

// ErrTooLarge is returned for bodies over the configured limit.
func ErrTooLarge(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusRequestEntityTooLarge,
		StatusText:     "Request body too large.",
		ErrorText:      err.Error(),
	}
}

// errorType labels err for the error counter.
func errorType(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, qs.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, qs.ErrDepthExceeded):
		return "depth_exceeded"
	case errors.As(err, &tooLarge):
		return "too_large"
	default:
		return "bad_request"
	}
}
