package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/services"
)

const dateLayout = "2006-01-02"

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // error kind, e.g. ConstraintViolation
}

// WriteResponse reports the relational outcome of a write and whether the
// document mirror caught up.
type WriteResponse struct {
	ID           uint   `json:"id"`
	MirrorSynced bool   `json:"mirror_synced"`
	MirrorError  string `json:"mirror_error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

func writeResponse(o services.Outcome, data any) WriteResponse {
	resp := WriteResponse{ID: o.ID, MirrorSynced: o.MirrorSynced(), Data: data}
	if o.MirrorErr != nil {
		resp.MirrorError = o.MirrorErr.Error()
	}
	return resp
}

// --- Error Response Helpers ---

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalid:
		return http.StatusBadRequest
	case errs.KindConstraint:
		return http.StatusConflict
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindEmptyOrder:
		return http.StatusUnprocessableEntity
	case errs.KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError translates a service failure into a JSON error. Server
// side failures are logged and their cause is not exposed.
func respondServiceError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("Internal error (%s %s): %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, ErrorResponse{Error: http.StatusText(status), Code: string(kind)})
		return
	}
	msg := err.Error()
	var e *errs.Error
	if errors.As(err, &e) && e.Err != nil {
		msg = e.Err.Error()
	}
	c.JSON(status, ErrorResponse{Error: msg, Code: string(kind)})
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

// respondCreated sends a 201 Created response for a write.
func respondCreated(c *gin.Context, o services.Outcome, data any) {
	c.JSON(http.StatusCreated, writeResponse(o, data))
}

// respondWritten sends a 200 OK response for a write.
func respondWritten(c *gin.Context, o services.Outcome, data any) {
	c.JSON(http.StatusOK, writeResponse(o, data))
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// optionalString returns a pointer to the query value, or nil when absent.
func optionalString(c *gin.Context, name string) *string {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func optionalInt(c *gin.Context, name string) (*int, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &n, true
}

func optionalDecimal(c *gin.Context, name string) (*decimal.Decimal, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &d, true
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	n, ok := optionalInt(c, name)
	if !ok {
		return 0, false
	}
	if n == nil {
		return def, true
	}
	return *n, true
}

func queryDate(c *gin.Context, name string) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		respondBadRequest(c, name+" is required")
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		respondBadRequest(c, "invalid "+name+", expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
