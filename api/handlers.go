/*
handlers.go - HTTP API handlers for the reservation engine

PURPOSE:
  Exposes the booking Service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the booking package.

ENDPOINTS:
  Room types:
    GET    /api/room-types                     List catalog
    POST   /api/room-types                     Add or replace a room type
    GET    /api/room-types/{id}                Get one room type
    GET    /api/room-types/{id}/availability   ?check_in=&check_out=
    GET    /api/room-types/{id}/calendar       ?view=blocking|inventory&start=

  Reservations:
    POST   /api/quotes                         Price a stay, no write
    POST   /api/reservations                   Book
    GET    /api/reservations/{ref}             Get
    PATCH  /api/reservations/{ref}             Modify (re-admits on date/room change)
    DELETE /api/reservations/{ref}             Hard delete (admin)
    POST   /api/reservations/{ref}/confirm     Confirm a hold
    POST   /api/reservations/{ref}/cancel      Cancel (cutoff enforced)

  Admin:
    POST   /api/admin/reservations             Staff booking (accepts a discount)
    POST   /api/admin/expire-holds             Run hold expiry now
    GET    /api/admin/hold-expiry              Last scheduled run

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: the booking engine (validation, admission, pricing, lifecycle)
  - RoomTypeFactory: JSON to RoomType conversion
  - Scheduler: optional, for reporting the last hold expiry run

REQUEST FLOW:
  1. Parse HTTP request
  2. Reject undecodable bodies (validator tags)
  3. Call the Service
  4. Serialize response
  5. Map errors by booking.KindOf

ERROR HANDLING:
  Errors are returned as ErrorResponse with code = booking kind:
  - 400: validation_error, capacity_exceeded, room_count_invalid,
         room_type_unavailable
  - 404: not_found
  - 409: conflict, invalid_transition
  - 422: not_cancellable
  - 503: unavailable, duplicate (with Retry-After)
  - 500: anything else

SECURITY NOTE:
  No authentication. DELETE and /admin are expected behind an internal
  gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/factory"
	"github.com/warp/lodging-engine/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service         *booking.Service
	RoomTypeFactory *factory.RoomTypeFactory
	Scheduler       *HoldExpiryScheduler
	Log             logger.Logger

	// Health is pinged by GET /health. Optional.
	Health []HealthChecker

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler for the given service.
func NewHandler(svc *booking.Service) *Handler {
	return &Handler{
		Service:         svc,
		RoomTypeFactory: factory.NewRoomTypeFactory(),
		Log:             logger.Discard{},
		validate:        validator.New(),
	}
}

// =============================================================================
// ROOM TYPE HANDLERS
// =============================================================================

// ListRoomTypes returns the catalog.
func (h *Handler) ListRoomTypes(w http.ResponseWriter, r *http.Request) {
	rts, err := h.Service.RoomTypes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]RoomTypeDTO, len(rts))
	for i, rt := range rts {
		dtos[i] = toRoomTypeDTO(rt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoomType returns a single room type.
func (h *Handler) GetRoomType(w http.ResponseWriter, r *http.Request) {
	rt, err := h.Service.RoomType(r.Context(), roomTypeID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomTypeDTO(rt))
}

// SaveRoomType adds or replaces a room type from its JSON definition.
func (h *Handler) SaveRoomType(w http.ResponseWriter, r *http.Request) {
	var rj factory.RoomTypeJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rt, err := h.RoomTypeFactory.FromJSON(rj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room type", err)
		return
	}
	if err := h.Service.SaveRoomType(r.Context(), rt); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomTypeDTO(rt))
}

// GetAvailability answers the single-room and the inventory question for
// one window. Past windows are allowed.
// GET /api/room-types/{id}/availability?check_in=2025-03-01&check_out=2025-03-03
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := roomTypeID(r)
	q := r.URL.Query()

	win, err := parseWindow(q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	free, err := h.Service.RangeFree(r.Context(), id, win)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	available, err := h.Service.AvailableRooms(r.Context(), id, win)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		RoomTypeID:     string(id),
		CheckIn:        win.CheckIn.String(),
		CheckOut:       win.CheckOut.String(),
		Free:           free,
		AvailableRooms: available,
	})
}

// GetCalendar renders the availability calendar.
// GET /api/room-types/{id}/calendar?view=inventory&start=2025-03-01
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	id := roomTypeID(r)
	q := r.URL.Query()

	from := h.Service.Today()
	if s := q.Get("start"); s != "" {
		d, err := booking.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start format (use YYYY-MM-DD)", err)
			return
		}
		from = d
	}

	view := q.Get("view")
	if view == "" {
		view = booking.ViewInventory
	}

	resp := CalendarDTO{RoomTypeID: string(id), View: view, Start: from.String()}
	switch view {
	case booking.ViewBlocking:
		days, err := h.Service.BlockingCalendar(r.Context(), id, &from)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.Days = toBlockingDTOs(days)
	case booking.ViewInventory:
		days, err := h.Service.InventoryCalendar(r.Context(), id, &from)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.Days = toInventoryDTOs(days)
	default:
		writeError(w, http.StatusBadRequest, "view must be blocking or inventory", nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// QUOTE HANDLER
// =============================================================================

// CreateQuote prices a stay without booking it.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	b, err := h.Service.Quote(r.Context(), req.toBooking())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPricingDTO(b))
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// CreateReservation books a stay.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.book(w, r, req.toBooking())
}

// CreateAdminReservation is the staff booking path; it accepts a discount.
func (h *Handler) CreateAdminReservation(w http.ResponseWriter, r *http.Request) {
	var req AdminReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.book(w, r, req.toBooking())
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request, req booking.BookRequest) {
	res, err := h.Service.Book(r.Context(), req)
	if err != nil {
		h.Log.Debug("book %s %s..%s rejected: %v", req.RoomTypeID, req.CheckIn, req.CheckOut, err)
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/reservations/"+string(res.Reference))
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Get(r.Context(), reference(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// UpdateReservation modifies a reservation.
func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req UpdateReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Service.Update(r.Context(), reference(r), req.toBooking())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// ConfirmReservation confirms a hold.
func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Confirm(r.Context(), reference(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// CancelReservation cancels a reservation. The body is optional.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req CancelReservationRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}
	res, err := h.Service.Cancel(r.Context(), reference(r), req.Actor, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// DeleteReservation hard-deletes a reservation in any status.
func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), reference(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerHoldExpiry runs one expiry pass immediately.
func (h *Handler) TriggerHoldExpiry(w http.ResponseWriter, r *http.Request) {
	var run ExpiryRunDTO
	if h.Scheduler != nil {
		run = h.Scheduler.RunOnce(r.Context())
	} else {
		run = expireHolds(r.Context(), h.Service)
	}
	if run.Error != "" {
		writeError(w, http.StatusServiceUnavailable, "Hold expiry failed", errors.New(run.Error))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetHoldExpiry returns the last scheduled run, or null.
func (h *Handler) GetHoldExpiry(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Scheduler.LastRun())
}

// HealthCheck pings every configured backend.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	for _, hc := range h.Health {
		if err := hc.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unhealthy", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func roomTypeID(r *http.Request) booking.RoomTypeID {
	return booking.RoomTypeID(chi.URLParam(r, "id"))
}

func reference(r *http.Request) booking.Reference {
	return booking.Reference(chi.URLParam(r, "ref"))
}

// parseWindow parses a query window without the past-date rule.
func parseWindow(checkIn, checkOut string) (booking.Window, error) {
	if checkIn == "" || checkOut == "" {
		return booking.Window{}, &booking.RuleError{
			Code: booking.CodeMissingField, Field: "check_in", Message: "check_in and check_out are required",
		}
	}
	in, err := booking.ParseDate(checkIn)
	if err != nil {
		return booking.Window{}, &booking.RuleError{Code: booking.CodeInvalidFormat, Field: "check_in", Message: err.Error()}
	}
	out, err := booking.ParseDate(checkOut)
	if err != nil {
		return booking.Window{}, &booking.RuleError{Code: booking.CodeInvalidFormat, Field: "check_out", Message: err.Error()}
	}
	return booking.NewWindow(in, out)
}

// decode reads a JSON body and applies its validator tags. It writes the
// error response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(kind booking.Kind) int {
	switch kind {
	case booking.KindValidation,
		booking.KindCapacityExceeded,
		booking.KindRoomCountInvalid,
		booking.KindRoomTypeUnavailable:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict, booking.KindInvalidTransition:
		return http.StatusConflict
	case booking.KindNotCancellable:
		return http.StatusUnprocessableEntity
	case booking.KindUnavailable, booking.KindDuplicate:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a booking error with its kind and, where the
// error carries them, the rule code or the conflict details.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)
	status := statusOf(kind)
	resp := ErrorResponse{Error: err.Error(), Code: string(kind)}

	var (
		re *booking.RuleError
		ce *booking.ConflictError
	)
	switch {
	case errors.As(err, &re):
		resp.Details = map[string]string{"rule": string(re.Code), "field": re.Field}
	case errors.As(err, &ce):
		details := map[string]any{"requested": ce.Requested, "available": ce.Available}
		if ce.Reference != "" {
			details["conflicts_with"] = string(ce.Reference)
		}
		if ce.ConflictWindow != nil {
			details["conflict_check_in"] = ce.ConflictWindow.CheckIn.String()
			details["conflict_check_out"] = ce.ConflictWindow.CheckOut.String()
		}
		resp.Details = details
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		resp.Error = "Internal error"
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
