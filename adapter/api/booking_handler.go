package api

import (
	"log/slog"
	"net/http"

	"github.com/telensor/agenda/internal/booking/application/services"
	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/pkg/observability"
)

// Resetter clears all persisted reservations and blockings. Test support
// surface, wired to POST /api/v1/reset.
type Resetter interface {
	Reset()
}

// BookingHandler handles the booking API requests.
type BookingHandler struct {
	availability *services.AvailabilityService
	reservations *services.ReservationManager
	cascade      *services.CascadeManager
	resetter     Resetter
	logger       *slog.Logger
	metrics      observability.Metrics
}

// BookingHandlerConfig holds dependencies for the booking handler.
type BookingHandlerConfig struct {
	Availability *services.AvailabilityService
	Reservations *services.ReservationManager
	Cascade      *services.CascadeManager
	Resetter     Resetter
	Logger       *slog.Logger
	Metrics      observability.Metrics
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(cfg BookingHandlerConfig) *BookingHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &BookingHandler{
		availability: cfg.Availability,
		reservations: cfg.Reservations,
		cascade:      cfg.Cascade,
		resetter:     cfg.Resetter,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Availability handles POST /api/v1/disponibilidad.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	timer := observability.StartTimer("availability").WithMetrics(h.metrics)
	defer timer.Stop()

	var body availabilityRequest
	if err := decodeStrict(r.Body, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	start, err := parseInstant("fecha_inicio_utc", body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseInstant("fecha_fin_utc", body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := parsePolicy(body.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := h.availability.FindSlots(r.Context(), services.AvailabilityRequest{
		ServiceID:   body.ServiceID,
		EmployeeID:  body.EmployeeID,
		EquipmentID: body.EquipmentID,
		Start:       start,
		End:         end,
		ScenarioID:  body.ScenarioID,
		Policy:      policy,
	})
	if err != nil {
		h.writeCoreError(w, r, "availability search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Slots: toSlotDTOs(slots)})
}

// CreateReservation handles POST /api/v1/reservas.
func (h *BookingHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	timer := observability.StartTimer("create_reservation").WithMetrics(h.metrics)
	defer timer.Stop()

	var body reservationRequest
	if err := decodeStrict(r.Body, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	start, err := parseInstant("inicio_slot", body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseInstant("fin_slot", body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := parsePolicy(body.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reservation, err := h.reservations.Create(r.Context(), services.ReservationRequest{
		ServiceID:   body.ServiceID,
		EmployeeID:  body.EmployeeID,
		EquipmentID: body.EquipmentID,
		Start:       start,
		End:         end,
		ScenarioID:  body.ScenarioID,
		Policy:      policy,
	})
	if err != nil {
		h.writeCoreError(w, r, "reservation rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

// CreateBlocking handles POST /api/v1/bloqueos.
func (h *BookingHandler) CreateBlocking(w http.ResponseWriter, r *http.Request) {
	timer := observability.StartTimer("create_blocking").WithMetrics(h.metrics)
	defer timer.Stop()

	var body blockingRequest
	if err := decodeStrict(r.Body, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	start, err := parseInstant("inicio_utc", body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseInstant("fin_utc", body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.cascade.ApplyBlocking(r.Context(), services.BlockingRequest{
		Scope:        domain.BlockScope(body.Scope),
		Start:        start,
		End:          end,
		Reason:       body.Reason,
		EmployeeIDs:  body.EmployeeIDs,
		EquipmentIDs: body.EquipmentIDs,
		ServiceIDs:   body.ServiceIDs,
	})
	if err != nil {
		h.writeCoreError(w, r, "blocking rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlockingResponse(result))
}

// Reset handles POST /api/v1/reset. It drops every reservation and
// blocking.
func (h *BookingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.resetter != nil {
		h.resetter.Reset()
	}
	h.logger.Info("store reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *BookingHandler) writeCoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusForError(err)
	h.metrics.Counter(observability.MetricOperationErrors, 1, observability.T("path", r.URL.Path))
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	h.logger.Debug(msg, "path", r.URL.Path, "error", err)
	writeError(w, status, err.Error())
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errorsIsUnknownField(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
