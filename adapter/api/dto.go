package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/telensor/agenda/internal/booking/application/services"
	"github.com/telensor/agenda/internal/booking/domain"
)

// availabilityRequest is the wire form of one availability search.
type availabilityRequest struct {
	ServiceID   string `json:"servicio_id"`
	EmployeeID  string `json:"empleado_id"`
	EquipmentID string `json:"equipo_id"`
	Start       string `json:"fecha_inicio_utc"`
	End         string `json:"fecha_fin_utc"`
	ScenarioID  string `json:"scenario_id"`
	Policy      string `json:"service_window_policy"`
}

// slotDTO is one slot in the availability response.
type slotDTO struct {
	Start       time.Time `json:"inicio_slot"`
	End         time.Time `json:"fin_slot"`
	EmployeeID  string    `json:"empleado_id_asignado"`
	EquipmentID string    `json:"equipo_id_asignado,omitempty"`
}

// availabilityResponse wraps the slot list.
type availabilityResponse struct {
	Slots []slotDTO `json:"horarios_disponibles"`
}

func toSlotDTOs(slots []services.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{
			Start:       s.Start,
			End:         s.End,
			EmployeeID:  s.EmployeeID,
			EquipmentID: s.EquipmentID,
		})
	}
	return out
}

// reservationRequest is the wire form of one create-reservation command.
type reservationRequest struct {
	ServiceID   string `json:"servicio_id"`
	EmployeeID  string `json:"empleado_id"`
	EquipmentID string `json:"equipo_id"`
	Start       string `json:"inicio_slot"`
	End         string `json:"fin_slot"`
	ScenarioID  string `json:"scenario_id"`
	Policy      string `json:"service_window_policy"`
}

// blockingRequest is the wire form of one create-blocking command.
type blockingRequest struct {
	Scope        string   `json:"scope"`
	Start        string   `json:"inicio_utc"`
	End          string   `json:"fin_utc"`
	Reason       string   `json:"motivo"`
	EmployeeIDs  []string `json:"empleado_ids"`
	EquipmentIDs []string `json:"equipo_ids"`
	ServiceIDs   []string `json:"servicio_ids"`
}

// processedDTO is one cascade outcome in the blocking response.
type processedDTO struct {
	ReservationID string `json:"reserva_id"`
	State         string `json:"estado"`
	EmployeeID    string `json:"empleado_id,omitempty"`
	EquipmentID   string `json:"equipo_id,omitempty"`
}

// blockingResponse is the wire form of a registered blocking.
type blockingResponse struct {
	BlockingID string         `json:"bloqueo_id"`
	Processed  []processedDTO `json:"procesadas"`
}

func toBlockingResponse(result *services.CascadeResult) blockingResponse {
	processed := make([]processedDTO, 0, len(result.Processed))
	for _, p := range result.Processed {
		processed = append(processed, processedDTO{
			ReservationID: p.ReservationID,
			State:         string(p.State),
			EmployeeID:    p.EmployeeID,
			EquipmentID:   p.EquipmentID,
		})
	}
	return blockingResponse{BlockingID: result.Blocking.ID, Processed: processed}
}

// errUnknownField marks a strict-decoding rejection, surfaced as 422.
var errUnknownField = errors.New("unknown field")

func errorsIsUnknownField(err error) bool {
	return errors.Is(err, errUnknownField)
}

// decodeStrict parses a JSON body rejecting unknown fields and trailing
// content.
func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return fmt.Errorf("%w: %v", errUnknownField, err)
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected trailing content")
	}
	return nil
}

// parseInstant parses an RFC3339 instant and normalizes it to UTC.
func parseInstant(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339: %v", field, err)
	}
	return t.UTC(), nil
}

// parsePolicy validates the optional service window policy.
func parsePolicy(value string) (domain.WindowPolicy, error) {
	if value == "" {
		return domain.WindowPolicyStartOnly, nil
	}
	p := domain.WindowPolicy(value)
	if !p.Valid() {
		return "", fmt.Errorf("unknown service_window_policy %q", value)
	}
	return p, nil
}

// statusForError maps core errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidEquipment),
		errors.Is(err, domain.ErrServiceNotFound),
		errors.Is(err, domain.ErrInvalidSlotLength),
		errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrInvalidScope):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
