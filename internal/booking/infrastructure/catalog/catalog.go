// Package catalog provides the built-in domain catalog used when a request
// names no scenario: a fixed service template, two employees and one
// synthetic occupation anchored at the query start. It mirrors the demo
// data set the engine ships with.
package catalog

import (
	"context"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
)

// Default implements the service, schedule and occupation repositories with
// static demo data.
type Default struct{}

// NewDefault creates the built-in catalog.
func NewDefault() *Default {
	return &Default{}
}

var (
	_ domain.ServiceRepository    = (*Default)(nil)
	_ domain.ScheduleRepository   = (*Default)(nil)
	_ domain.OccupationRepository = (*Default)(nil)
)

// GetService returns the demo service template for any id: 30 minutes of
// service wrapped in a 10 minute lead and 5 minute tail buffer.
func (c *Default) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return &domain.Service{
		ID:              id,
		DurationMin:     30,
		BufferBeforeMin: 10,
		BufferAfterMin:  5,
	}, nil
}

// GetEmployeeSchedules returns the demo employees matching the filter. The
// demo schedules declare no assignments, so every filter passes them
// through; the filter contract only binds schedules that declare
// assignments.
func (c *Default) GetEmployeeSchedules(ctx context.Context, day time.Time, filter domain.ScheduleFilter) ([]domain.EmployeeSchedule, error) {
	all := []domain.EmployeeSchedule{
		{EmployeeID: "E1", WorkWindow: []int{540, 1020}},
		{EmployeeID: "E2", WorkWindow: []int{600, 1080}},
	}
	matched := make([]domain.EmployeeSchedule, 0, len(all))
	for _, s := range all {
		if filter.ServiceID != "" && !s.OffersService(filter.ServiceID) {
			continue
		}
		if filter.EquipmentID != "" && !s.OperatesEquipment(filter.EquipmentID) {
			continue
		}
		matched = append(matched, s)
	}
	return matched, nil
}

// GetOccupations returns one busy range for E1 starting 100 minutes into
// the queried window.
func (c *Default) GetOccupations(ctx context.Context, employeeIDs []string, start, end time.Time) ([]domain.Occupation, error) {
	return []domain.Occupation{
		{
			EmployeeID: "E1",
			Start:      start.Add(100 * time.Minute),
			End:        start.Add(130 * time.Minute),
		},
	}, nil
}
