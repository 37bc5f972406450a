package services

import (
	"sort"
	"time"

	"github.com/telensor/agenda/internal/booking/domain"
)

// slotKey groups candidates for selection. Equipment participates in the
// key only in the by-equipment regime; the other regimes pick equipment by
// policy after the employee is chosen.
type slotKey struct {
	start     int
	equipment string
}

type slotGroup struct {
	employees       []string
	equipByEmployee map[string][]string
}

// selectSlots deduplicates the candidates per slot key and picks one winner
// per group: the least-loaded employee measured over the request window,
// ties broken on the smallest employee id, then the equipment chosen by the
// service's selection policy.
func selectSlots(reg regime, candidates []candidate, svc domain.Service, blocks *BlockSet, reqWin domain.Interval, base time.Time) []Slot {
	if len(candidates) == 0 {
		return []Slot{}
	}
	totalSlot := svc.TotalSlotMin()

	order := make([]slotKey, 0, len(candidates))
	groups := make(map[slotKey]*slotGroup)
	for _, c := range candidates {
		key := slotKey{start: c.start}
		if reg == regimeByEquipment {
			key.equipment = c.equipmentID
		}
		g, ok := groups[key]
		if !ok {
			g = &slotGroup{equipByEmployee: make(map[string][]string)}
			groups[key] = g
			order = append(order, key)
		}
		if _, seen := g.equipByEmployee[c.employeeID]; !seen {
			g.employees = append(g.employees, c.employeeID)
		}
		g.equipByEmployee[c.employeeID] = appendUnique(g.equipByEmployee[c.employeeID], c.equipmentID)
	}

	slots := make([]Slot, 0, len(order))
	for _, key := range order {
		g := groups[key]
		winner := leastLoadedEmployee(g.employees, blocks, reqWin)
		equipment := key.equipment
		if reg != regimeByEquipment {
			equipment = pickEquipment(g.equipByEmployee[winner], svc, blocks)
		}
		slots = append(slots, Slot{
			Start:       domain.TimeAt(base, key.start),
			End:         domain.TimeAt(base, key.start+totalSlot),
			EmployeeID:  winner,
			EquipmentID: equipment,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].EquipmentID < slots[j].EquipmentID
	})
	return slots
}

func leastLoadedEmployee(ids []string, blocks *BlockSet, reqWin domain.Interval) string {
	winner := ids[0]
	best := blocks.EmployeeLoad(winner, reqWin)
	for _, id := range ids[1:] {
		load := blocks.EmployeeLoad(id, reqWin)
		if load < best || (load == best && id < winner) {
			winner = id
			best = load
		}
	}
	return winner
}

// pickEquipment applies the service's equipment selection policy over the
// feasible options for the winning employee. The least-loaded policy
// measures over the base day, not the request window.
func pickEquipment(options []string, svc domain.Service, blocks *BlockSet) string {
	if len(options) == 0 {
		return ""
	}
	if len(options) == 1 {
		return options[0]
	}
	switch svc.SelectionPolicy() {
	case domain.EquipmentPolicyLeastLoaded:
		day := domain.Interval{Start: 0, End: minutesPerDay}
		winner := options[0]
		best := blocks.EquipmentLoad(winner, day)
		for _, id := range options[1:] {
			load := blocks.EquipmentLoad(id, day)
			if load < best || (load == best && id < winner) {
				winner = id
				best = load
			}
		}
		return winner
	default:
		winner := options[0]
		bestIdx := equipmentIndex(svc, winner)
		for _, id := range options[1:] {
			idx := equipmentIndex(svc, id)
			if idx < bestIdx || (idx == bestIdx && id < winner) {
				winner = id
				bestIdx = idx
			}
		}
		return winner
	}
}

func equipmentIndex(svc domain.Service, id string) int {
	for i, eq := range svc.CompatibleEquip {
		if eq == id {
			return i
		}
	}
	return len(svc.CompatibleEquip)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
