package slot

import (
	"sort"
	"time"
)

type CellState string

const (
	CellEmpty       CellState = "empty"
	CellSelectable  CellState = "selectable"
	CellBooked      CellState = "booked"
	CellUnavailable CellState = "unavailable"
)

var cellLabels = map[CellState]string{
	CellEmpty:       "",
	CellSelectable:  "",
	CellBooked:      "booked",
	CellUnavailable: "not available",
}

type Cell struct {
	State CellState `json:"state"`
	Label string    `json:"label"`
	Price int64     `json:"price"`
	Slot  *Slot     `json:"slot,omitempty"`
}

func (c Cell) Interactable() bool {
	return c.State == CellSelectable
}

// Grid maps resource id to canonical HH:mm to slot for one calendar date.
// Every resource passed to Resolve is present, possibly with an empty row.
type Grid struct {
	Date  string                     `json:"date"`
	Slots map[string]map[string]Slot `json:"slots"`
}

// Resolve indexes slots for date by resource and normalized start time. Slots for other
// dates, unknown resources or unparseable start times are skipped. When two slots land on
// the same key the later one wins.
func Resolve(date string, slots []Slot, resources []Resource, loc *time.Location) Grid {
	g := Grid{
		Date:  date,
		Slots: make(map[string]map[string]Slot, len(resources)),
	}
	for _, r := range resources {
		g.Slots[r.ID] = map[string]Slot{}
	}

	for _, s := range slots {
		row, known := g.Slots[s.ResourceID]
		if !known {
			continue
		}

		slotDate, hhmm, ok := ParseStart(s.StartAt, loc)
		if !ok {
			continue
		}
		if slotDate == "" {
			slotDate = s.Date
		}
		if date != "" && slotDate != "" && slotDate != date {
			continue
		}

		row[hhmm] = s
	}

	return g
}

// Cell classifies the (resource, time) position for rendering.
func (g Grid) Cell(resourceID, hhmm string) Cell {
	s, ok := g.Slots[resourceID][hhmm]
	if !ok {
		return Cell{State: CellEmpty}
	}

	state := CellSelectable
	switch {
	case !s.IsAvailable:
		state = CellBooked
	case s.EffectivePrice() <= 0:
		state = CellUnavailable
	}

	return Cell{
		State: state,
		Label: cellLabels[state],
		Price: s.EffectivePrice(),
		Slot:  &s,
	}
}

// Times returns the sorted union of time keys across every resource row.
func (g Grid) Times() []string {
	seen := make(map[string]struct{})
	for _, row := range g.Slots {
		for hhmm := range row {
			seen[hhmm] = struct{}{}
		}
	}

	times := make([]string, 0, len(seen))
	for hhmm := range seen {
		times = append(times, hhmm)
	}
	sort.Strings(times)
	return times
}
