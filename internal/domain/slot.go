package domain

import "time"

// DefaultSlotCapacity applies when a slot is submitted without a capacity.
const DefaultSlotCapacity = 15

// Slot is one bookable interval. Its position inside a SlotRecord is its identity.
type Slot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Capacity int       `json:"capacity"`
}

// Valid reports whether the slot is a non-empty interval with positive capacity.
func (s Slot) Valid() bool {
	return s.Start.Before(s.End) && s.Capacity > 0
}

// SlotRecord holds the generated slots of one interview.
type SlotRecord struct {
	ID          string
	InterviewID string
	Slots       []Slot
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Slot returns the slot at index, or false when the index is out of range.
func (r SlotRecord) Slot(index int) (Slot, bool) {
	if index < 0 || index >= len(r.Slots) {
		return Slot{}, false
	}
	return r.Slots[index], true
}

// SameSlots reports whether other describes exactly the same slot sequence.
func (r SlotRecord) SameSlots(other []Slot) bool {
	if len(r.Slots) != len(other) {
		return false
	}
	for i, s := range r.Slots {
		o := other[i]
		if !s.Start.Equal(o.Start) || !s.End.Equal(o.End) || s.Capacity != o.Capacity {
			return false
		}
	}
	return true
}

// SlotAvailability is a point-in-time view of one slot's remaining capacity.
type SlotAvailability struct {
	SlotRecordID string
	SlotIndex    int
	Start        time.Time
	End          time.Time
	Capacity     int
	CapacityLeft int
}
