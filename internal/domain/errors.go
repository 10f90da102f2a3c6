package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInterviewNotFound  = errors.New("interview not found")
	ErrInterviewExpired   = errors.New("interview booking link expired")
	ErrInvalidTitle       = errors.New("interview title required")
	ErrInvalidDuration    = errors.New("interview duration must be between 1 and 1440 minutes")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrInvalidCandidate   = errors.New("candidate does not belong to interview")
	ErrCandidateExists    = errors.New("candidate already registered for interview")
	ErrInvalidEmail       = errors.New("candidate email required")
	ErrSlotsRequired      = errors.New("at least one slot is required")
	ErrInvalidSlot        = errors.New("slot must have start before end and non-negative capacity")
	ErrInvalidSchedule    = errors.New("invalid slot schedule")
	ErrSlotRecordNotFound = errors.New("slot record not found")
	ErrSlotRecordInUse    = errors.New("slot record has active holds or bookings")
	ErrInvalidSlotIndex   = errors.New("invalid slot index")
	ErrSlotFull           = errors.New("slot is full")
	ErrSlotBusy           = errors.New("slot is busy, retry")
	ErrAlreadyBooked      = errors.New("candidate already booked")
	ErrHoldExists         = errors.New("candidate already holds a slot")
	ErrHoldNotFound       = errors.New("hold not found")
	ErrHoldExpired        = errors.New("hold expired")
	ErrNotHoldOwner       = errors.New("hold belongs to another candidate")
	ErrNotOwner           = errors.New("not the owner of this hold")
)
