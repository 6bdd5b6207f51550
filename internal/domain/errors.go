package domain

import "errors"

var (
	ErrAccountNotFound   = errors.New("calendar account not found")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrSlotConflict      = errors.New("slot conflict")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrBusy              = errors.New("calendar busy, try again")
	ErrDuplicateCalendar = errors.New("calendar already connected")
	ErrUserEmailRequired = errors.New("user email required")
	ErrCalendarRequired  = errors.New("calendar email required")
	ErrInquiryRequired   = errors.New("booking inquiry reference required")
	ErrInvalidID         = errors.New("invalid id")
)
