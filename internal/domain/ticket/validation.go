package ticket

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the description, in characters.
const MaxDescriptionLength = 500

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidateDraft checks the ticket form rules for a new ticket.
func ValidateDraft(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is mandatory", ErrInvalidInput)
	}
	if err := validateStatus(d.Status); err != nil {
		return err
	}
	if err := validatePriority(d.Priority); err != nil {
		return err
	}
	return validateDescription(d.Description)
}

// ValidatePatch checks only the fields the patch sets.
func ValidatePatch(p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is mandatory", ErrInvalidInput)
	}
	if p.Status != nil {
		if err := validateStatus(*p.Status); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if err := validatePriority(*p.Priority); err != nil {
			return err
		}
	}
	if p.Description != nil {
		return validateDescription(*p.Description)
	}
	return nil
}

func validateStatus(s Status) error {
	if s == "" {
		return fmt.Errorf("%w: status is mandatory", ErrInvalidInput)
	}
	if !s.Valid() {
		return fmt.Errorf("%w: status must be one of: open, in_progress, closed", ErrInvalidInput)
	}
	return nil
}

func validatePriority(p Priority) error {
	if p == "" {
		return fmt.Errorf("%w: priority is mandatory", ErrInvalidInput)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: priority must be one of: low, medium, high", ErrInvalidInput)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be %d characters or less", ErrInvalidInput, MaxDescriptionLength)
	}
	return nil
}
