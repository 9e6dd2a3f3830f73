package domain

import "fmt"

// validItemUpdateFields lists the field-mask names ItemUpdate accepts.
var validItemUpdateFields = map[string]struct{}{
	"active":      {},
	"category":    {},
	"name":        {},
	"desc":        {},
	"schedule":    {},
}

// ItemUpdate is a field-mask update: only fields named in UpdateMask are
// applied, letting a caller clear an optional field (nil pointer) without
// touching the others.
type ItemUpdate struct {
	ID         string
	UpdateMask []string

	Active   *bool
	Category **string
	Name     *string
	Desc     **string
	Schedule *Schedule
}

// Validate checks that every named field is one this update type supports.
func (u ItemUpdate) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: item update requires an id", ErrInvalidID)
	}
	for _, f := range u.UpdateMask {
		if _, ok := validItemUpdateFields[f]; !ok {
			return fmt.Errorf("%w: unknown item update field %q", ErrInvalidID, f)
		}
	}
	return nil
}

// Has reports whether field is named in the update mask.
func (u ItemUpdate) Has(field string) bool {
	for _, f := range u.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}

var validOccUpdateFields = map[string]struct{}{
	"active":                    {},
	"start":                     {},
	"end":                       {},
	"task_completion_progress": {},
}

// OccUpdate is a field-mask update for an Occurrence.
type OccUpdate struct {
	ID         string
	UpdateMask []string

	Active                 *bool
	Start                  *int64 // seconds since epoch, UTC
	End                    *int64
	TaskCompletionProgress *int
}

// Validate checks that every named field is one this update type supports.
func (u OccUpdate) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: occurrence update requires an id", ErrInvalidID)
	}
	for _, f := range u.UpdateMask {
		if _, ok := validOccUpdateFields[f]; !ok {
			return fmt.Errorf("%w: unknown occurrence update field %q", ErrInvalidID, f)
		}
	}
	return nil
}

// Has reports whether field is named in the update mask.
func (u OccUpdate) Has(field string) bool {
	for _, f := range u.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}
