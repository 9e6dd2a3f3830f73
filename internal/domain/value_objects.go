package domain

import (
	"fmt"
	"strings"
)

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if len(s) > 255 {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// NewItemType validates and creates an ItemType from its wire name.
func NewItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(s))
	switch t {
	case ItemTypeEvent, ItemTypeProgressTask, ItemTypeDeadlineTask:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidItemType, s)
	}
}
