package world

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSection   = errors.New("unknown section")
	ErrWrongSectionKind = errors.New("operation does not apply to section kind")
	ErrInvalidShape     = errors.New("invalid result shape")
	ErrNotReady         = errors.New("generation backend not initialized")
	ErrPrerequisites    = errors.New("section prerequisites not met")
)

// ShapeError describes a generation result rejected at the merge boundary.
type ShapeError struct {
	Section Section
	Reason  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s result rejected: %s", e.Section, e.Reason)
}

func (e *ShapeError) Unwrap() error {
	return ErrInvalidShape
}

type PrerequisiteError struct {
	Section Section
	Missing []Section
	// NamesNeeded is non-zero when the name index is too small.
	NamesNeeded int
}

func (e *PrerequisiteError) Error() string {
	parts := make([]string, 0, len(e.Missing)+1)
	for _, s := range e.Missing {
		parts = append(parts, string(s))
	}
	if e.NamesNeeded > 0 {
		parts = append(parts, fmt.Sprintf("%d more named entities", e.NamesNeeded))
	}
	return fmt.Sprintf("%s requires %s", e.Section, strings.Join(parts, ", "))
}

func (e *PrerequisiteError) Unwrap() error {
	return ErrPrerequisites
}
