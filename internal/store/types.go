package store

import (
	"errors"
	"strings"
	"time"

	"worldforge/internal/world"
)

var ErrInvalidName = errors.New("world name must not be empty")

// WorldSummary describes an archived world without decoding its payload.
type WorldSummary struct {
	Name    string                `json:"name"`
	Counts  map[world.Section]int `json:"counts"`
	SavedAt time.Time             `json:"saved_at"`
}

// Snapshot is the encoded form of a world ready to be written.
type Snapshot struct {
	Name    string
	Payload []byte
	Counts  map[world.Section]int
}

// NormalizeName trims name and rejects blank names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
