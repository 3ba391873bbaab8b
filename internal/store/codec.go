package store

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"worldforge/internal/world"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("creating zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("creating zstd decoder: %v", err))
	}
}

// EncodeWorld serialises m as zstd-compressed JSON together with its section
// counts.
func EncodeWorld(name string, m *world.WorldModel) (*Snapshot, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("encoding world %q: model is nil", name)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling world %q: %w", name, err)
	}
	return &Snapshot{
		Name:    name,
		Payload: encoder.EncodeAll(raw, nil),
		Counts:  Counts(m),
	}, nil
}

// DecodeWorld reverses EncodeWorld.
func DecodeWorld(payload []byte) (*world.WorldModel, error) {
	raw, err := decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing world: %w", err)
	}
	var m world.WorldModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling world: %w", err)
	}
	return &m, nil
}

// Counts returns the number of entries in every section of m.
func Counts(m *world.WorldModel) map[world.Section]int {
	counts := make(map[world.Section]int, len(world.AllSections))
	for _, s := range world.AllSections {
		counts[s] = m.Len(s)
	}
	return counts
}

func MarshalCounts(counts map[world.Section]int) ([]byte, error) {
	b, err := json.Marshal(counts)
	if err != nil {
		return nil, fmt.Errorf("marshaling counts: %w", err)
	}
	return b, nil
}

func UnmarshalCounts(b []byte) (map[world.Section]int, error) {
	counts := make(map[world.Section]int)
	if len(b) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(b, &counts); err != nil {
		return nil, fmt.Errorf("unmarshaling counts: %w", err)
	}
	return counts, nil
}
