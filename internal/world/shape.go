package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	singletonSchema = jsonschema.MustCompileString("singleton.schema.json", `{
		"type": "object",
		"minProperties": 1,
		"propertyNames": {"pattern": "\\S"},
		"additionalProperties": {"type": "string"}
	}`)
	keyedSchema = jsonschema.MustCompileString("keyed.schema.json", `{
		"type": "object",
		"minProperties": 1,
		"propertyNames": {"pattern": "\\S"},
		"additionalProperties": {"type": "object", "minProperties": 1}
	}`)
	recordSchema = jsonschema.MustCompileString("record.schema.json", `{
		"type": "object",
		"minProperties": 1
	}`)
)

func schemaFor(s Section) *jsonschema.Schema {
	switch s.Kind() {
	case KindSingleton:
		return singletonSchema
	case KindKeyed:
		return keyedSchema
	default:
		return recordSchema
	}
}

// normalize round-trips a result through JSON so the store only ever holds
// plain maps, slices and scalars that it owns exclusively.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkShape normalizes result and validates it against the schema for s.
func checkShape(s Section, result any) (map[string]any, error) {
	normalized, err := normalize(result)
	if err != nil {
		return nil, &ShapeError{Section: s, Reason: fmt.Sprintf("not encodable: %v", err)}
	}
	if err := schemaFor(s).Validate(normalized); err != nil {
		return nil, &ShapeError{Section: s, Reason: err.Error()}
	}
	obj, ok := normalized.(map[string]any)
	if !ok {
		return nil, &ShapeError{Section: s, Reason: "expected an object"}
	}
	return obj, nil
}

// ValidateResult reports whether result would be accepted by a merge into s.
func ValidateResult(s Section, result any) error {
	if s.Kind() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	_, err := checkShape(s, result)
	return err
}
