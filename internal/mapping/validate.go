package mapping

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which structural rule a mapping set violates.
type ErrorKind string

const (
	// KindDuplicateFieldMapping means two or more mappings target the same field.
	KindDuplicateFieldMapping ErrorKind = "duplicate_field_mapping"
	// KindIncompleteMapping means a mapping names a field but has no source columns.
	KindIncompleteMapping ErrorKind = "incomplete_mapping"
)

// Validation errors.
var (
	ErrDuplicateFieldMapping = errors.New("duplicate field mapping")
	ErrIncompleteMapping     = errors.New("incomplete mapping")
)

// ValidationError reports the rule a mapping set failed.
type ValidationError struct {
	Kind  ErrorKind
	Field FieldID
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.sentinel(), e.Field)
}

// Is lets errors.Is match the rule sentinels.
func (e *ValidationError) Is(target error) bool {
	return target == e.sentinel()
}

// Message returns a message suitable for showing to the person editing the mappings.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case KindDuplicateFieldMapping:
		return "Each field can only be mapped once. Remove the duplicate mapping before continuing."
	case KindIncompleteMapping:
		return "Every mapped field needs at least one source column."
	default:
		return e.Error()
	}
}

func (e *ValidationError) sentinel() error {
	if e.Kind == KindIncompleteMapping {
		return ErrIncompleteMapping
	}
	return ErrDuplicateFieldMapping
}

// Validate checks a mapping set before it is used to transform rows.
// Mappings without a target field are in-progress rows and are ignored.
// The input is not modified.
func Validate(mappings []Mapping) error {
	seen := make(map[FieldID]bool, len(mappings))
	for _, m := range mappings {
		if !m.IsAssigned() {
			continue
		}
		if seen[m.TargetField] {
			return &ValidationError{Kind: KindDuplicateFieldMapping, Field: m.TargetField}
		}
		seen[m.TargetField] = true
	}

	for _, m := range mappings {
		if m.IsAssigned() && len(m.SourceColumns) == 0 {
			return &ValidationError{Kind: KindIncompleteMapping, Field: m.TargetField}
		}
	}

	return nil
}
