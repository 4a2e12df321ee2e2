package table

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is returned when no predictions artifact exists at the configured location.
// Callers treat it as fatal at startup.
var ErrArtifactNotFound = errors.New("predictions artifact not found")

// LoadError represents a failure to read or decode an artifact.
type LoadError struct {
	Source  string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// MissingColumnError indicates a required column is absent from the artifact.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// DuplicateIDError indicates two rows share a building_id.
type DuplicateIDError struct {
	BuildingID string
	FirstRow   int
	Row        int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate building_id %q at rows %d and %d", e.BuildingID, e.FirstRow, e.Row)
}
