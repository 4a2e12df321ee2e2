package query

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every lookup miss returned from the Service.
var ErrNotFound = errors.New("not found")

// BuildingNotFoundError indicates no record has the requested building_id.
type BuildingNotFoundError struct {
	BuildingID string
}

func (e *BuildingNotFoundError) Error() string {
	return fmt.Sprintf("building not found: %s", e.BuildingID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *BuildingNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ClusterNotFoundError indicates no record belongs to the requested cluster.
type ClusterNotFoundError struct {
	ClusterID int
}

func (e *ClusterNotFoundError) Error() string {
	return fmt.Sprintf("cluster not found: %d", e.ClusterID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *ClusterNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
