package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/energy-insights/internal/query"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "building not found", err: &query.BuildingNotFoundError{BuildingID: "B9"}, want: http.StatusNotFound},
		{name: "cluster not found", err: &query.ClusterNotFoundError{ClusterID: 7}, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", &query.BuildingNotFoundError{BuildingID: "B9"}), want: http.StatusNotFound},
		{name: "validation", err: &ErrValidation{Field: "cluster_id", Message: "must be an integer"}, want: http.StatusBadRequest},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "cluster_id", Message: "must be an integer"}
	assert.Equal(t, "validation error: cluster_id - must be an integer", err.Error())
}
