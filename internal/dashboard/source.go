// Package dashboard renders the HTML presentation layer over the building predictions.
package dashboard

import (
	"context"

	"github.com/jonathan/energy-insights/internal/client"
	"github.com/jonathan/energy-insights/internal/query"
	"github.com/jonathan/energy-insights/internal/types"
)

// Source is where the dashboard reads its data. *client.Client reads over HTTP;
// LocalSource reads the table in-process.
type Source interface {
	Health(ctx context.Context) (*types.HealthStatus, error)
	ListBuildings(ctx context.Context) ([]types.BuildingListItem, error)
	GetBuilding(ctx context.Context, id string) (*types.BuildingDetail, error)
	GetSummary(ctx context.Context) (*types.Summary, error)
	GetCluster(ctx context.Context, clusterID int) (*types.ClusterStats, error)
}

var _ Source = (*client.Client)(nil)
var _ Source = (*LocalSource)(nil)

// LocalSource adapts a query.Service to Source.
type LocalSource struct {
	svc *query.Service
}

// NewLocalSource wraps svc.
func NewLocalSource(svc *query.Service) *LocalSource {
	return &LocalSource{svc: svc}
}

func (l *LocalSource) Health(ctx context.Context) (*types.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := l.svc.Health()
	return &h, nil
}

func (l *LocalSource) ListBuildings(ctx context.Context) ([]types.BuildingListItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.ListBuildings(), nil
}

func (l *LocalSource) GetBuilding(ctx context.Context, id string) (*types.BuildingDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.GetBuilding(id)
}

func (l *LocalSource) GetSummary(ctx context.Context) (*types.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.GetSummary(), nil
}

func (l *LocalSource) GetCluster(ctx context.Context, clusterID int) (*types.ClusterStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.GetCluster(clusterID)
}

// describe names the source for the unavailable page.
func describe(src Source) string {
	if b, ok := src.(interface{ BaseURL() string }); ok {
		return b.BaseURL()
	}
	return "local artifact"
}
