package db

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/energy-insights/internal/types"
)

// columnCasts maps artifact columns to the SQL expression used to read them.
// Casts normalize whatever numeric types the loader job picked.
var columnCasts = []struct {
	name string
	cast string
}{
	{"building_id", "::text"},
	{"building_type", "::text"},
	{"cluster", "::bigint"},
	{"is_anomaly", "::boolean"},
	{"underperformer", "::boolean"},
	{"priority_rank", "::bigint"},
	{"baseload", "::float8"},
	{"weekend_ratio", "::float8"},
	{"predicted_weekend_ratio", "::float8"},
	{"weekend_gap", "::float8"},
	{"night_ratio", "::float8"},
	{"avg_consumption", "::float8"},
	{"recommendation", "::text"},
	{"shap_json", "::text"},
}

// ListColumns returns the lower-cased column names of a table in the current search path.
func (db *DB) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT lower(column_name) FROM information_schema.columns
		 WHERE table_name = $1 AND table_schema = ANY(current_schemas(false))`,
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return cols, nil
}

// LoadPredictions reads every row of the predictions table in physical order.
// Only columns listed in present are selected; the rest keep their zero values.
func (db *DB) LoadPredictions(ctx context.Context, table string, present map[string]bool) ([]types.BuildingRecord, error) {
	query, names, err := selectQuery(table, present)
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []types.BuildingRecord
	for rows.Next() {
		var (
			rec                          types.BuildingRecord
			buildingType, recommendation *string
			cluster, rank                *int64
			anomaly                      *bool
			baseload, night, consumption *float64
		)
		dest := make([]any, 0, len(names))
		for _, name := range names {
			switch name {
			case "building_id":
				dest = append(dest, &rec.BuildingID)
			case "building_type":
				dest = append(dest, &buildingType)
			case "cluster":
				dest = append(dest, &cluster)
			case "is_anomaly":
				dest = append(dest, &anomaly)
			case "underperformer":
				dest = append(dest, &rec.Underperformer)
			case "priority_rank":
				dest = append(dest, &rank)
			case "baseload":
				dest = append(dest, &baseload)
			case "weekend_ratio":
				dest = append(dest, &rec.WeekendRatio)
			case "predicted_weekend_ratio":
				dest = append(dest, &rec.PredictedWeekendRatio)
			case "weekend_gap":
				dest = append(dest, &rec.WeekendGap)
			case "night_ratio":
				dest = append(dest, &night)
			case "avg_consumption":
				dest = append(dest, &consumption)
			case "recommendation":
				dest = append(dest, &recommendation)
			case "shap_json":
				dest = append(dest, &rec.ShapJSON)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}

		if buildingType != nil {
			rec.BuildingType = *buildingType
		}
		if recommendation != nil {
			rec.Recommendation = *recommendation
		}
		if cluster != nil {
			rec.Cluster = int(*cluster)
		}
		if rank != nil {
			rec.PriorityRank = int(*rank)
		}
		if anomaly != nil {
			rec.IsAnomaly = *anomaly
		}
		// New rejects a NaN baseload, so a NULL one fails the load instead of reading as zero
		rec.Baseload = math.NaN()
		if baseload != nil {
			rec.Baseload = *baseload
		}
		if night != nil {
			rec.NightRatio = *night
		}
		if consumption != nil {
			rec.AvgConsumption = *consumption
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return records, nil
}

// selectQuery builds the SELECT for the present columns, in artifact column order.
func selectQuery(table string, present map[string]bool) (string, []string, error) {
	var selected []string
	var names []string
	for _, c := range columnCasts {
		if present[c.name] {
			selected = append(selected, pgx.Identifier{c.name}.Sanitize()+c.cast)
			names = append(names, c.name)
		}
	}
	if len(selected) == 0 {
		return "", nil, fmt.Errorf("table %s has no known columns", table)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(selected, ", "), pgx.Identifier{table}.Sanitize()), names, nil
}
