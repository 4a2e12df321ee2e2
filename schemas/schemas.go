// Package schemas embeds the JSON Schemas for the documents the service reads and serves.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	SummaryStats = "summary_stats.schema.json"
	ShapValues   = "shap_values.schema.json"
	Config       = "config.schema.json"
	Summary      = "summary.schema.json"
	Building     = "building.schema.json"
	Cluster      = "cluster.schema.json"
)

// Names lists every embedded schema.
var Names = []string{SummaryStats, ShapValues, Config, Summary, Building, Cluster}
