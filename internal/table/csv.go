package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/energy-insights/internal/types"
)

// LoadCSV decodes a row-oriented predictions artifact. The header row names the columns;
// unknown columns (such as a pandas index) are ignored.
func LoadCSV(r io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: source, Message: "empty file"}
		}
		return nil, &LoadError{Source: source, Message: "failed to read CSV header", Cause: err}
	}

	pos := make(map[string]int, len(headers))
	present := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
		present[name] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, &LoadError{Source: source, Message: "bad header", Cause: &MissingColumnError{Column: col}}
		}
	}
	columns := ColumnsFromNames(present)

	var records []types.BuildingRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Source: source, Message: fmt.Sprintf("failed to read line %d", line), Cause: err}
		}

		rec, err := decodeCSVRow(row, pos)
		if err != nil {
			return nil, &LoadError{Source: source, Message: fmt.Sprintf("line %d", line), Cause: err}
		}
		records = append(records, rec)
	}

	return New(records, columns, source)
}

func decodeCSVRow(row []string, pos map[string]int) (types.BuildingRecord, error) {
	cell := func(col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec types.BuildingRecord
	var err error

	rec.BuildingID = cell(ColBuildingID)
	rec.BuildingType = cell(ColBuildingType)
	rec.Recommendation = cell(ColRecommendation)

	if rec.Cluster, err = parseInt(cell(ColCluster)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColCluster, err)
	}
	if rec.PriorityRank, err = parseInt(cell(ColPriorityRank)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColPriorityRank, err)
	}
	if rec.IsAnomaly, err = parseBool(cell(ColIsAnomaly)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColIsAnomaly, err)
	}
	if rec.Baseload, err = parseRequiredFloat(cell(ColBaseload)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColBaseload, err)
	}
	if rec.NightRatio, err = parseFloat(cell(ColNightRatio)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColNightRatio, err)
	}
	if rec.AvgConsumption, err = parseFloat(cell(ColAvgConsumption)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColAvgConsumption, err)
	}

	if rec.Underperformer, err = parseOptionalBool(cell(ColUnderperformer)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColUnderperformer, err)
	}
	if rec.WeekendRatio, err = parseOptionalFloat(cell(ColWeekendRatio)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColWeekendRatio, err)
	}
	if rec.PredictedWeekendRatio, err = parseOptionalFloat(cell(ColPredictedWeekendRatio)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColPredictedWeekendRatio, err)
	}
	if rec.WeekendGap, err = parseOptionalFloat(cell(ColWeekendGap)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColWeekendGap, err)
	}
	if shap := cell(ColShapJSON); shap != "" && !isMissing(shap) {
		rec.ShapJSON = &shap
	}

	return rec, nil
}

// isMissing matches the spellings pandas uses for null cells.
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "<na>":
		return true
	}
	return false
}

// parseInt accepts integral floats ("2.0") because pandas widens nullable int columns to float.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	if isMissing(s) {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// parseRequiredFloat rejects null cells, which would otherwise count as zero in cluster means.
func parseRequiredFloat(s string) (float64, error) {
	if isMissing(s) {
		return 0, fmt.Errorf("missing value")
	}
	return parseFloat(s)
}

func parseBool(s string) (bool, error) {
	if isMissing(s) {
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	// 1.0 / 0.0 from float-typed flag columns
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseOptionalFloat(s string) (*float64, error) {
	if isMissing(s) {
		return nil, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseOptionalBool(s string) (*bool, error) {
	if isMissing(s) {
		return nil, nil
	}
	b, err := parseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
