// Package report renders run summaries: the JSON run report, the reverse
// apply report, an HTML displacement chart and a PNG axis plot.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/structure.align/internal/align/pipeline"
	"github.com/banshee-data/structure.align/internal/align/stats"
	"github.com/banshee-data/structure.align/internal/align/validate"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
	"github.com/banshee-data/structure.align/internal/version"
)

// maxIsolated caps the isolated vertex listing.
const maxIsolated = 100

var logger = monitoring.Component("report")

// Metadata describes where a run came from and went to.
type Metadata struct {
	RunID                string    `json:"run_id"`
	Timestamp            time.Time `json:"timestamp"`
	InputDatabase        string    `json:"input_database"`
	OutputDatabase       string    `json:"output_database,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
	SoftwareVersion      string    `json:"software_version"`
	DryRun               bool      `json:"dry_run"`
	Mode                 string    `json:"mode"`
	Strategy             string    `json:"discovery_strategy"`
}

// Counts are the headline coverage figures.
type Counts struct {
	TotalVertices        int     `json:"total_vertices"`
	AlignedVertices      int     `json:"aligned_vertices"`
	IsolatedVertices     int     `json:"isolated_vertices"`
	AlignmentRatePercent float64 `json:"alignment_rate_percent"`
}

// LineSummary is one discovered thread or axis line.
type LineSummary struct {
	ID          string  `json:"fil_id"`
	Reference   float64 `json:"reference"`
	Delta       float64 `json:"delta"`
	VertexCount int     `json:"vertex_count"`
	FloorCount  int     `json:"floor_count,omitempty"`
}

// IsolatedVertex is a vertex no axis snapped.
type IsolatedVertex struct {
	VertexID    int64      `json:"vertex_id"`
	ElementID   int64      `json:"element_id"`
	Coordinates [3]float64 `json:"coordinates"`
	Reason      string     `json:"reason"`
}

// RunReport is the JSON document written for every alignment run.
type RunReport struct {
	Metadata               Metadata                        `json:"metadata"`
	Parameters             config.AlignmentParams          `json:"parameters"`
	Statistics             Counts                          `json:"statistics"`
	AxisStatistics         map[string]stats.AxisStatistics `json:"axis_statistics"`
	ThreadsDetected        map[string][]LineSummary        `json:"threads_detected"`
	DisplacementStatistics stats.Distribution              `json:"displacement_statistics"`
	IsolatedVertices       []IsolatedVertex                `json:"isolated_vertices"`
	IsolatedVerticesTotal  int                             `json:"isolated_vertices_total"`
	Validation             validate.Result                 `json:"validation"`
}

// Build assembles the report of res. meta.Mode, meta.Strategy and the
// execution time are filled from res.
func Build(res *pipeline.Result, meta Metadata) RunReport {
	meta.Mode = string(res.Mode)
	meta.Strategy = res.Strategy
	meta.ExecutionTimeSeconds = structure.Round(res.Duration.Seconds(), 2)
	if meta.SoftwareVersion == "" {
		meta.SoftwareVersion = version.Version
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	total := len(res.Aligned)
	aligned := res.AlignedCount()
	rep := RunReport{
		Metadata:   meta,
		Parameters: res.Params,
		Statistics: Counts{
			TotalVertices:    total,
			AlignedVertices:  aligned,
			IsolatedVertices: total - aligned,
		},
		AxisStatistics:         make(map[string]stats.AxisStatistics, len(res.AxisStats)),
		ThreadsDetected:        make(map[string][]LineSummary, len(structure.AllAxes)),
		DisplacementStatistics: stats.Describe(res.Displacements()),
		IsolatedVertices:       []IsolatedVertex{},
		Validation:             res.Validation,
	}
	if total > 0 {
		rep.Statistics.AlignmentRatePercent = structure.Round(float64(aligned)/float64(total)*100, 1)
	}
	for _, s := range res.AxisStats {
		rep.AxisStatistics[s.Axis.String()] = s
	}
	for _, a := range structure.AllAxes {
		rep.ThreadsDetected[a.String()] = lineSummaries(res.Lines[a])
	}
	for _, av := range res.Aligned {
		if !av.Aligned.Empty() {
			continue
		}
		rep.IsolatedVerticesTotal++
		if len(rep.IsolatedVertices) < maxIsolated {
			rep.IsolatedVertices = append(rep.IsolatedVertices, IsolatedVertex{
				VertexID:    av.ID,
				ElementID:   av.ElementID,
				Coordinates: [3]float64{av.XOriginal, av.YOriginal, av.ZOriginal},
				Reason:      "no_nearby_cluster",
			})
		}
	}
	return rep
}

func lineSummaries(lines []structure.AxisLine) []LineSummary {
	out := make([]LineSummary, len(lines))
	for i, l := range lines {
		out[i] = LineSummary{
			ID:          l.ID,
			Reference:   l.Position,
			Delta:       l.Delta,
			VertexCount: l.VertexCount,
			FloorCount:  l.FloorCount,
		}
	}
	return out
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Logf("report written to %s", path)
	return nil
}
