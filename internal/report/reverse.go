package report

import (
	"fmt"
	"time"

	"github.com/banshee-data/structure.align/internal/align/compare"
	"github.com/banshee-data/structure.align/internal/geomodel"
	"github.com/banshee-data/structure.align/internal/version"
)

// maxListed caps the skipped object and residual listings.
const maxListed = 50

// ReverseMetadata identifies a reverse apply.
type ReverseMetadata struct {
	Timestamp       time.Time `json:"timestamp"`
	TemplateModel   string    `json:"template_model"`
	OutputModel     string    `json:"output_model"`
	AlignedDatabase string    `json:"aligned_database"`
	SoftwareVersion string    `json:"software_version"`
}

// ReverseCounts summarises what happened to each object.
type ReverseCounts struct {
	TotalObjects               int `json:"total_objects"`
	UpdatedObjects             int `json:"updated_objects"`
	UpdatedVertices            int `json:"updated_vertices"`
	SkippedNotInDB             int `json:"skipped_not_in_db"`
	SkippedUnsupportedGeometry int `json:"skipped_unsupported_geometry"`
	VertexCountMismatches      int `json:"vertex_count_mismatches"`
}

// BrepDesync summarises Brep residuals in millimetres.
type BrepDesync struct {
	BrepsWithResidual int      `json:"breps_with_residual"`
	MaxResidualMM     float64  `json:"max_residual_mm"`
	MeanResidualMM    float64  `json:"mean_residual_mm"`
	Details           []string `json:"details"`
}

// ReverseReport is the JSON document written after exporting aligned
// coordinates back into a model.
type ReverseReport struct {
	Metadata          ReverseMetadata `json:"metadata"`
	Statistics        ReverseCounts   `json:"statistics"`
	BrepEdgeDesync    BrepDesync      `json:"brep_edge_desync"`
	Warnings          []string        `json:"warnings"`
	SkippedObjects    []string        `json:"skipped_objects"`
	MismatchedObjects []string        `json:"mismatched_objects"`
}

// BuildReverse assembles the reverse apply report.
func BuildReverse(rep geomodel.ReverseReport, meta ReverseMetadata) ReverseReport {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if meta.SoftwareVersion == "" {
		meta.SoftwareVersion = version.Version
	}

	desync := BrepDesync{BrepsWithResidual: len(rep.BrepResiduals), Details: []string{}}
	var sum float64
	for i, r := range rep.BrepResiduals {
		mm := r.Residual * 1000
		sum += mm
		desync.MaxResidualMM = max(desync.MaxResidualMM, mm)
		if i < maxListed {
			desync.Details = append(desync.Details, fmt.Sprintf("%s: max_residual=%.6fm", r.Name, r.Residual))
		}
	}
	if n := len(rep.BrepResiduals); n > 0 {
		desync.MeanResidualMM = sum / float64(n)
	}

	skipped := rep.SkippedObjects
	if len(skipped) > maxListed {
		skipped = skipped[:maxListed]
	}
	return ReverseReport{
		Metadata: meta,
		Statistics: ReverseCounts{
			TotalObjects:               rep.TotalObjects,
			UpdatedObjects:             rep.UpdatedObjects,
			UpdatedVertices:            rep.UpdatedVertices,
			SkippedNotInDB:             len(rep.SkippedObjects),
			SkippedUnsupportedGeometry: len(rep.SkippedUnsupported),
			VertexCountMismatches:      len(rep.MismatchedObjects),
		},
		BrepEdgeDesync:    desync,
		Warnings:          nonNil(rep.SkippedUnsupported),
		SkippedObjects:    nonNil(skipped),
		MismatchedObjects: nonNil(rep.MismatchedObjects),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CompareReport is the JSON document written by a model comparison.
type CompareReport struct {
	OutputModel    string                   `json:"output_model"`
	ReferenceModel string                   `json:"reference_model"`
	Objects        compare.ModelComparison  `json:"objects"`
	Axes           []compare.AxisComparison `json:"axes"`
}
