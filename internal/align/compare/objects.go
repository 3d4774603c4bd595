package compare

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/align/stats"
	"github.com/banshee-data/structure.align/internal/structure"
)

// Object is a named piece of geometry reduced to its ordered vertex
// positions.
type Object struct {
	Name   string
	Points [][3]float64
}

// ObjectComparison is the vertex agreement of one object present in both
// models.
type ObjectComparison struct {
	Name                 string  `json:"name"`
	ElementType          string  `json:"element_type"`
	OutputVertexCount    int     `json:"output_vertex_count"`
	ReferenceVertexCount int     `json:"reference_vertex_count"`
	Compared             int     `json:"total_compared"`
	Matched              int     `json:"matched_vertices"`
	MatchRate            float64 `json:"match_rate"`
	MaxDisplacement      float64 `json:"max_displacement"`
	MeanDisplacement     float64 `json:"mean_displacement"`
}

// TypeBreakdown aggregates object comparisons of one element type.
type TypeBreakdown struct {
	Objects          int     `json:"objects"`
	VerticesCompared int     `json:"vertices_compared"`
	VerticesMatched  int     `json:"vertices_matched"`
	MatchRate        float64 `json:"match_rate"`
}

// ModelComparison summarises an output model against a reference model.
// Match rates are percentages rounded to one decimal.
type ModelComparison struct {
	Tolerance             float64                  `json:"tolerance"`
	OutputObjectCount     int                      `json:"output_object_count"`
	ReferenceObjectCount  int                      `json:"reference_object_count"`
	CommonObjects         int                      `json:"common_objects"`
	TotalVerticesCompared int                      `json:"total_vertices_compared"`
	VerticesMatched       int                      `json:"vertices_matched"`
	OverallMatchRate      float64                  `json:"overall_match_rate"`
	Displacement          stats.Distribution       `json:"displacement"`
	TypeBreakdown         map[string]TypeBreakdown `json:"type_breakdown"`
	OutputOnlyNames       []string                 `json:"output_only_names"`
	ReferenceOnlyNames    []string                 `json:"reference_only_names"`
	Objects               []ObjectComparison       `json:"objects,omitempty"`
}

// CompareObjects matches objects by name and their vertices by index. A
// vertex pair matches when its 3D distance is within tolerance. Per-object
// details are kept only when details is true.
func CompareObjects(output, reference []Object, tolerance float64, details bool) ModelComparison {
	out := indexByName(output)
	ref := indexByName(reference)

	res := ModelComparison{
		Tolerance:            tolerance,
		OutputObjectCount:    len(out),
		ReferenceObjectCount: len(ref),
		TypeBreakdown:        make(map[string]TypeBreakdown),
	}

	var common []string
	for name := range out {
		if _, ok := ref[name]; ok {
			common = append(common, name)
		} else {
			res.OutputOnlyNames = append(res.OutputOnlyNames, name)
		}
	}
	for name := range ref {
		if _, ok := out[name]; !ok {
			res.ReferenceOnlyNames = append(res.ReferenceOnlyNames, name)
		}
	}
	sort.Strings(common)
	sort.Strings(res.OutputOnlyNames)
	sort.Strings(res.ReferenceOnlyNames)
	res.CommonObjects = len(common)

	var all []float64
	for _, name := range common {
		oc, ds := compareObject(name, out[name].Points, ref[name].Points, tolerance)
		all = append(all, ds...)

		tb := res.TypeBreakdown[oc.ElementType]
		tb.Objects++
		tb.VerticesCompared += oc.Compared
		tb.VerticesMatched += oc.Matched
		res.TypeBreakdown[oc.ElementType] = tb

		res.VerticesMatched += oc.Matched
		if details {
			res.Objects = append(res.Objects, oc)
		}
	}
	for typ, tb := range res.TypeBreakdown {
		tb.MatchRate = percent(tb.VerticesMatched, tb.VerticesCompared, 0)
		res.TypeBreakdown[typ] = tb
	}

	res.TotalVerticesCompared = len(all)
	res.OverallMatchRate = percent(res.VerticesMatched, len(all), 0)
	res.Displacement = stats.Describe(all)

	logger.Logf("%d common objects, %d/%d vertices matched (%.1f%%) within %.3fm",
		res.CommonObjects, res.VerticesMatched, res.TotalVerticesCompared, res.OverallMatchRate, tolerance)
	return res
}

func compareObject(name string, out, ref [][3]float64, tolerance float64) (ObjectComparison, []float64) {
	oc := ObjectComparison{
		Name:                 name,
		ElementType:          structure.InferElementType(name).String(),
		OutputVertexCount:    len(out),
		ReferenceVertexCount: len(ref),
		Compared:             min(len(out), len(ref)),
	}

	ds := make([]float64, oc.Compared)
	sum := 0.0
	for i := range ds {
		d := structure.Displacement(out[i][0], out[i][1], out[i][2], ref[i][0], ref[i][1], ref[i][2])
		ds[i] = d
		sum += d
		if d <= tolerance {
			oc.Matched++
		}
		oc.MaxDisplacement = math.Max(oc.MaxDisplacement, d)
	}
	oc.MatchRate = percent(oc.Matched, oc.Compared, 100)
	if oc.Compared > 0 {
		oc.MeanDisplacement = structure.Round(sum/float64(oc.Compared), 6)
		oc.MaxDisplacement = structure.Round(oc.MaxDisplacement, 6)
	}
	return oc, ds
}

func percent(n, total int, empty float64) float64 {
	if total == 0 {
		return empty
	}
	return structure.Round(float64(n)/float64(total)*100, 1)
}

// indexByName keys objects by name. Unnamed objects are ignored and the last
// of several objects sharing a name wins.
func indexByName(objects []Object) map[string]Object {
	out := make(map[string]Object, len(objects))
	for _, o := range objects {
		if o.Name == "" {
			continue
		}
		if _, dup := out[o.Name]; dup {
			logger.Logf("duplicate object name %q, last instance used", o.Name)
		}
		out[o.Name] = o
	}
	return out
}
