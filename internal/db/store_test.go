package db

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

func init() {
	monitoring.SetLogger(nil)
}

func openMigrated(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.MigrateUp())
	return d
}

func seed(t *testing.T, d *DB) {
	t.Helper()
	elements := []structure.Element{
		{ID: 1, Name: "Poteau_1", Type: structure.ElementColumn, GeometryKind: "brep"},
		{ID: 2, Name: "voile_2", Type: structure.ElementUnknown},
	}
	vertices := []structure.Vertex{
		{ID: 1, ElementID: 1, X: 1.0, Y: 2.0, Z: 0.0, VertexIndex: 0},
		{ID: 2, ElementID: 1, X: 1.3, Y: 2.0, Z: 0.0, VertexIndex: 1},
		{ID: 3, ElementID: 2, X: 5.0, Y: 0.0, Z: 2.12, VertexIndex: 0},
	}
	require.NoError(t, d.InsertGeometry(elements, vertices))
}

func TestPragmasApplied(t *testing.T) {
	d := openMigrated(t)
	var journalMode string
	require.NoError(t, d.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, d.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrations(t *testing.T) {
	d := openMigrated(t)

	latest, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(3), latest)

	v, dirty, err := d.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, v)
	assert.False(t, dirty)

	ok, err := d.HasColumn("vertices", "displacement_total")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.MigrateTo(1))
	ok, err = d.HasColumn("vertices", "displacement_total")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = d.HasTable("alignment_runs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.MigrateUp())
	require.NoError(t, d.MigrateDown())
	v, _, err = d.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestLoad_MissingTables(t *testing.T) {
	d, err := OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer d.Close()

	_, err = d.LoadVertices()
	assert.True(t, errors.Is(err, ErrMissingTable))

	_, _, err = d.LoadVerticesWithElements()
	assert.True(t, errors.Is(err, ErrMissingTable))

	_, err = d.ReadAlignedElements()
	assert.True(t, errors.Is(err, ErrMissingTable))
}

func TestOpenExisting_Missing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestInsertAndLoad(t *testing.T) {
	d := openMigrated(t)
	seed(t, d)

	vertices, elements, err := d.LoadVerticesWithElements()
	require.NoError(t, err)
	require.Len(t, vertices, 3)
	assert.Equal(t, structure.Vertex{ID: 2, ElementID: 1, X: 1.3, Y: 2.0, Z: 0.0, VertexIndex: 1}, vertices[1])

	require.Len(t, elements, 2)
	assert.Equal(t, structure.ElementColumn, elements[1].Type)
	assert.Equal(t, "brep", elements[1].GeometryKind)
	// "unknown" falls back to the name prefix.
	assert.Equal(t, structure.ElementWall, elements[2].Type)
}

func TestPersistAligned(t *testing.T) {
	d := openMigrated(t)
	seed(t, d)

	av := structure.AlignedVertex{
		ID: 1, ElementID: 1, X: 1.0, Y: 2.01, Z: 0.0,
		XOriginal: 1.0, YOriginal: 2.0, ZOriginal: 0.0,
		Aligned:      structure.AxisSet(0).With(structure.AxisY),
		Displacement: 0.01,
	}
	av.ThreadIDs[structure.AxisY] = "Y_001"
	require.NoError(t, d.PersistAligned([]structure.AlignedVertex{av}))

	var (
		y, yOrig   float64
		axis       string
		filX, filY *string
	)
	err := d.QueryRow(`SELECT y, y_original, aligned_axis, fil_x_id, fil_y_id FROM vertices WHERE id = 1`).
		Scan(&y, &yOrig, &axis, &filX, &filY)
	require.NoError(t, err)
	assert.Equal(t, 2.01, y)
	assert.Equal(t, 2.0, yOrig)
	assert.Equal(t, "Y", axis)
	assert.Nil(t, filX)
	require.NotNil(t, filY)
	assert.Equal(t, "Y_001", *filY)

	err = d.PersistAligned([]structure.AlignedVertex{{ID: 99}})
	assert.Error(t, err, "unknown vertex id must fail the whole write")
}

func TestPersistAligned_RequiresColumns(t *testing.T) {
	d, err := OpenDB(filepath.Join(t.TempDir(), "v1.db"))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.MigrateTo(1))

	err = d.PersistAligned(nil)
	assert.True(t, errors.Is(err, ErrMissingTable))
}

func TestReadAlignedElements(t *testing.T) {
	d := openMigrated(t)
	seed(t, d)
	_, err := d.Exec(`INSERT INTO elements (id, type, nom) VALUES (3, 'dalle', 'Dalle_empty')`)
	require.NoError(t, err)

	got, err := d.ReadAlignedElements()
	require.NoError(t, err)
	require.Len(t, got, 3)

	col := got["Poteau_1"]
	assert.Equal(t, int64(1), col.ID)
	assert.Equal(t, []structure.VertexCoord{
		{VertexIndex: 0, X: 1.0, Y: 2.0, Z: 0.0},
		{VertexIndex: 1, X: 1.3, Y: 2.0, Z: 0.0},
	}, col.Coords)
	assert.Empty(t, got["Dalle_empty"].Coords)
}

func TestReadAlignedElements_DuplicateName(t *testing.T) {
	d := openMigrated(t)
	seed(t, d)
	_, err := d.Exec(`INSERT INTO elements (id, type, nom) VALUES (3, 'poteau', 'Poteau_1')`)
	require.NoError(t, err)

	_, err = d.ReadAlignedElements()
	assert.True(t, errors.Is(err, structure.ErrDuplicateElementName))
}

func TestSnapshot(t *testing.T) {
	d := openMigrated(t)
	seed(t, d)

	out := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, d.Snapshot(out))
	assert.Error(t, d.Snapshot(out), "existing target is refused")

	cp, err := OpenExisting(out)
	require.NoError(t, err)
	defer cp.Close()
	vs, err := cp.LoadVertices()
	require.NoError(t, err)
	assert.Len(t, vs, 3)
}

func TestRuns(t *testing.T) {
	d := openMigrated(t)

	first := &Run{Strategy: "threads", VertexCount: 10, AlignedCount: 9, AlignmentRate: 0.9,
		ValidationPassed: true, ParamsJSON: json.RawMessage(`{"alpha":0.05}`), CreatedAt: 1}
	require.NoError(t, d.InsertRun(first))
	assert.NotEmpty(t, first.RunID)

	second := &Run{Strategy: "elements", VertexCount: 5, CreatedAt: 2}
	require.NoError(t, d.InsertRun(second))

	got, err := d.GetRun(first.RunID)
	require.NoError(t, err)
	assert.True(t, got.ValidationPassed)
	assert.JSONEq(t, `{"alpha":0.05}`, string(got.ParamsJSON))
	assert.Nil(t, got.ReportJSON)

	runs, err := d.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID)

	runs, err = d.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHandleRuns(t *testing.T) {
	d := openMigrated(t)
	require.NoError(t, d.InsertRun(&Run{Strategy: "threads"}))

	rec := httptest.NewRecorder()
	d.handleRuns(rec, httptest.NewRequest(http.MethodGet, "/debug/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "threads", runs[0].Strategy)
}

func TestEnsureSchema_BaselinesUntrackedDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	d, err := OpenDB(path)
	require.NoError(t, err)
	defer d.Close()

	// Geometry written by another tool: tables but no migration history.
	_, err = d.Exec(`
		CREATE TABLE elements (id INTEGER PRIMARY KEY, type VARCHAR(50) NOT NULL, nom VARCHAR(100) NOT NULL);
		CREATE TABLE vertices (id INTEGER PRIMARY KEY, element_id INTEGER NOT NULL,
			x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL, vertex_index INTEGER NOT NULL);
		INSERT INTO elements (id, type, nom) VALUES (1, 'poteau', 'P1');
		INSERT INTO vertices (id, element_id, x, y, z, vertex_index) VALUES (7, 1, 1, 2, 3, 0);
	`)
	require.NoError(t, err)

	v, err := d.DetectSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, d.EnsureSchema())
	v, dirty, err := d.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.False(t, dirty)

	// Existing rows survive and the enrichment defaults apply.
	var axis string
	require.NoError(t, d.QueryRow(`SELECT aligned_axis FROM vertices WHERE id = 7`).Scan(&axis))
	assert.Equal(t, "none", axis)

	// Idempotent once tracked.
	require.NoError(t, d.EnsureSchema())
}

func TestDetectSchemaVersion_Empty(t *testing.T) {
	d, err := OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer d.Close()

	v, err := d.DetectSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	require.NoError(t, d.EnsureSchema())
	ok, err := d.HasTable("alignment_runs")
	require.NoError(t, err)
	assert.True(t, ok)
}
