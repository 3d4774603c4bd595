package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/structure.align/internal/structure"
)

// LoadVertices returns every vertex ordered by id. The vertices table must
// exist and ids must be unique.
func (db *DB) LoadVertices() ([]structure.Vertex, error) {
	if err := db.requireTables("vertices"); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id, element_id, x, y, z, vertex_index FROM vertices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vertices: %w", err)
	}
	defer rows.Close()

	var out []structure.Vertex
	for rows.Next() {
		var v structure.Vertex
		if err := rows.Scan(&v.ID, &v.ElementID, &v.X, &v.Y, &v.Z, &v.VertexIndex); err != nil {
			return nil, fmt.Errorf("failed to scan vertex: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := structure.CheckUniqueIDs(out); err != nil {
		return nil, err
	}
	logger.Logf("loaded %d vertices from %s", len(out), db.path)
	return out, nil
}

// LoadElements returns element metadata keyed by id. A stored type the
// aligner does not know falls back to the element's name prefix.
func (db *DB) LoadElements() (map[int64]structure.Element, error) {
	if err := db.requireTables("elements"); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id, type, nom, geometry_type FROM elements`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]structure.Element)
	for rows.Next() {
		var (
			el       structure.Element
			typ      string
			geomKind sql.NullString
		)
		if err := rows.Scan(&el.ID, &typ, &el.Name, &geomKind); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		el.Type = structure.ParseElementType(typ)
		if el.Type == structure.ElementUnknown {
			el.Type = structure.InferElementType(el.Name)
		}
		el.GeometryKind = geomKind.String
		out[el.ID] = el
	}
	return out, rows.Err()
}

// LoadVerticesWithElements loads both tables for the element path. Both
// tables must exist.
func (db *DB) LoadVerticesWithElements() ([]structure.Vertex, map[int64]structure.Element, error) {
	if err := db.requireTables("vertices", "elements"); err != nil {
		return nil, nil, err
	}
	elements, err := db.LoadElements()
	if err != nil {
		return nil, nil, err
	}
	vertices, err := db.LoadVertices()
	if err != nil {
		return nil, nil, err
	}
	return vertices, elements, nil
}

// InsertGeometry writes elements and their vertices in one transaction.
// The schema must already be migrated.
func (db *DB) InsertGeometry(elements []structure.Element, vertices []structure.Vertex) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	elStmt, err := tx.Prepare(`INSERT INTO elements (id, type, nom, geometry_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare element insert: %w", err)
	}
	defer elStmt.Close()
	for _, el := range elements {
		var kind interface{}
		if el.GeometryKind != "" {
			kind = el.GeometryKind
		}
		if _, err := elStmt.Exec(el.ID, el.Type.String(), el.Name, kind); err != nil {
			return fmt.Errorf("failed to insert element %q: %w", el.Name, err)
		}
	}

	vStmt, err := tx.Prepare(`INSERT INTO vertices (id, element_id, x, y, z, vertex_index) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vertex insert: %w", err)
	}
	defer vStmt.Close()
	for _, v := range vertices {
		if _, err := vStmt.Exec(v.ID, v.ElementID, v.X, v.Y, v.Z, v.VertexIndex); err != nil {
			return fmt.Errorf("failed to insert vertex %d: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit geometry: %w", err)
	}
	logger.Logf("inserted %d elements, %d vertices", len(elements), len(vertices))
	return nil
}

func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// PersistAligned writes aligned coordinates and enrichment columns for every
// vertex in one transaction. The alignment columns must exist.
func (db *DB) PersistAligned(aligned []structure.AlignedVertex) error {
	ok, err := db.HasColumn("vertices", "aligned_axis")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: vertices has no alignment columns, run migrations first", ErrMissingTable)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		UPDATE vertices
		SET x = ?, y = ?, z = ?,
		    x_original = ?, y_original = ?, z_original = ?,
		    aligned_axis = ?, fil_x_id = ?, fil_y_id = ?, fil_z_id = ?,
		    displacement_total = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare vertex update: %w", err)
	}
	defer stmt.Close()

	for _, av := range aligned {
		res, err := stmt.Exec(
			av.X, av.Y, av.Z,
			av.XOriginal, av.YOriginal, av.ZOriginal,
			av.Aligned.String(),
			nullableID(av.ThreadID(structure.AxisX)),
			nullableID(av.ThreadID(structure.AxisY)),
			nullableID(av.ThreadID(structure.AxisZ)),
			av.Displacement,
			av.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update vertex %d: %w", av.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return fmt.Errorf("vertex %d: updated %d rows", av.ID, n)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit aligned vertices: %w", err)
	}
	logger.Logf("wrote %d aligned vertices to %s", len(aligned), db.path)
	return nil
}

// ReadAlignedElements returns the current coordinates of every element,
// keyed by element name, with coordinates ordered by vertex index. Element
// names must be unique. Elements without vertices are included with no
// coordinates.
func (db *DB) ReadAlignedElements() (map[string]structure.AlignedElement, error) {
	if err := db.requireTables("elements", "vertices"); err != nil {
		return nil, err
	}

	hasKind, err := db.HasColumn("elements", "geometry_type")
	if err != nil {
		return nil, err
	}
	query := `SELECT id, nom, NULL FROM elements ORDER BY id`
	if hasKind {
		query = `SELECT id, nom, geometry_type FROM elements ORDER BY id`
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	byID := make(map[int64]*structure.AlignedElement)
	owner := make(map[string]int64)
	for rows.Next() {
		var (
			el   structure.AlignedElement
			kind sql.NullString
		)
		if err := rows.Scan(&el.ID, &el.Name, &kind); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		if prev, dup := owner[el.Name]; dup {
			rows.Close()
			return nil, fmt.Errorf("%w: %q (element ids %d, %d)", structure.ErrDuplicateElementName, el.Name, prev, el.ID)
		}
		owner[el.Name] = el.ID
		el.GeometryKind = kind.String
		byID[el.ID] = &el
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	vrows, err := db.Query(`SELECT element_id, vertex_index, x, y, z FROM vertices ORDER BY element_id, vertex_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vertices: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			eid int64
			c   structure.VertexCoord
		)
		if err := vrows.Scan(&eid, &c.VertexIndex, &c.X, &c.Y, &c.Z); err != nil {
			return nil, fmt.Errorf("failed to scan vertex: %w", err)
		}
		if el, ok := byID[eid]; ok {
			el.Coords = append(el.Coords, c)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]structure.AlignedElement, len(byID))
	withCoords := 0
	for _, el := range byID {
		out[el.Name] = *el
		if len(el.Coords) > 0 {
			withCoords++
		}
	}
	logger.Logf("read %d elements (%d with vertices) from %s", len(out), withCoords, db.path)
	return out, nil
}
