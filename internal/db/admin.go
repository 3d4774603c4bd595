package db

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/structure.align/internal/httputil"
)

// AttachAdminRoutes mounts the debug pages on mux: a tailsql console over
// this database, a JSON list of recorded runs and a gzipped backup.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Alignment DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recorded alignment runs (JSON)", http.HandlerFunc(db.handleRuns))
	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.handleBackup))
	return nil
}

func (db *DB) handleRuns(w http.ResponseWriter, r *http.Request) {
	ok, err := db.HasTable("alignment_runs")
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	runs := []*Run{}
	if ok {
		if runs, err = db.ListRuns(100); err != nil {
			httputil.InternalServerError(w, err)
			return
		}
	}
	if runs == nil {
		runs = []*Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (db *DB) handleBackup(w http.ResponseWriter, r *http.Request) {
	backupPath := filepath.Join(os.TempDir(), fmt.Sprintf("backup-%d.db", time.Now().Unix()))
	if err := db.Snapshot(backupPath); err != nil {
		httputil.InternalServerError(w, fmt.Errorf("failed to create backup: %w", err))
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			logger.Logf("failed to remove backup file: %v", err)
		}
	}()

	backupFile, err := os.Open(backupPath)
	if err != nil {
		httputil.InternalServerError(w, fmt.Errorf("failed to open backup file: %w", err))
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(backupPath)))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Encoding", "gzip")

	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, backupFile); err != nil {
		logger.Logf("failed to write backup: %v", err)
	}
}
