// Package runlog keeps the JSON and CSV artifacts of every import run on disk.
package runlog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	faster "github.com/go-faster/errors"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
)

const (
	filePrefix      = "employee-import-"
	timestampLayout = "20060102T150405Z"

	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

var (
	ErrInvalidHandle = errors.New("invalid run log handle")
	ErrNotFound      = errors.New("run log not found")
)

// CSVHeader is the first record of every CSV artifact.
var CSVHeader = []string{"Section", "Severity", "Row", "Column", "Message"}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

type summary struct {
	Rows      int `json:"rows"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
}

type document struct {
	RunID            string                     `json:"runId"`
	Mode             importrun.Mode             `json:"mode"`
	Profile          string                     `json:"profile"`
	Policy           string                     `json:"policy"`
	Source           string                     `json:"source,omitempty"`
	StartedAt        time.Time                  `json:"startedAt"`
	FinishedAt       time.Time                  `json:"finishedAt"`
	DurationMs       int64                      `json:"durationMs"`
	Success          bool                       `json:"success"`
	Summary          summary                    `json:"summary"`
	HeaderValidation importrun.HeaderValidation `json:"headerValidation"`
	Diagnostics      []importrun.Diagnostic     `json:"diagnostics"`
}

func newDocument(r *importrun.Result) document {
	return document{
		RunID:      r.ID.String(),
		Mode:       r.Mode,
		Profile:    r.Profile,
		Policy:     r.Policy,
		Source:     r.SourceName,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMs: r.Duration().Milliseconds(),
		Success:    r.Success(),
		Summary: summary{
			Rows:      r.Rows,
			Processed: r.Processed,
			Skipped:   r.Skipped,
			Errors:    len(r.Errors()),
			Warnings:  len(r.Warnings()),
		},
		HeaderValidation: r.Header,
		Diagnostics:      r.Diagnostics,
	}
}

// Persist writes the JSON and CSV artifacts of result under one shared stem.
func (s *Store) Persist(ctx context.Context, result *importrun.Result) (importrun.LogHandles, error) {
	if err := ctx.Err(); err != nil {
		return importrun.LogHandles{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return importrun.LogHandles{}, faster.Wrap(err, "create run log dir")
	}
	stem := filePrefix + result.StartedAt.UTC().Format(timestampLayout) + "-" + strings.ReplaceAll(result.ID.String(), "-", "")[:8]
	handles := importrun.LogHandles{JSON: stem + ".json", CSV: stem + ".csv"}

	if err := s.writeFile(handles.JSON, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(result))
	}); err != nil {
		return importrun.LogHandles{}, err
	}
	if err := s.writeFile(handles.CSV, func(w io.Writer) error {
		return WriteCSV(w, result.Diagnostics)
	}); err != nil {
		_ = os.Remove(filepath.Join(s.dir, handles.JSON))
		return importrun.LogHandles{}, err
	}
	return handles, nil
}

// writeFile goes through a temp file so a reader never sees a partial artifact.
func (s *Store) writeFile(name string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return faster.Wrapf(err, "create %s", name)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return faster.Wrapf(err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return faster.Wrapf(err, "close %s", name)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return faster.Wrapf(err, "publish %s", name)
	}
	return nil
}

func WriteCSV(w io.Writer, diagnostics []importrun.Diagnostic) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, d := range diagnostics {
		row := ""
		if d.Row > 0 {
			row = strconv.Itoa(d.Row)
		}
		if err := cw.Write([]string{string(d.Section), string(d.Severity), row, d.Field, d.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Open returns the artifact named by handle and its content type. Handles are
// bare file names produced by Persist; anything that could leave the log
// directory is refused.
func (s *Store) Open(handle string) (io.ReadCloser, string, error) {
	contentType, err := validateHandle(handle)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(filepath.Join(s.dir, handle))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", faster.Wrap(err, "open run log")
	}
	return f, contentType, nil
}

func validateHandle(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) || filepath.IsAbs(handle) ||
		strings.ContainsAny(handle, `/\`) || strings.Contains(handle, "..") ||
		!strings.HasPrefix(handle, filePrefix) {
		return "", ErrInvalidHandle
	}
	switch strings.ToLower(filepath.Ext(handle)) {
	case ".json":
		return ContentTypeJSON, nil
	case ".csv":
		return ContentTypeCSV, nil
	default:
		return "", ErrInvalidHandle
	}
}
