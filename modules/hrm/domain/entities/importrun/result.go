package importrun

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeDryRun Mode = "dry_run"
	ModeCommit Mode = "commit"
)

// HeaderPair is one position where the uploaded header differs from the template.
type HeaderPair struct {
	Position int    `json:"position"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type HeaderValidation struct {
	Missing       []string     `json:"missing"`
	Extra         []string     `json:"extra"`
	OrderMismatch []HeaderPair `json:"orderMismatch"`
}

func (h HeaderValidation) Clean() bool {
	return len(h.Missing) == 0 && len(h.Extra) == 0 && len(h.OrderMismatch) == 0
}

// LogHandles names the two artifacts of one persisted run.
type LogHandles struct {
	JSON string
	CSV  string
}

// Result is everything a run learned about an upload.
type Result struct {
	ID         uuid.UUID
	Mode       Mode
	Profile    string
	Policy     string
	SourceName string
	StartedAt  time.Time
	FinishedAt time.Time

	Rows      int
	Processed int
	Skipped   int

	Header      HeaderValidation
	Diagnostics []Diagnostic

	// Fatal is set when the run stopped before looking at rows.
	Fatal string

	LogHandle    string
	LogCSVHandle string
}

func NewResult(mode Mode, profile, policy, source string, startedAt time.Time) *Result {
	return &Result{
		ID:         uuid.New(),
		Mode:       mode,
		Profile:    profile,
		Policy:     policy,
		SourceName: source,
		StartedAt:  startedAt,
		Header: HeaderValidation{
			Missing:       []string{},
			Extra:         []string{},
			OrderMismatch: []HeaderPair{},
		},
		Diagnostics: []Diagnostic{},
	}
}

func (r *Result) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

func (r *Result) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

// Warnings excludes header findings; those are reported through Header.
func (r *Result) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(sev Severity) []Diagnostic {
	out := []Diagnostic{}
	for _, d := range r.Diagnostics {
		if d.Severity == sev && d.Section != SectionHeader {
			out = append(out, d)
		}
	}
	return out
}

// RowErrors counts distinct rows carrying at least one error.
func (r *Result) RowErrors() []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, d := range r.Diagnostics {
		if d.Severity != SeverityError || d.Row == 0 {
			continue
		}
		if _, ok := seen[d.Row]; ok {
			continue
		}
		seen[d.Row] = struct{}{}
		out = append(out, d.Row)
	}
	return out
}

func (r *Result) Success() bool {
	return r.Fatal == "" && r.Rows > 0 && len(r.Errors()) == 0
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
