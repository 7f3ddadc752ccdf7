package dtos

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/pkg/constants"
)

// ImportForm carries the non-file fields of an upload.
type ImportForm struct {
	Profile         string `form:"profile" validate:"required"`
	DuplicatePolicy string `form:"duplicatePolicy" validate:"omitempty,oneof=update skip error"`
}

func (d *ImportForm) Ok() (map[string]string, bool) {
	return validationMessages(d)
}

type TemplateQuery struct {
	Profile string `form:"profile" validate:"required"`
}

func (d *TemplateQuery) Ok() (map[string]string, bool) {
	return validationMessages(d)
}

func validationMessages(v any) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["_"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		switch err.Tag() {
		case "required":
			errorMessages[err.Field()] = fmt.Sprintf("%s is required", err.Field())
		case "oneof":
			errorMessages[err.Field()] = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		default:
			errorMessages[err.Field()] = fmt.Sprintf("%s is invalid", err.Field())
		}
	}
	return errorMessages, len(errorMessages) == 0
}

type Diagnostic struct {
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

type DryRunSummary struct {
	Rows      int `json:"rows"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
}

type DryRunResponse struct {
	Success          bool                       `json:"success"`
	Summary          DryRunSummary              `json:"summary"`
	HeaderValidation importrun.HeaderValidation `json:"headerValidation"`
	Errors           []Diagnostic               `json:"errors"`
	Warnings         []Diagnostic               `json:"warnings"`
	RowErrors        []int                      `json:"rowErrors"`
	LogURL           string                     `json:"logUrl,omitempty"`
	LogCSVURL        string                     `json:"logCsvUrl,omitempty"`
}

type CommitSummary struct {
	Rows          int `json:"rows"`
	ProcessedRows int `json:"processedRows"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
}

type CommitResponse struct {
	Success   bool          `json:"success"`
	Summary   CommitSummary `json:"summary"`
	Errors    []Diagnostic  `json:"errors"`
	Warnings  []Diagnostic  `json:"warnings"`
	LogURL    string        `json:"logUrl,omitempty"`
	LogCSVURL string        `json:"logCsvUrl,omitempty"`
}

func toDiagnostics(in []importrun.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(in))
	for _, d := range in {
		out = append(out, Diagnostic{Row: d.Row, Column: d.Field, Message: d.Message})
	}
	return out
}

// NewDryRunResponse maps a run to the dry-run payload. logURL turns an
// artifact handle into a link; empty handles stay empty.
func NewDryRunResponse(r *importrun.Result, logURL func(string) string) DryRunResponse {
	errs, warns := r.Errors(), r.Warnings()
	return DryRunResponse{
		Success: r.Success(),
		Summary: DryRunSummary{
			Rows:      r.Rows,
			Processed: r.Processed,
			Skipped:   r.Skipped,
			Errors:    len(errs),
			Warnings:  len(warns),
		},
		HeaderValidation: r.Header,
		Errors:           toDiagnostics(errs),
		Warnings:         toDiagnostics(warns),
		RowErrors:        r.RowErrors(),
		LogURL:           link(r.LogHandle, logURL),
		LogCSVURL:        link(r.LogCSVHandle, logURL),
	}
}

func NewCommitResponse(r *importrun.Result, logURL func(string) string) CommitResponse {
	errs, warns := r.Errors(), r.Warnings()
	return CommitResponse{
		Success: r.Success(),
		Summary: CommitSummary{
			Rows:          r.Rows,
			ProcessedRows: r.Processed,
			Errors:        len(errs),
			Warnings:      len(warns),
		},
		Errors:    toDiagnostics(errs),
		Warnings:  toDiagnostics(warns),
		LogURL:    link(r.LogHandle, logURL),
		LogCSVURL: link(r.LogCSVHandle, logURL),
	}
}

func link(handle string, logURL func(string) string) string {
	if handle == "" || logURL == nil {
		return ""
	}
	return logURL(handle)
}
