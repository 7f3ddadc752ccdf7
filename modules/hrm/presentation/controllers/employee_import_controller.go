package controllers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/runlog"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/spreadsheet"
	"github.com/iota-uz/hrm-import/modules/hrm/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/httpapi"
)

const (
	multipartMemory      = 8 << 20
	defaultMaxUploadSize = 20 << 20
)

type EmployeeImportControllerOptions struct {
	// MaxUploadSize caps the whole request body in bytes.
	MaxUploadSize int64
}

type EmployeeImportController struct {
	app           application.Application
	importService *employeeimport.Service
	basePath      string
	maxUploadSize int64
}

func NewEmployeeImportController(app application.Application, opts EmployeeImportControllerOptions) application.Controller {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUploadSize
	}
	return &EmployeeImportController{
		app:           app,
		importService: app.Service(employeeimport.Service{}).(*employeeimport.Service),
		basePath:      "/hrm/employees/import",
		maxUploadSize: opts.MaxUploadSize,
	}
}

func (c *EmployeeImportController) Key() string {
	return c.basePath
}

func (c *EmployeeImportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/dry-run", c.DryRun).Methods(http.MethodPost)
	router.HandleFunc("/commit", c.Commit).Methods(http.MethodPost)
	router.HandleFunc("/logs/{handle}", c.GetLog).Methods(http.MethodGet)
	router.HandleFunc("/template", c.GetTemplate).Methods(http.MethodGet)
}

func (c *EmployeeImportController) DryRun(w http.ResponseWriter, r *http.Request) {
	req, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	result, err := c.importService.DryRun(r.Context(), req)
	if err != nil && !errors.Is(err, employeeimport.ErrEmptySheet) {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, runStatus(result), dtos.NewDryRunResponse(result, c.logURL))
}

func (c *EmployeeImportController) Commit(w http.ResponseWriter, r *http.Request) {
	req, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	result, err := c.importService.Commit(r.Context(), req)
	if err != nil && !errors.Is(err, employeeimport.ErrEmptySheet) {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, runStatus(result), dtos.NewCommitResponse(result, c.logURL))
}

func (c *EmployeeImportController) GetLog(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	rc, contentType, err := c.importService.OpenLog(r.Context(), handle)
	if err != nil {
		switch {
		case errors.Is(err, runlog.ErrInvalidHandle):
			writeError(w, r, httpapi.CodeInvalidRequest, "invalid log handle")
		case errors.Is(err, runlog.ErrNotFound), errors.Is(err, employeeimport.ErrRunLogsDisabled):
			writeError(w, r, httpapi.CodeNotFound, "log not found")
		default:
			c.writeServiceError(w, r, err)
		}
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", handle))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("stream run log")
	}
}

func (c *EmployeeImportController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	query, err := composables.UseQuery(&dtos.TemplateQuery{}, r)
	if err != nil {
		writeError(w, r, httpapi.CodeInvalidRequest, err.Error())
		return
	}
	if errs, ok := query.Ok(); !ok {
		writeValidationError(w, r, errs)
		return
	}
	tmpl, err := c.importService.Template(r.Context(), query.Profile)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplate(&buf, spreadsheet.TemplateLayout{
		SheetName: "Employees",
		Headers:   tmpl.Headers,
		Examples:  tmpl.Examples,
		Computed:  tmpl.ComputedMask(),
	}); err != nil {
		c.writeServiceError(w, r, errors.Wrap(err, "render template"))
		return
	}
	w.Header().Set("Content-Type", spreadsheet.MimeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "employee-import-"+string(tmpl.Profile)+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseUpload reads the form and the first sheet of the uploaded file. On
// failure the response is already written.
func (c *EmployeeImportController) parseUpload(w http.ResponseWriter, r *http.Request) (employeeimport.Request, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, httpapi.CodePayloadTooLarge, fmt.Sprintf("upload exceeds %d bytes", c.maxUploadSize))
			return employeeimport.Request{}, false
		}
		writeError(w, r, httpapi.CodeInvalidRequest, "expected a multipart form")
		return employeeimport.Request{}, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form, err := composables.UseForm(&dtos.ImportForm{}, r)
	if err != nil {
		writeError(w, r, httpapi.CodeInvalidRequest, err.Error())
		return employeeimport.Request{}, false
	}
	if errs, ok := form.Ok(); !ok {
		writeValidationError(w, r, errs)
		return employeeimport.Request{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, httpapi.CodeInvalidRequest, "file is required")
		return employeeimport.Request{}, false
	}
	defer func(file multipart.File) {
		if err := file.Close(); err != nil {
			composables.UseLogger(r.Context()).WithError(err).Warn("close upload")
		}
	}(file)

	sheet, err := spreadsheet.Read(file, header.Filename)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFile) || errors.Is(err, spreadsheet.ErrNoSheet) {
			writeError(w, r, httpapi.CodeUnsupportedFile, err.Error())
			return employeeimport.Request{}, false
		}
		writeError(w, r, httpapi.CodeInvalidRequest, "could not read the uploaded file")
		return employeeimport.Request{}, false
	}
	return employeeimport.Request{
		Profile:    form.Profile,
		Policy:     form.DuplicatePolicy,
		SourceName: header.Filename,
		Headers:    sheet.Headers,
		Rows:       sheet.Rows,
	}, true
}

func (c *EmployeeImportController) logURL(handle string) string {
	return c.basePath + "/logs/" + url.PathEscape(handle)
}

func (c *EmployeeImportController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, employeeimport.ErrForbidden):
		writeError(w, r, httpapi.CodeForbidden, "not allowed to import employees")
	case errors.Is(err, employeeimport.ErrTemplateUnavailable):
		writeError(w, r, httpapi.CodeTemplateUnavailable, err.Error())
	case employeeimport.IsDefinitional(err):
		writeError(w, r, httpapi.CodeInvalidRequest, err.Error())
	default:
		composables.UseLogger(r.Context()).WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error("employee import request failed")
		writeError(w, r, httpapi.CodeInternal, "internal error")
	}
}

// runStatus is 200 for every run that reached the rows; an empty upload is a
// client error even though it produces a result body.
func runStatus(result *importrun.Result) int {
	if result.Fatal != "" {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	var meta map[string]string
	if params, ok := composables.UseParams(r.Context()); ok && params.RequestID != "" {
		meta = map[string]string{"request_id": params.RequestID}
	}
	if err := httpapi.WriteError(w, httpapi.StatusCode(code), code, message, meta); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("write error response")
	}
}

func writeValidationError(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	parts := make([]string, 0, len(errs))
	for _, msg := range errs {
		parts = append(parts, msg)
	}
	meta := map[string]string{}
	for field, msg := range errs {
		meta[field] = msg
	}
	if params, ok := composables.UseParams(r.Context()); ok && params.RequestID != "" {
		meta["request_id"] = params.RequestID
	}
	sort.Strings(parts)
	message := strings.Join(parts, "; ")
	if err := httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidRequest, message, meta); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("write error response")
	}
}
