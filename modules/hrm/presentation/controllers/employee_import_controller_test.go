package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/columnmap"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/runlog"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/spreadsheet"
	"github.com/iota-uz/hrm-import/modules/hrm/presentation/controllers"
	"github.com/iota-uz/hrm-import/modules/hrm/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/httpapi"
)

const mappingPath = "../../../../config/hrm/employee_import_columns.yaml"

type fakeStore struct {
	mu       sync.Mutex
	existing map[string]struct{}
	plans    []employee.WritePlan
}

func (s *fakeStore) ExistingEmployeeIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := s.existing[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) CommitRow(_ context.Context, plan employee.WritePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, plan)
	return nil
}

type fakeReferences struct{}

func (fakeReferences) ReferenceData(context.Context) (importmapping.ReferenceData, error) {
	return importmapping.ReferenceData{Departments: []string{"Finance", "HR"}}, nil
}

type suite struct {
	router http.Handler
	store  *fakeStore
}

func setup(t *testing.T, maxUpload int64, wrap ...mux.MiddlewareFunc) *suite {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := application.New(&application.ApplicationOptions{Logger: logger})

	store := &fakeStore{existing: map[string]struct{}{"EMP-9": {}}}
	app.RegisterServices(employeeimport.NewService(
		store,
		fakeReferences{},
		columnmap.NewFileLoader(mappingPath),
		runlog.NewStore(t.TempDir()),
		app.EventPublisher(),
	))

	router := mux.NewRouter()
	router.Use(wrap...)
	controllers.NewEmployeeImportController(app, controllers.EmployeeImportControllerOptions{MaxUploadSize: maxUpload}).Register(router)
	return &suite{router: router, store: store}
}

func upload(t *testing.T, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *suite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const sampleCSV = "Employee ID,Full Name,Date of Birth,Department\n" +
	"EMP-1,Ana,1990-01-31,HR\n" +
	"EMP-2,Budi,31/02/1990,Finance\n" +
	"EMP-9,Citra,1988-05-05,HR\n"

func TestEmployeeImportController_DryRun(t *testing.T) {
	s := setup(t, 0)
	rec := s.do(upload(t, "/hrm/employees/import/dry-run",
		map[string]string{"profile": "indonesia_active"}, "staff.csv", []byte(sampleCSV)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dtos.DryRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 3, resp.Summary.Rows)
	require.Equal(t, 3, resp.Summary.Processed)
	require.Equal(t, 1, resp.Summary.Warnings)
	require.Equal(t, 3, resp.Warnings[0].Row)
	require.NotEmpty(t, resp.HeaderValidation.Missing)
	require.True(t, strings.HasPrefix(resp.LogURL, "/hrm/employees/import/logs/employee-import-"))
	require.Empty(t, s.store.plans)

	logRec := s.do(httptest.NewRequest(http.MethodGet, resp.LogCSVURL, nil))
	require.Equal(t, http.StatusOK, logRec.Code)
	require.Equal(t, runlog.ContentTypeCSV, logRec.Header().Get("Content-Type"))
	require.Contains(t, logRec.Body.String(), "Section,Severity,Row,Column,Message")
}

func TestEmployeeImportController_CommitXLSX(t *testing.T) {
	s := setup(t, 0)

	f := excelize.NewFile()
	for cell, v := range map[string]any{
		"A1": "Employee ID", "B1": "Full Name", "C1": "Department",
		"A2": "EMP-1", "B2": "Ana", "C2": "HR",
		"A3": "EMP-9", "B3": "Citra", "C3": "Finance",
	} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rec := s.do(upload(t, "/hrm/employees/import/commit",
		map[string]string{"profile": "indonesia_active", "duplicatePolicy": "error"}, "staff.xlsx", buf.Bytes()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dtos.CommitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, dtos.CommitSummary{Rows: 2, ProcessedRows: 1, Errors: 1, Warnings: 0}, resp.Summary)
	require.Contains(t, resp.Errors[0].Message, "EMP-9")
	require.Len(t, s.store.plans, 1)
	require.Equal(t, "EMP-1", s.store.plans[0].EmployeeID)
}

func TestEmployeeImportController_EmptyFile(t *testing.T) {
	s := setup(t, 0)
	for _, path := range []string{"/hrm/employees/import/dry-run", "/hrm/employees/import/commit"} {
		rec := s.do(upload(t, path, map[string]string{"profile": "expat_active"}, "empty.csv", []byte("Employee ID,Full Name\n")))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, false, body["success"])
		require.Equal(t, float64(0), body["summary"].(map[string]any)["rows"])
		require.Contains(t, rec.Body.String(), "uploaded file is empty")
		require.NotContains(t, rec.Body.String(), "logUrl")
	}
}

func TestEmployeeImportController_RequestErrors(t *testing.T) {
	s := setup(t, 0)

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"missing profile", upload(t, "/hrm/employees/import/dry-run", nil, "a.csv", []byte(sampleCSV)), http.StatusBadRequest, httpapi.CodeInvalidRequest},
		{"unknown profile", upload(t, "/hrm/employees/import/dry-run", map[string]string{"profile": "martian"}, "a.csv", []byte(sampleCSV)), http.StatusBadRequest, httpapi.CodeInvalidRequest},
		{"bad policy", upload(t, "/hrm/employees/import/commit", map[string]string{"profile": "expat_active", "duplicatePolicy": "merge"}, "a.csv", []byte(sampleCSV)), http.StatusBadRequest, httpapi.CodeInvalidRequest},
		{"missing file", upload(t, "/hrm/employees/import/dry-run", map[string]string{"profile": "expat_active"}, "", nil), http.StatusBadRequest, httpapi.CodeInvalidRequest},
		{"binary file", upload(t, "/hrm/employees/import/dry-run", map[string]string{"profile": "expat_active"}, "a.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")), http.StatusBadRequest, httpapi.CodeUnsupportedFile},
		{"no key column", upload(t, "/hrm/employees/import/dry-run", map[string]string{"profile": "expat_active"}, "a.csv", []byte("Full Name\nAna\n")), http.StatusBadRequest, httpapi.CodeInvalidRequest},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/hrm/employees/import/dry-run", strings.NewReader("x")), http.StatusBadRequest, httpapi.CodeInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.req)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var env httpapi.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.Equal(t, tc.code, env.Code)
		})
	}
}

func TestEmployeeImportController_UploadTooLarge(t *testing.T) {
	s := setup(t, 512)
	big := sampleCSV + strings.Repeat("EMP-3,Dewi,1990-01-01,HR\n", 200)
	rec := s.do(upload(t, "/hrm/employees/import/dry-run", map[string]string{"profile": "expat_active"}, "big.csv", []byte(big)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestEmployeeImportController_Forbidden(t *testing.T) {
	withParams := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := composables.WithParams(r.Context(), &composables.Params{RequestID: "req-1"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	s := setup(t, 0, withParams)
	rec := s.do(upload(t, "/hrm/employees/import/commit", map[string]string{"profile": "expat_active"}, "a.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "req-1", env.Meta["request_id"])
	require.Empty(t, s.store.plans)
}

func TestEmployeeImportController_Logs(t *testing.T) {
	s := setup(t, 0)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/hrm/employees/import/logs/employee-import-20260101T000000Z-deadbeef.json", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/hrm/employees/import/logs/secrets.json", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeImportController_Template(t *testing.T) {
	s := setup(t, 0)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/hrm/employees/import/template?profile=expat_inactive", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, spreadsheet.MimeXLSX, rec.Header().Get("Content-Type"))

	sheet, err := spreadsheet.Read(bytes.NewReader(rec.Body.Bytes()), "template.xlsx")
	require.NoError(t, err)
	require.Equal(t, "Employee ID", sheet.Headers[0])
	require.Contains(t, sheet.Headers, "Department (Dropdown: Finance, HR)")
	require.Contains(t, sheet.Headers, "Passport Number")
	require.NotContains(t, sheet.Headers, "NIK")
	require.Len(t, sheet.Rows, 1)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/hrm/employees/import/template", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(httptest.NewRequest(http.MethodGet, "/hrm/employees/import/template?profile=nope", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
