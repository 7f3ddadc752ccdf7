package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/spreadsheet"
	"github.com/iota-uz/hrm-import/modules/hrm/presentation/controllers/dtos"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
)

type importOptions struct {
	profile string
	policy  string
	file    string
	apply   bool
	logsDir string
}

type importRunner interface {
	DryRun(ctx context.Context, req employeeimport.Request) (*importrun.Result, error)
	Commit(ctx context.Context, req employeeimport.Request) (*importrun.Result, error)
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate an employee spreadsheet and optionally commit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()
			opts.logsDir = env.conf.Import.LogsDir
			return runImport(env.context(cmd.Context()), env.service, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "", "Import profile: indonesia_active|indonesia_inactive|expat_active|expat_inactive (required)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Duplicate policy: update|skip|error (default from IMPORT_DEFAULT_POLICY)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the .xlsx or .csv upload (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Commit cleared rows (default is dry-run)")

	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, runner importRunner, opts importOptions, out io.Writer) error {
	if strings.TrimSpace(opts.file) == "" {
		return withCode(exitUsage, fmt.Errorf("--file is required"))
	}
	f, err := os.Open(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("open %s: %w", opts.file, err))
	}
	defer func() { _ = f.Close() }()

	sheet, err := spreadsheet.Read(f, filepath.Base(opts.file))
	if err != nil {
		return withCode(exitValidation, err)
	}
	req := employeeimport.Request{
		Profile:    opts.profile,
		Policy:     opts.policy,
		SourceName: filepath.Base(opts.file),
		Headers:    sheet.Headers,
		Rows:       sheet.Rows,
	}

	run := runner.DryRun
	if opts.apply {
		run = runner.Commit
	}
	result, err := run(ctx, req)
	if err != nil && !errors.Is(err, employeeimport.ErrEmptySheet) {
		if employeeimport.IsDefinitional(err) || errors.Is(err, employeeimport.ErrForbidden) {
			return withCode(exitUsage, err)
		}
		return withCode(exitDB, err)
	}

	logPath := func(h string) string { return filepath.Join(opts.logsDir, h) }
	var payload any = dtos.NewDryRunResponse(result, logPath)
	if opts.apply {
		payload = dtos.NewCommitResponse(result, logPath)
	}
	if err := writeJSON(out, payload); err != nil {
		return err
	}
	if !result.Success() {
		if result.Fatal != "" {
			return withCode(exitValidation, errors.New(result.Fatal))
		}
		return withCode(exitValidation, fmt.Errorf("%d row(s) with errors", len(result.RowErrors())))
	}
	return nil
}
