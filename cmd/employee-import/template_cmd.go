package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/spreadsheet"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
)

type templateSource interface {
	Template(ctx context.Context, profile string) (employeeimport.Template, error)
}

func newTemplateCmd() *cobra.Command {
	var profile, out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the xlsx upload template of a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()
			if err := writeTemplateFile(env.context(cmd.Context()), env.service, profile, out); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Import profile (required)")
	cmd.Flags().StringVar(&out, "out", "", "Output .xlsx path (required)")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func writeTemplateFile(ctx context.Context, src templateSource, profile, path string) error {
	if strings.TrimSpace(path) == "" {
		return withCode(exitUsage, fmt.Errorf("--out is required"))
	}
	tmpl, err := src.Template(ctx, profile)
	if err != nil {
		if errors.Is(err, employeeimport.ErrUnknownProfile) {
			return withCode(exitUsage, err)
		}
		return withCode(exitValidation, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return withCode(exitDB, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err))
	}
	f, err := os.Create(path)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("create %s: %w", path, err))
	}
	if err := spreadsheet.WriteTemplate(f, spreadsheet.TemplateLayout{
		SheetName: "Employees",
		Headers:   tmpl.Headers,
		Examples:  tmpl.Examples,
		Computed:  tmpl.ComputedMask(),
	}); err != nil {
		_ = f.Close()
		return withCode(exitDB, err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitDB, fmt.Errorf("close %s: %w", path, err))
	}
	return nil
}
