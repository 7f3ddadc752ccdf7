package main

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/runlog"
	"github.com/iota-uz/hrm-import/pkg/configuration"
)

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <handle>",
		Short: "Print a stored run log (JSON or CSV)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			defer conf.Unload()
			return printLog(runlog.NewStore(conf.Import.LogsDir), args[0], cmd.OutOrStdout())
		},
	}
}

func printLog(store *runlog.Store, handle string, out io.Writer) error {
	rc, _, err := store.Open(handle)
	if err != nil {
		if errors.Is(err, runlog.ErrInvalidHandle) || errors.Is(err, runlog.ErrNotFound) {
			return withCode(exitUsage, fmt.Errorf("%s: %w", handle, err))
		}
		return withCode(exitDB, err)
	}
	defer func() { _ = rc.Close() }()
	if _, err := io.Copy(out, rc); err != nil {
		return withCode(exitDB, fmt.Errorf("print %s: %w", handle, err))
	}
	return nil
}
