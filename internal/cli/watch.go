package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/closure"
	"github.com/aidanlsb/vpub/internal/index"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/watcher"
)

var watchSnapshot bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run check-links whenever notes change",
	Long: `Runs check-links once, then again every time notes in the vault are
created, edited, moved or removed. With --snapshot the snapshot used by
'check-links --cached' is refreshed on every run as well.

In JSON mode one response object is written per run. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := runWatchCheck(nil); err != nil {
			return err
		}

		w, err := watcher.New(watcher.Config{
			Root: dirs.Vault,
			Log:  logs,
			OnChange: func(_ context.Context, changed []string) error {
				return runWatchCheck(changed)
			},
		})
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if !isJSONOutput() {
			fmt.Fprintln(stderr, ui.Hint("watching "+dirs.Vault+" (Ctrl-C to stop)"))
		}

		err = w.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil && !errors.Is(err, errReported) {
			return handleError(ErrInternal, err, "")
		}
		return err
	},
}

// runWatchCheck reloads the vault and reports the closure. Parse failures
// are shown but do not stop the watch.
func runWatchCheck(changed []string) error {
	if len(changed) > 0 && !isJSONOutput() {
		outln(ui.Header("changed: ") + strings.Join(changed, ", "))
	}

	v, failures, err := loadVault()
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	report := closure.Check(v, v.Published())

	if watchSnapshot {
		db, err := index.Open(dirs.Snapshot)
		if err != nil {
			return handleError(ErrSnapshotError, err, "")
		}
		err = db.Save(v)
		db.Close()
		if err != nil {
			return handleError(ErrSnapshotError, err, "")
		}
		logs.Changed(dirs.Snapshot, "saved snapshot")
	}

	if isJSONOutput() {
		var warnings []Warning
		for _, f := range failures {
			warnings = append(warnings, Warning{Code: WarnFrontmatterInvalid, Message: f.Error, File: f.File})
		}
		outputSuccessWithWarnings(report, warnings, &Meta{Count: report.MissingCount()})
		return nil
	}
	if err := printReport(report); err != nil {
		return handleError(ErrInternal, err, "")
	}
	return nil
}

func init() {
	watchCmd.Flags().BoolVar(&watchSnapshot, "snapshot", false, "Refresh the snapshot on every run")
	rootCmd.AddCommand(watchCmd)
}
