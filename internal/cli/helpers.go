package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/aidanlsb/vpub/internal/paths"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

// loadVault parses the whole vault, showing a spinner on interactive
// terminals. Per-file failures are printed in text mode and returned.
func loadVault() (*vault.Vault, []fileFailure, error) {
	var spinner *ui.Spinner
	if !isJSONOutput() {
		spinner = ui.NewSpinner("Loading vault")
		spinner.Start()
	}
	v, res, err := vault.Load(dirs.Vault, logs)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return nil, nil, err
	}
	return v, reportFailures(res.Failures), nil
}

// walkNotes walks the notes under dir, calling fn for every note that
// parsed. Parse failures are reported and collected.
func walkNotes(dir string, fn func(r vault.WalkResult) error) ([]fileFailure, error) {
	var failed []vault.Failure
	err := vault.WalkNotes(dirs.Vault, dir, func(r vault.WalkResult) error {
		if r.Error != nil {
			logs.FileError(r.RelativePath, r.Error)
			failed = append(failed, vault.Failure{Path: r.Path, RelativePath: r.RelativePath, Err: r.Error})
			return nil
		}
		return fn(r)
	})
	return reportFailures(failed), err
}

func reportFailures(failed []vault.Failure) []fileFailure {
	var out []fileFailure
	for _, f := range failed {
		if !isJSONOutput() {
			fmt.Fprintln(stderr, ui.Errorf("%s: %v", f.RelativePath, f.Err))
		}
		out = append(out, fileFailure{File: f.RelativePath, Error: f.Err.Error()})
	}
	return out
}

// relPath returns p relative to the vault for display.
func relPath(p string) string {
	rel, err := filepath.Rel(dirs.Vault, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// resolveTarget resolves a CLI path or note name inside the vault.
func resolveTarget(ref string) (string, error) {
	target, err := vault.ResolveNoteRef(dirs.Vault, ref)
	switch {
	case err == nil:
		return target, nil
	case errors.Is(err, paths.ErrPathOutsideVault):
		return "", handleError(ErrFileOutsideVault, err, "")
	case errors.Is(err, vault.ErrPathNotFound):
		return "", handleError(ErrFileNotFound, err, "Paths are relative to the vault root: "+dirs.Vault)
	default:
		return "", handleError(ErrInternal, err, "")
	}
}

// isTerminalWriter reports whether w is an interactive terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func outf(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
}

func outln(args ...interface{}) {
	fmt.Fprintln(stdout, args...)
}
