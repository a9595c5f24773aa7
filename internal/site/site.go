// Package site drives the static-site side of publishing: copying published
// notes into the generator's content folder, building, writing .htaccess and
// deploying with rsync.
package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/vpub/internal/config"
	"github.com/aidanlsb/vpub/internal/logger"
	"github.com/aidanlsb/vpub/internal/paths"
	"github.com/aidanlsb/vpub/internal/vault"
)

var (
	// ErrNoSiteDir is returned when a step needs site_dir and it is unset.
	ErrNoSiteDir = errors.New("no site_dir configured")
	// ErrNoDeployTarget is returned by Deploy when deploy.target is unset.
	ErrNoDeployTarget = errors.New("no deploy target configured")
	// ErrUnsafeContentDir is returned when the content folder would contain
	// or equal the vault, so clearing it would delete notes.
	ErrUnsafeContentDir = errors.New("content directory overlaps the vault")
)

// CopyResult lists the notes CopyPublished wrote.
type CopyResult struct {
	Copied []string `json:"copied"`
}

// CopyPublished clears contentRoot and writes every published note of v to
// the same vault-relative path beneath it. v must have been loaded from disk.
func CopyPublished(v *vault.Vault, contentRoot string, log *logger.Logger) (*CopyResult, error) {
	if log == nil {
		log = logger.Discard()
	}
	if contentRoot == "" {
		return nil, ErrNoSiteDir
	}
	if _, err := paths.WithinRoot(contentRoot, v.Root()); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsafeContentDir, contentRoot)
	}

	if err := os.RemoveAll(contentRoot); err != nil {
		return nil, fmt.Errorf("clear %s: %w", contentRoot, err)
	}

	result := &CopyResult{}
	for _, key := range v.Published() {
		n, ok := v.Note(key)
		if !ok {
			return result, fmt.Errorf("note %s has no contents loaded", key)
		}
		target := filepath.Join(contentRoot, paths.KeyToFile(key))
		if err := n.Save(target); err != nil {
			return result, fmt.Errorf("copy %s: %w", key, err)
		}
		log.Changed(paths.KeyToFile(key), "copied")
		result.Copied = append(result.Copied, key)
	}
	return result, nil
}

// Build runs the configured build command in the site directory and then
// writes .htaccess into the public directory.
func Build(ctx context.Context, cfg *config.Config, p config.Paths, runner Runner, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	if p.Site == "" {
		return ErrNoSiteDir
	}

	argv := cfg.BuildCommand()
	log.CommandStarted(p.Site, argv)
	if err := runner.Run(ctx, p.Site, argv); err != nil {
		return err
	}

	path, err := WriteHtaccess(p.Public, cfg.Htaccess)
	if err != nil {
		return err
	}
	log.Changed(path, "wrote")
	return nil
}

// DeployCommand returns the rsync invocation Deploy runs.
func DeployCommand(cfg *config.Config, p config.Paths) ([]string, error) {
	if cfg.Deploy.Target == "" {
		return nil, ErrNoDeployTarget
	}
	if p.Public == "" {
		return nil, ErrNoSiteDir
	}

	var argv []string
	if cfg.Deploy.Sudo {
		argv = append(argv, "sudo")
	}
	argv = append(argv, "rsync")
	argv = append(argv, cfg.RsyncFlags()...)
	// The trailing slash syncs the folder's contents rather than the folder.
	argv = append(argv, filepath.Clean(p.Public)+string(filepath.Separator), cfg.Deploy.Target)
	return argv, nil
}

// Deploy syncs the public directory to the deploy target.
func Deploy(ctx context.Context, cfg *config.Config, p config.Paths, runner Runner, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	argv, err := DeployCommand(cfg, p)
	if err != nil {
		return err
	}
	log.CommandStarted(p.Public, argv)
	return runner.Run(ctx, p.Public, argv)
}
