package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/vpub/internal/closure"
	"github.com/aidanlsb/vpub/internal/site"
	"github.com/aidanlsb/vpub/internal/testutil"
)

// resetFlags restores every flag in the command tree to its default so
// consecutive in-process runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command in-process and returns what it wrote.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = prevOut, prevErr
	})

	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	err := ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type jsonResponse struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

func decodeResponse(t *testing.T, out string) jsonResponse {
	t.Helper()
	var resp jsonResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return resp
}

func vaultArgs(t *testing.T, v *testutil.TestVault, args ...string) []string {
	t.Helper()
	base := []string{"--config", writeConfig(t, ""), "--vault-path", v.Path}
	return append(base, args...)
}

func TestPublishNote(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("logs/Team Retro.md", "title: Retro", "Notes\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "publish", "Team Retro")...)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(out, "published logs/Team Retro.md") {
		t.Fatalf("unexpected output: %q", out)
	}
	v.AssertPublished("logs/Team Retro.md")
	v.AssertFileContains("logs/Team Retro.md", "title: Retro")

	out, _, err = runCLI(t, vaultArgs(t, v, "publish", "logs/Team Retro.md")...)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if !strings.Contains(out, "nothing to do") {
		t.Fatalf("expected no-op message, got %q", out)
	}

	if _, _, err := runCLI(t, vaultArgs(t, v, "unpublish", "logs/Team Retro")...); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	v.AssertFileContains("logs/Team Retro.md", `publish: "false"`)
}

func TestPublishFolderNeedsConfirmation(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("logs/A.md", "", "a\n").
		WithNote("logs/B.md", "", "b\n").
		WithNote("Home.md", "", "home\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "publish", "logs")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	resp := decodeResponse(t, out)
	if resp.OK || resp.Error == nil || resp.Error.Code != ErrConfirmationRequired {
		t.Fatalf("unexpected response: %s", out)
	}
	v.AssertNotPublished("logs/A.md")

	out, _, err = runCLI(t, vaultArgs(t, v, "--json", "publish", "logs", "--yes")...)
	if err != nil {
		t.Fatalf("publish --yes: %v", err)
	}
	var result publishResult
	if err := json.Unmarshal(decodeResponse(t, out).Data, &result); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"logs/A.md", "logs/B.md"}, result.Changed); diff != "" {
		t.Fatalf("changed (-want +got):\n%s", diff)
	}
	v.AssertPublished("logs/A.md")
	v.AssertPublished("logs/B.md")
	v.AssertNotPublished("Home.md")
}

func TestPublishOutsideVault(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", "", "x\n").Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "publish", "../elsewhere.md")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if resp := decodeResponse(t, out); resp.Error == nil || resp.Error.Code != ErrFileOutsideVault {
		t.Fatalf("unexpected response: %s", out)
	}
}

func TestListPublished(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "x\n").
		WithNote("Draft.md", "", "x\n").
		WithNote("Bool.md", "publish: true", "x\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "list", "published")...)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	resp := decodeResponse(t, out)
	var data struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Home.md"}, data.Files); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}

	out, _, err = runCLI(t, vaultArgs(t, v, "list", "files")...)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if out != "Bool.md\nDraft.md\nHome.md\n" {
		t.Fatalf("list files output = %q", out)
	}
}

func TestListPublishedReportsParseFailures(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "x\n").
		WithFile("Broken.md", "---\npublish: [oops\n---\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "list", "published")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected non-zero exit, got %v", err)
	}
	resp := decodeResponse(t, out)
	if resp.OK || resp.Error.Code != ErrFrontmatterInvalid {
		t.Fatalf("unexpected response: %s", out)
	}
	if !strings.Contains(string(resp.Data), "Home.md") {
		t.Fatalf("partial results missing: %s", resp.Data)
	}
}

func TestAddIDsIsIdempotent(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", "id: home", "x\n").
		WithNote("Draft.md", "", "x\n").
		WithNote("Done.md", "id: d\npermalink: d", "x\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "add-ids")...)
	if err != nil {
		t.Fatalf("add-ids: %v", err)
	}
	if resp := decodeResponse(t, out); resp.Meta == nil || resp.Meta.Count != 2 {
		t.Fatalf("expected 2 changed notes: %s", out)
	}
	v.AssertFileContains("Home.md", "permalink: home")

	out, _, err = runCLI(t, vaultArgs(t, v, "--json", "add-ids")...)
	if err != nil {
		t.Fatalf("second add-ids: %v", err)
	}
	if resp := decodeResponse(t, out); resp.Meta.Count != 0 {
		t.Fatalf("second run changed notes: %s", out)
	}

	if _, _, err := runCLI(t, vaultArgs(t, v, "validate", "files")...); err != nil {
		t.Fatalf("validate files after add-ids: %v", err)
	}
}

func TestExtractURLs(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("references/Paper.md", "page-title: A Paper\nurl: https://example.com/paper", "Summary\n").
		WithNote("references/Bare.md", "page-title: Bare", "nothing\n").
		WithNote("Home.md", "url: https://example.com", "not a reference\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "extract-urls")...)
	if err != nil {
		t.Fatalf("extract-urls: %v", err)
	}
	resp := decodeResponse(t, out)
	want := []Warning{{Code: WarnURLMissing, Message: "no url in frontmatter", File: "references/Bare.md"}}
	if diff := cmp.Diff(want, resp.Warnings); diff != "" {
		t.Fatalf("warnings (-want +got):\n%s", diff)
	}
	v.AssertFileContains("references/Paper.md", "#vpub/url_extraction [A Paper](https://example.com/paper)\nSummary\n")
	v.AssertFileNotContains("Home.md", "#vpub/url_extraction")

	if _, _, err := runCLI(t, vaultArgs(t, v, "extract-urls")...); err != nil {
		t.Fatalf("second extract-urls: %v", err)
	}
	if got := strings.Count(v.ReadFile("references/Paper.md"), "#vpub/url_extraction"); got != 1 {
		t.Fatalf("marker inserted %d times", got)
	}
}

func TestValidateFilesReportsEveryFailure(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("references/Paper.md", "page-title: P", "x\n").
		WithNote("Home.md", "id: a\npermalink: b", "x\n").
		WithNote("Good.md", "id: g\npermalink: g", "x\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "validate", "files")...)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"references/Paper.md", "Home.md", "id and permalink do not match"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Good.md") {
		t.Errorf("valid note reported:\n%s", out)
	}
}

func TestSyncCopiesPublishedNotes(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "[[Draft]]\n").
		WithNote("logs/Retro.md", `publish: "true"`, "retro\n").
		WithNote("Draft.md", "", "draft\n").
		Build()
	content := filepath.Join(t.TempDir(), "content")

	_, _, err := runCLI(t, vaultArgs(t, v, "--content-path", content, "sync")...)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	out := testutil.At(t, content)
	out.AssertFileExists("Home.md")
	out.AssertFileExists("logs/Retro.md")
	out.AssertFileNotExists("Draft.md")
}

func TestSyncRefusesVaultInsideContent(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", `publish: "true"`, "x\n").Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "--content-path", filepath.Dir(v.Path), "sync")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if resp := decodeResponse(t, out); resp.Error.Code != ErrConfigInvalid {
		t.Fatalf("unexpected response: %s", out)
	}
	v.AssertFileExists("Home.md")
}

func TestCheckLinksText(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "See [[Draft]] and [[About]].\n").
		WithNote("About.md", `publish: "true"`, "About\n").
		WithNote("Draft.md", "", "Links to [[Ghost]].\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "check-links")...)
	if err != nil {
		t.Fatalf("check-links: %v", err)
	}
	want := "File \"Ghost\" does not exist\n" +
		"\n" +
		"\"Home\" links to these, but they are not published\n" +
		"- Draft\n" +
		"\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestCheckLinksListsUnparseableNotes(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "See [[Broken]] and [[paper.pdf]].\n").
		WithFile("Broken.md", "---\nkey: [unclosed\n---\nbody\n").
		WithFile("paper.pdf", "%PDF").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "check-links")...)
	if err == nil {
		t.Fatal("expected a non-zero exit for the parse failure")
	}
	want := "\"Home\" links to these, but they are not published\n" +
		"- Broken\n" +
		"\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestCheckLinksClean(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "[[About]]\n").
		WithNote("About.md", `publish: "true"`, "x\n").
		Build()

	out, _, err := runCLI(t, vaultArgs(t, v, "check-links")...)
	if err != nil {
		t.Fatalf("check-links: %v", err)
	}
	if !strings.Contains(out, "every published note links only to published notes") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCheckLinksCachedUsesSnapshot(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "[[Draft]]\n").
		WithNote("Draft.md", "", "[[Notes/Deep]]\n").
		WithNote("Notes/Deep.md", "", "[[Home]]\n").
		Build()
	cfgPath := writeConfig(t, "snapshot_path = "+quoteTOML(filepath.Join(t.TempDir(), "snap.db"))+"\n")
	args := func(extra ...string) []string {
		return append([]string{"--config", cfgPath, "--vault-path", v.Path, "--json"}, extra...)
	}

	out, _, err := runCLI(t, args("check-links", "--cached")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected missing snapshot error, got %v", err)
	}
	if resp := decodeResponse(t, out); resp.Error.Code != ErrSnapshotMissing {
		t.Fatalf("unexpected response: %s", out)
	}

	if _, _, err := runCLI(t, args("snapshot")...); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	live, _, err := runCLI(t, args("check-links")...)
	if err != nil {
		t.Fatalf("check-links: %v", err)
	}
	cached, _, err := runCLI(t, args("check-links", "--cached")...)
	if err != nil {
		t.Fatalf("check-links --cached: %v", err)
	}

	var liveReport, cachedReport closure.Report
	if err := json.Unmarshal(decodeResponse(t, live).Data, &liveReport); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(decodeResponse(t, cached).Data, &cachedReport); err != nil {
		t.Fatal(err)
	}
	want := []closure.Entry{{Root: "Home", Missing: []string{"Draft", "Notes/Deep"}}}
	if diff := cmp.Diff(want, liveReport.Entries); diff != "" {
		t.Fatalf("live entries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(liveReport, cachedReport); diff != "" {
		t.Fatalf("cached report differs (-live +cached):\n%s", diff)
	}
}

type recordedRun struct {
	Dir  string
	Argv []string
}

type recordingRunner struct {
	runs []recordedRun
	err  error
}

func (r *recordingRunner) Run(_ context.Context, dir string, argv []string) error {
	r.runs = append(r.runs, recordedRun{Dir: dir, Argv: argv})
	return r.err
}

func useRunner(t *testing.T, r site.Runner) {
	t.Helper()
	prev := newRunner
	newRunner = func() site.Runner { return r }
	t.Cleanup(func() { newRunner = prev })
}

func TestDeployWithBuild(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", "", "x\n").Build()
	siteDir := t.TempDir()
	cfgPath := writeConfig(t, "site_dir = "+quoteTOML(siteDir)+`

[build]
concurrency = 2

[deploy]
target = "web:/var/www/html/"
sudo = true
`)
	runner := &recordingRunner{}
	useRunner(t, runner)

	if _, _, err := runCLI(t, "--config", cfgPath, "--vault-path", v.Path, "deploy", "--build"); err != nil {
		t.Fatalf("deploy --build: %v", err)
	}

	public := filepath.Join(siteDir, "public")
	want := []recordedRun{
		{Dir: siteDir, Argv: []string{"npx", "quartz", "build", "--concurrency", "2"}},
		{Dir: public, Argv: []string{"sudo", "rsync", "-avz", "--delete", public + string(filepath.Separator), "web:/var/www/html/"}},
	}
	if diff := cmp.Diff(want, runner.runs); diff != "" {
		t.Fatalf("runs (-want +got):\n%s", diff)
	}
	testutil.At(t, public).AssertFileContains(".htaccess", "RewriteEngine On")
}

func TestBuildFailureIsReported(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", "", "x\n").Build()
	cfgPath := writeConfig(t, "site_dir = "+quoteTOML(t.TempDir())+"\n")
	useRunner(t, &recordingRunner{err: &site.CommandError{Argv: []string{"npx"}, Err: errors.New("exit status 1")}})

	out, _, err := runCLI(t, "--config", cfgPath, "--vault-path", v.Path, "--json", "build")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if resp := decodeResponse(t, out); resp.Error.Code != ErrExternalCommandFailed {
		t.Fatalf("unexpected response: %s", out)
	}
}

func TestDeployWithoutSiteDir(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", "", "x\n").Build()
	useRunner(t, &recordingRunner{})

	out, _, err := runCLI(t, vaultArgs(t, v, "--json", "deploy")...)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if resp := decodeResponse(t, out); resp.Error.Code != ErrSiteNotConfigured {
		t.Fatalf("unexpected response: %s", out)
	}
}

func TestVaultResolutionErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{
			name: "no vault configured",
			args: []string{"--json", "list", "files"},
			code: ErrVaultNotSpecified,
		},
		{
			name: "vault path missing",
			args: []string{"--json", "--vault-path", filepath.Join(os.TempDir(), "vpub-no-such-vault"), "list", "files"},
			code: ErrVaultNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", writeConfig(t, "")}, tt.args...)
			out, _, err := runCLI(t, args...)
			if !errors.Is(err, errReported) {
				t.Fatalf("expected reported error, got %v", err)
			}
			if resp := decodeResponse(t, out); resp.Error == nil || resp.Error.Code != tt.code {
				t.Fatalf("unexpected response: %s", out)
			}
		})
	}
}

func TestVaultPathFlagAcceptsUnderscore(t *testing.T) {
	v := testutil.NewTestVault(t).WithNote("Home.md", "", "x\n").Build()

	out, _, err := runCLI(t, "--config", writeConfig(t, ""), "--vault_path", v.Path, "list", "files")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if out != "Home.md\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vpub", "config.toml")

	out, _, err := runCLI(t, "--config", path, "--json", "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, `"created": true`) {
		t.Fatalf("unexpected output: %s", out)
	}

	vaultDir := t.TempDir()
	out, _, err = runCLI(t, "--config", path, "--vault-path", vaultDir, "--json", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var data struct {
		ConfigPath string `json:"config_path"`
		Exists     bool   `json:"exists"`
		Paths      struct {
			Vault    string `json:"vault"`
			Snapshot string `json:"snapshot"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(decodeResponse(t, out).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.ConfigPath != path || !data.Exists {
		t.Fatalf("unexpected config info: %+v", data)
	}
	if data.Paths.Vault != vaultDir || data.Paths.Snapshot != filepath.Join(vaultDir, ".vpub", "snapshot.db") {
		t.Fatalf("unexpected paths: %+v", data.Paths)
	}

	out, _, err = runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show text: %v", err)
	}
	if !strings.Contains(out, "[deploy]") || !strings.Contains(out, "resolved paths") {
		t.Fatalf("unexpected text output:\n%s", out)
	}
}

func quoteTOML(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestWatchRunsInitialCheckAndSnapshot(t *testing.T) {
	v := testutil.NewTestVault(t).
		WithNote("Home.md", `publish: "true"`, "[[Draft]]\n").
		WithNote("Draft.md", "", "x\n").
		Build()
	snap := filepath.Join(t.TempDir(), "snap.db")
	cfgPath := writeConfig(t, "snapshot_path = "+quoteTOML(snap)+"\n")

	// A cancelled context stops the watch right after the first run.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _, err := runCLIContext(t, ctx, "--config", cfgPath, "--vault-path", v.Path, "watch", "--snapshot")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "\"Home\" links to these, but they are not published\n- Draft\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	cached, _, err := runCLI(t, "--config", cfgPath, "--vault-path", v.Path, "--json", "check-links", "--cached")
	if err != nil {
		t.Fatalf("check-links --cached: %v", err)
	}
	if resp := decodeResponse(t, cached); !resp.OK || resp.Meta.Count != 1 {
		t.Fatalf("unexpected cached report: %s", cached)
	}
}
