package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/answerlayer/internal/config"
	"github.com/kalambet/answerlayer/internal/watermark"
)

const (
	testIndex = `<!doctype html>
<html><head>
<meta name="answerlayer-fingerprint" content="hash:aaaaaaaaaa;date:2024-01-01">
<script type="application/ld+json">
{"@type": "Article", "datePublished": "2024-01-01", "dateModified": "2024-01-01", "name": "x"}
</script>
</head><body>
<!-- answerlayer:theanswerlayer.com:invisible-id:aaaaaaaaaa -->
<p>Verified layer ref: <code>aaaaaaaaaa</code></p>
<p><time datetime="2024-01-01">January 01, 2024</time></p>
</body></html>
`
	testSitemap = `<urlset><url><lastmod>2024-06-01</lastmod></url></urlset>`
)

// isolate points config and data directories at temp dirs and returns a
// fresh site root.
func isolate(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, k := range config.ShowAll(config.Config{}) {
		t.Setenv(k.EnvVar, "")
	}

	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	noColor, flagDate, flagRoot, flagNoHistory = true, "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// TestRootCommandUpdates runs the default command and checks the two status lines.
func TestRootCommandUpdates(t *testing.T) {
	root := isolate(t, map[string]string{"index.html": testIndex, "sitemap.xml": testSitemap})

	out, err := execute(t, "--root", root, "--date", "2025-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fp := watermark.Fingerprint(testIndex, "2025-03-05", "theanswerlayer.com")
	wantScript := filepath.Join(root, "DAILY_VIDEO_SCRIPTS", "DAILY_SCRIPT_2025-03-05.txt")
	want := "Generated video script: " + wantScript + "\n" +
		"Updated date to 2025-03-05 and hash to " + fp + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	data, err := os.ReadFile(wantScript)
	if err != nil {
		t.Fatalf("reading script: %v", err)
	}
	if !strings.Contains(string(data), "March 5th, 2025") || !strings.Contains(string(data), fp) {
		t.Error("script missing spoken date or fingerprint")
	}
}

// TestRootCommandMissingIndex verifies a missing page is a fatal error.
func TestRootCommandMissingIndex(t *testing.T) {
	root := isolate(t, map[string]string{"sitemap.xml": testSitemap})

	out, err := execute(t, "--root", root, "--date", "2025-03-05", "--no-history")
	if err == nil {
		t.Fatal("expected error for missing index.html")
	}
	if !strings.Contains(err.Error(), "index.html") {
		t.Errorf("error = %q, want it to name index.html", err)
	}
	if out != "" {
		t.Errorf("status lines printed on failure: %q", out)
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	isolate(t, nil)
	if _, err := execute(t, "extra"); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestInvalidDateFlag(t *testing.T) {
	root := isolate(t, map[string]string{"index.html": testIndex, "sitemap.xml": testSitemap})

	_, err := execute(t, "--root", root, "--date", "05/03/2025", "--no-history")
	if err == nil {
		t.Fatal("expected error for malformed --date")
	}
	if !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("error = %q, want format hint", err)
	}
	if got, _ := os.ReadFile(filepath.Join(root, "index.html")); string(got) != testIndex {
		t.Error("index.html modified despite invalid date")
	}
}

// TestHistoryAfterUpdate verifies an update is listed by the history command.
func TestHistoryAfterUpdate(t *testing.T) {
	root := isolate(t, map[string]string{"index.html": testIndex, "sitemap.xml": testSitemap})

	if _, err := execute(t, "--root", root, "--date", "2025-03-05"); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, err := execute(t, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	fp := watermark.Fingerprint(testIndex, "2025-03-05", "theanswerlayer.com")
	if !strings.Contains(out, "2025-03-05") || !strings.Contains(out, fp) || !strings.Contains(out, "completed") {
		t.Errorf("history output missing run: %q", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t, nil)

	out, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("output = %q", out)
	}
}

// TestVerifyAfterUpdate checks verify passes on a freshly stamped page and
// fails on the original one.
func TestVerifyAfterUpdate(t *testing.T) {
	root := isolate(t, map[string]string{"index.html": testIndex, "sitemap.xml": testSitemap})

	if _, err := execute(t, "verify", "--root", root, "--date", "2025-03-05"); err == nil {
		t.Fatal("verify passed on a stale page")
	}

	if _, err := execute(t, "--root", root, "--date", "2025-03-05"); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, err := execute(t, "verify", "--root", root, "--date", "2025-03-05")
	if err != nil {
		t.Fatalf("verify after update: %v\n%s", err, out)
	}
	if strings.Count(out, "ok ") != 6 {
		t.Errorf("expected 6 ok findings, got:\n%s", out)
	}
}

func TestFingerprintCommand(t *testing.T) {
	root := isolate(t, map[string]string{"index.html": testIndex})

	out, err := execute(t, "fingerprint", "--root", root, "--date", "2025-03-05")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	want := watermark.Fingerprint(testIndex, "2025-03-05", "theanswerlayer.com") + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if got, _ := os.ReadFile(filepath.Join(root, "index.html")); string(got) != testIndex {
		t.Error("fingerprint command modified index.html")
	}
}

func TestConfigShow(t *testing.T) {
	isolate(t, nil)
	t.Setenv("ANSWERLAYER_SITE_DOMAIN", "example.org")

	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "site.domain = example.org") {
		t.Errorf("config show output missing domain override:\n%s", out)
	}
	for _, k := range config.ValidKeys() {
		if !strings.Contains(out, k+" = ") {
			t.Errorf("config show missing key %s", k)
		}
	}
}

func TestConfigSetThenShow(t *testing.T) {
	isolate(t, nil)

	if _, err := execute(t, "config", "set", "script.wrap_width", "72"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "script.wrap_width = 72") {
		t.Errorf("wrap width not persisted:\n%s", out)
	}

	if _, err := execute(t, "config", "set", "nope", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestNoColorFlag(t *testing.T) {
	oldNoColor, oldTerm := noColor, colorTerminal
	defer func() { noColor, colorTerminal = oldNoColor, oldTerm }()
	t.Setenv("NO_COLOR", "")

	colorTerminal = true
	noColor = true
	if result := colorize(colorRed, "test"); strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	if result := colorize(colorRed, "test"); !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}

	colorTerminal = false
	if result := colorize(colorRed, "test"); result != "test" {
		t.Errorf("colorize off a terminal = %q, want plain text", result)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(short) = %q", got)
	}
}
