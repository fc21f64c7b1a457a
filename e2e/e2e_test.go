//go:build e2e

// Package e2e provides end-to-end browser tests for the modeler page.
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

const (
	testPort    = 18080
	baseURL     = "http://127.0.0.1:18080"
	binaryPath  = "/tmp/lgmodeler-e2e"
	testDataDir = "testdata"

	// polling intervals for condition-based waits.
	pollTimeout     = 5 * time.Second
	pollInterval    = 100 * time.Millisecond
	longPollTimeout = 15 * time.Second

	// server startup timeout
	serverStartTimeout = 30 * time.Second
)

var (
	pw          *playwright.Playwright
	browser     playwright.Browser
	serverCmd   *exec.Cmd
	testTmpDir  string
	projectPath string
)

func TestMain(m *testing.M) {
	code := 1
	defer func() {
		os.Exit(code)
	}()

	if err := buildBinary(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build binary: %v\n", err)
		return
	}
	defer os.Remove(binaryPath)

	var err error
	testTmpDir, err = os.MkdirTemp("", "lgmodeler-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		return
	}
	defer os.RemoveAll(testTmpDir)

	// the project is copied so reload tests can rewrite it
	if err := copyTestData(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to copy test data: %v\n", err)
		return
	}

	if err := startServer(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		return
	}
	defer stopServer()

	if err := waitForServer(serverStartTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "server not ready: %v\n", err)
		return
	}

	if err := setupPlaywright(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup playwright: %v\n", err)
		return
	}
	defer teardownPlaywright()

	code = m.Run()
}

func buildBinary() error {
	// get the project root (parent of e2e directory)
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get cwd: %w", err)
	}
	projectRoot := filepath.Dir(cwd)

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/modeler")
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

func copyTestData() error {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("locate test file")
	}
	src := filepath.Join(filepath.Dir(filename), testDataDir, "project.yaml")

	content, err := os.ReadFile(src) //nolint:gosec // test data path
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	projectPath = filepath.Join(testTmpDir, "project.yaml")
	if err := os.WriteFile(projectPath, content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", projectPath, err)
	}
	return nil
}

// atomicWriteFile writes content to a file atomically using a temp file and rename.
// this prevents fsnotify from seeing partial writes when the server is watching the file.
func atomicWriteFile(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	tmpPath = "" // prevent deferred cleanup
	return nil
}

func startServer() error {
	serverCmd = exec.Command(binaryPath,
		"--port", fmt.Sprintf("%d", testPort),
		"--config-dir", testTmpDir,
		"--no-color",
		projectPath,
	)
	serverCmd.Dir = testTmpDir // keeps any local .lgmodeler/config out of the test
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr

	if err := serverCmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

func stopServer() {
	if serverCmd != nil && serverCmd.Process != nil {
		_ = serverCmd.Process.Kill()
		_ = serverCmd.Wait()
	}
}

func waitForServer(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server after %v", timeout)
		case <-ticker.C:
			resp, err := client.Get(baseURL + "/api/project")
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

func setupPlaywright() error {
	if err := playwright.Install(); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}

	var err error
	pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("run playwright: %w", err)
	}

	// check for headless mode (default: headless)
	headless := os.Getenv("E2E_HEADLESS") != "false"

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	}
	if !headless {
		opts.SlowMo = playwright.Float(50)
	}

	browser, err = pw.Chromium.Launch(opts)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

func teardownPlaywright() {
	if browser != nil {
		_ = browser.Close()
	}
	if pw != nil {
		_ = pw.Stop()
	}
}

// newPage creates an isolated browser context and page for a test.
func newPage(t *testing.T) playwright.Page {
	t.Helper()

	ctx, err := browser.NewContext()
	require.NoError(t, err, "create browser context")

	page, err := ctx.NewPage()
	require.NoError(t, err, "create page")

	t.Cleanup(func() {
		_ = page.Close()
		_ = ctx.Close()
	})

	return page
}

// openModeler loads the modeler page and waits until the live stream is connected.
func openModeler(t *testing.T, page playwright.Page) {
	t.Helper()

	_, err := page.Goto(baseURL)
	require.NoError(t, err, "navigate to modeler")

	waitVisible(t, page, "header h1")
	_, err = page.WaitForFunction("() => document.body.dataset.live === 'true'", nil,
		playwright.PageWaitForFunctionOptions{Timeout: playwright.Float(float64(longPollTimeout / time.Millisecond))})
	require.NoError(t, err, "wait for event stream")
}

// waitVisible waits for a selector to become visible.
func waitVisible(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(longPollTimeout / time.Millisecond)),
	})
	require.NoError(t, err, "wait for %s to be visible", selector)
}

// waitHidden waits for a selector to become hidden.
func waitHidden(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(float64(longPollTimeout / time.Millisecond)),
	})
	require.NoError(t, err, "wait for %s to be hidden", selector)
}

// waitAttr polls until the locator's attribute equals expected.
func waitAttr(t *testing.T, loc playwright.Locator, name, expected string) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := loc.GetAttribute(name)
		return err == nil && v == expected
	}, pollTimeout, pollInterval, "attribute %s should be %q", name, expected)
}

// waitInputValue polls until the locator's input value matches expected.
func waitInputValue(t *testing.T, loc playwright.Locator, expected string) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := loc.InputValue()
		return err == nil && v == expected
	}, pollTimeout, pollInterval, "input should have value %q", expected)
}

// waitForTextContains polls until the locator's text content contains substr.
func waitForTextContains(t *testing.T, loc playwright.Locator, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		text, err := loc.TextContent()
		return err == nil && strings.Contains(text, substr)
	}, longPollTimeout, pollInterval, "element text should contain %q", substr)
}
