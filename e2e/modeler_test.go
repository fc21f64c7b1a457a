//go:build e2e

package e2e

import (
	"os"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeler_Title(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	title, err := page.Title()
	require.NoError(t, err)
	assert.Contains(t, title, "LangGraph Visual Modeler")
}

func TestModeler_StateSchemaHeading(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	heading := page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "State Schema"})
	visible, err := heading.IsVisible()
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestModeler_NodePaletteVisible(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	waitVisible(t, page, "[data-testid=node-palette]")
	count, err := page.Locator("[data-testid=node-palette] .palette-node").Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestModeler_AddFieldOpensDialog(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	dialog := page.GetByRole("dialog")
	visible, err := dialog.IsVisible()
	require.NoError(t, err)
	require.False(t, visible, "dialog is closed initially")

	require.NoError(t, page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Add Field", Exact: playwright.Bool(true)}).Click())
	waitVisible(t, page, "[role=dialog]")
	waitInputValue(t, page.Locator("#field-editor-form input[name=key]"), "")

	require.NoError(t, page.Locator("#field-editor-cancel").Click())
	waitHidden(t, page, "[role=dialog]")
}

func TestModeler_EditFieldPrefillsEditor(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	require.NoError(t, page.Locator(`.field-edit[data-field="messages"]`).Click())
	waitVisible(t, page, "[role=dialog]")
	waitInputValue(t, page.Locator("#field-editor-form input[name=key]"), "messages")
	waitInputValue(t, page.Locator("#field-editor-form input[name=reducer]"), "add_messages")

	// escape closes the editor
	require.NoError(t, page.Keyboard().Press("Escape"))
	waitHidden(t, page, "[role=dialog]")
}

func TestModeler_PanelToggles(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	for _, tc := range []struct{ button, panel string }{
		{"#toggle-state-panel", "#state-panel"},
		{"#toggle-inspector", "#inspector"},
		{"#toggle-trace-list", "#trace-list"},
	} {
		t.Run(tc.panel, func(t *testing.T) {
			btn := page.Locator(tc.button)
			waitAttr(t, btn, "aria-pressed", "true")

			require.NoError(t, btn.Click())
			waitHidden(t, page, tc.panel)
			waitAttr(t, btn, "aria-pressed", "false")

			require.NoError(t, btn.Click())
			waitVisible(t, page, tc.panel)
			waitAttr(t, btn, "aria-pressed", "true")
		})
	}
}

func TestModeler_TabsAreIndependent(t *testing.T) {
	first := newPage(t)
	openModeler(t, first)
	second := newPage(t)
	openModeler(t, second)

	require.NoError(t, first.Locator("#toggle-inspector").Click())
	waitHidden(t, first, "#inspector")

	visible, err := second.Locator("#inspector").IsVisible()
	require.NoError(t, err)
	assert.True(t, visible, "other tab keeps its own ui state")
}

func TestModeler_StatusBadges(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	badge := page.Locator(`.trace[data-trace="run-2"] .trace-step[data-node="retrieve"] [role=status]`)
	label, err := badge.GetAttribute("aria-label")
	require.NoError(t, err)
	assert.Equal(t, "Step error - execution failed", label)
	waitForTextContains(t, badge, "Error")
}

func TestModeler_ProjectReload(t *testing.T) {
	page := newPage(t)
	openModeler(t, page)

	original, err := os.ReadFile(projectPath) //nolint:gosec // test path
	require.NoError(t, err)
	t.Cleanup(func() { _ = atomicWriteFile(projectPath, original) })

	updated := strings.Replace(string(original), "  - key: intent\n", "  - key: retries\n    type: int\n  - key: intent\n", 1)
	require.NotEqual(t, string(original), updated)
	require.NoError(t, atomicWriteFile(projectPath, []byte(updated)))

	waitVisible(t, page, `.schema-field[data-field="retries"]`)
}
