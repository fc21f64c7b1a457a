package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// customChannel hands alerts to a user script.
type customChannel struct {
	scriptPath string
}

func newCustomChannel(scriptPath string) *customChannel {
	return &customChannel{scriptPath: scriptPath}
}

// send runs the script with the alert as json on stdin. the main fields are also exported
// as LGMODELER_* variables so simple scripts can skip json parsing.
func (c *customChannel) send(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.scriptPath) //nolint:gosec // path comes from user config, not user input
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = append(os.Environ(), alertEnv(a)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("alert script %s: %w, stderr: %s", c.scriptPath, err, stderr.String())
		}
		return fmt.Errorf("alert script %s: %w", c.scriptPath, err)
	}
	return nil
}

func alertEnv(a Alert) []string {
	return []string{
		"LGMODELER_PROJECT=" + a.Project,
		"LGMODELER_PROJECT_FILE=" + a.File,
		"LGMODELER_TRACE_ID=" + a.TraceID,
		"LGMODELER_STEP=" + strconv.Itoa(a.Index+1),
		"LGMODELER_NODE=" + a.Node,
		"LGMODELER_STATUS=" + string(a.Status),
	}
}
