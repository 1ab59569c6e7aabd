package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// customChannel pipes the result as JSON into a user script.
type customChannel struct {
	path string
}

func newCustomChannel(path string) *customChannel {
	return &customChannel{path: path}
}

// send runs the script with r on stdin. the script runs in its own process group,
// ctx expiry kills it together with anything it started.
func (c *customChannel) send(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.path) //nolint:gosec // script path comes from the user's config
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	setupProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("script %s: %w, stderr: %s", c.path, err, msg)
		}
		return fmt.Errorf("script %s: %w", c.path, err)
	}
	return nil
}
