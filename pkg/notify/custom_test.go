package notify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellScript writes an executable script running body and returns its path.
func shellScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "on-result.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)) //nolint:gosec // script must be executable
	return path
}

func TestCustomChannel_ResultOnStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.json")
	ch := newCustomChannel(shellScript(t, "cat > "+out))

	sent := Result{Status: "failure", Scenario: "frontend", BaseURL: "http://localhost:9981/",
		Driver: "playwright", Duration: "30 seconds", Passed: 20, Failed: 1,
		Failures: []string{"filtered: got expected message headings"}}
	require.NoError(t, ch.send(context.Background(), sent))

	raw, err := os.ReadFile(out) //nolint:gosec // temp dir path
	require.NoError(t, err)
	var got Result
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, sent, got)
	assert.Contains(t, string(raw), `"failures":["filtered: got expected message headings"]`)
}

func TestCustomChannel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr []string
	}{
		{
			name:    "exit status with stderr",
			path:    func(t *testing.T) string { return shellScript(t, "echo '  bad token  ' >&2\nexit 3") },
			wantErr: []string{"exit status 3", "stderr: bad token"},
		},
		{
			name:    "exit status without stderr",
			path:    func(t *testing.T) string { return shellScript(t, "exit 1") },
			wantErr: []string{"exit status 1"},
		},
		{
			name:    "missing script",
			path:    func(*testing.T) string { return "/nonexistent/on-result.sh" },
			wantErr: []string{"script /nonexistent/on-result.sh"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := newCustomChannel(tc.path(t)).send(context.Background(), Result{Status: "success"})
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.Contains(t, err.Error(), want)
			}
			if len(tc.wantErr) == 1 {
				assert.NotContains(t, err.Error(), "stderr:")
			}
		})
	}
}

func TestCustomChannel_Cancel(t *testing.T) {
	ch := newCustomChannel(shellScript(t, "sleep 10"))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.Error(t, ch.send(ctx, Result{Status: "success"}))
	assert.Less(t, time.Since(start), 5*time.Second, "sleep child is killed with the script")
}
