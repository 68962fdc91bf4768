// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/config"
	"github.com/jeranaias/routinechat/internal/ui/chat"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolateHome points the config directory at a temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

// runCLI executes the command line and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	code := execute(cmd)
	return out.String(), errOut.String(), code
}

// newWorker starts a fake chat worker. Received requests are sent on seen
// when it is non-nil.
func newWorker(t *testing.T, status int, content string, seen chan<- cloud.ChatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req cloud.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if seen != nil {
			seen <- req
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte("upstream unavailable"))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// =============================================================================
// VERSION
// =============================================================================

func TestVersionCommand(t *testing.T) {
	isolateHome(t)

	out, _, code := runCLI(t, "", "version")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "routinechat "+Version)
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	home := isolateHome(t)
	seen := make(chan cloud.ChatRequest, 1)
	worker := newWorker(t, http.StatusOK, "Try a mattifying primer.", seen)

	out, _, code := runCLI(t, "",
		"--endpoint", worker.URL,
		"--log-file", filepath.Join(home, "test.log"),
		"ask", "which", "primer?")

	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Try a mattifying primer.\n", out)

	req := <-seen
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "which primer?", req.Messages[1].Content)
}

func TestAsk_ReadsQuestionFromStdin(t *testing.T) {
	home := isolateHome(t)
	seen := make(chan cloud.ChatRequest, 1)
	worker := newWorker(t, http.StatusOK, "ok", seen)

	_, _, code := runCLI(t, "night routine for dry hair\n",
		"--endpoint", worker.URL,
		"--log-file", filepath.Join(home, "test.log"),
		"ask", "-")

	require.Equal(t, ExitSuccess, code)
	req := <-seen
	assert.Equal(t, "night routine for dry hair", req.Messages[len(req.Messages)-1].Content)
}

func TestAsk_TranscriptEchoesToStderr(t *testing.T) {
	home := isolateHome(t)
	seen := make(chan cloud.ChatRequest, 1)
	worker := newWorker(t, http.StatusOK, "Hydrate first.", seen)

	out, errOut, code := runCLI(t, "",
		"--endpoint", worker.URL,
		"--log-file", filepath.Join(home, "test.log"),
		"ask", "--transcript", "I'm Maya, where do I start?")

	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Hydrate first.\n", out)
	assert.Contains(t, errOut, "I'm Maya, where do I start?")
	assert.Contains(t, errOut, "Hydrate first.")
	assert.NotContains(t, errOut, "(from Maya)")

	req := <-seen
	assert.Equal(t, "I'm Maya, where do I start? (from Maya)", req.Messages[len(req.Messages)-1].Content)
}

func TestAsk_RemoteErrorExitCode(t *testing.T) {
	home := isolateHome(t)
	worker := newWorker(t, http.StatusBadGateway, "", nil)

	out, errOut, code := runCLI(t, "",
		"--endpoint", worker.URL,
		"--log-file", filepath.Join(home, "test.log"),
		"ask", "hello")

	assert.Equal(t, ExitNetworkError, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "worker error: 502")
}

func TestAsk_EmptyQuestionIsUsageError(t *testing.T) {
	home := isolateHome(t)

	_, _, code := runCLI(t, "", "--log-file", filepath.Join(home, "test.log"), "ask", "   ")

	assert.Equal(t, ExitUsageError, code)
}

func TestAsk_RequiresQuestion(t *testing.T) {
	isolateHome(t)

	_, errOut, code := runCLI(t, "", "ask")

	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, errOut, "requires at least 1 arg")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInit_WritesDefaultsAndRefusesOverwrite(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, ".routinechat", "config.toml")

	out, _, code := runCLI(t, "", "config", "init")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, errOut, code := runCLI(t, "", "config", "init")
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, errOut, "already exists")

	_, _, code = runCLI(t, "", "config", "init", "--force")
	assert.Equal(t, ExitSuccess, code)
}

func TestConfigInit_RejectsNonTOMLPath(t *testing.T) {
	home := isolateHome(t)

	_, _, code := runCLI(t, "", "--config", filepath.Join(home, "c.json"), "config", "init")

	assert.Equal(t, ExitUsageError, code)
}

func TestConfigShow_AppliesFlagOverrides(t *testing.T) {
	isolateHome(t)

	out, _, code := runCLI(t, "", "--endpoint", "https://example.test/chat", "config", "show", "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://example.test/chat", cfg.Remote.Endpoint)
	assert.Equal(t, cloud.DefaultSystemPrompt, cfg.Remote.SystemPrompt)
}

func TestConfigShow_Formats(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		format string
		want   string
	}{
		{"toml", "[remote]"},
		{"yaml", "remote:"},
		{"json", `"remote":`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, _, code := runCLI(t, "", "config", "show", "-f", tt.format)
			require.Equal(t, ExitSuccess, code)
			assert.Contains(t, out, tt.want)
		})
	}

	_, _, code := runCLI(t, "", "config", "show", "-f", "xml")
	assert.Equal(t, ExitUsageError, code)
}

func TestConfigShow_InvalidEndpointIsConfigError(t *testing.T) {
	isolateHome(t)

	_, errOut, code := runCLI(t, "", "--endpoint", "ftp://example.test", "config", "show")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut, "remote.endpoint")
}

func TestConfigShow_ReadsDiscoveredFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".routinechat")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("remote:\n  endpoint: https://yaml.example.test/\nui:\n  keep_history: true\n"), 0600))

	out, _, code := runCLI(t, "", "config", "show", "-f", "json")
	require.Equal(t, ExitSuccess, code)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://yaml.example.test/", cfg.Remote.Endpoint)
	assert.True(t, cfg.UI.KeepHistory)
}

func TestConfigPath(t *testing.T) {
	home := isolateHome(t)

	out, _, code := runCLI(t, "", "config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, filepath.Join(home, ".routinechat", "config.toml")+" (not created)\n", out)

	_, _, code = runCLI(t, "", "config", "init")
	require.Equal(t, ExitSuccess, code)

	out, _, code = runCLI(t, "", "config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, filepath.Join(home, ".routinechat", "config.toml")+"\n", out)
}

func TestConfigLoadFailuresAreConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, home string) []string
	}{
		{
			name: "unparsable file",
			setup: func(t *testing.T, home string) []string {
				path := filepath.Join(home, "broken.toml")
				require.NoError(t, os.WriteFile(path, []byte("[remote\nendpoint = "), 0600))
				return []string{"--config", path}
			},
		},
		{
			name: "missing file",
			setup: func(t *testing.T, home string) []string {
				return []string{"--config", filepath.Join(home, "nowhere", "config.toml")}
			},
		},
		{
			name: "bad environment override",
			setup: func(t *testing.T, home string) []string {
				t.Setenv("ROUTINECHAT_TIMEOUT", "abc")
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolateHome(t)
			args := append(tt.setup(t, home), "config", "show")

			_, errOut, code := runCLI(t, "", args...)

			assert.Equal(t, ExitConfigError, code)
			assert.Contains(t, errOut, "failed to load config")
		})
	}
}

func TestReloadedConfigKeepsFlagOverrides(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("remote:\n  endpoint: https://file.example.test/\n"), 0600))

	opts := &rootOptions{configPath: path, endpoint: "https://flag.example.test/"}
	cfg, _, err := opts.loadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://flag.example.test/", cfg.Remote.Endpoint)

	require.NoError(t, os.WriteFile(path,
		[]byte("remote:\n  endpoint: https://edited.example.test/\n  system_prompt: Be brief.\n"), 0600))
	reloaded, err := config.LoadFromPath(path)
	require.NoError(t, err)

	msg, ok := opts.reloadedMsg(reloaded).(chat.ConfigReloadedMsg)
	require.True(t, ok, "expected a reload message")
	assert.Equal(t, "https://flag.example.test/", msg.Config.Remote.Endpoint)
	assert.Equal(t, "Be brief.", msg.Config.Remote.SystemPrompt)
}

func TestReloadedConfigWithInvalidOverrideReportsError(t *testing.T) {
	isolateHome(t)
	opts := &rootOptions{logLevel: "chatty"}

	msg, ok := opts.reloadedMsg(config.Default()).(chat.ConfigErrorMsg)
	require.True(t, ok, "expected an error message")
	assert.True(t, config.IsValidationError(msg.Err))
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestUnknownFlagIsUsageError(t *testing.T) {
	isolateHome(t)

	_, _, code := runCLI(t, "", "--no-such-flag")

	assert.Equal(t, ExitUsageError, code)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", &UsageError{Message: "bad"}, ExitUsageError},
		{"validation", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"load", &config.LoadError{Source: "environment", Err: errors.New("bad int")}, ExitConfigError},
		{"remote", NewCommandError("ask", "send", "x", &cloud.RemoteError{Status: 500}), ExitNetworkError},
		{"transport", &cloud.TransportError{Err: errors.New("refused")}, ExitNetworkError},
		{"malformed", &cloud.MalformedResponseError{}, ExitNetworkError},
		{"timeout", &cloud.TransportError{Err: context.DeadlineExceeded}, ExitTimeoutError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
