//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jmanprz/pipedrive-client/pkg/pdclient"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// TestConfig holds configuration for integration tests. The token is
// taken from PIPEDRIVE_TEST_TOKEN so a developer's regular environment
// never leaks into the test account.
type TestConfig struct {
	Token      string
	BaseURL    string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Token:      os.Getenv("PIPEDRIVE_TEST_TOKEN"),
		BaseURL:    os.Getenv("PIPEDRIVE_TEST_BASE_URL"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("PIPEDRIVE_TEST_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the pipedrive binary.
func getBinaryPath() string {
	if path := os.Getenv("PIPEDRIVE_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../pipedrive",
		"./pipedrive",
		"../pipedrive",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "pipedrive" // Fallback to PATH
}

// SkipWithoutToken skips the test when no test account is configured.
func (config *TestConfig) SkipWithoutToken(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("PIPEDRIVE_TEST_TOKEN not set, skipping integration test")
	}
}

// SkipWithoutBinary skips the test when the CLI binary is not built.
func (config *TestConfig) SkipWithoutBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		if _, statErr := os.Stat(config.BinaryPath); statErr != nil {
			t.Skipf("pipedrive binary not found at %s, skipping integration test", config.BinaryPath)
		}
	}
}

// NewClient builds a library client against the test account.
func NewClient(t *testing.T, config *TestConfig) pipedrive.Client {
	t.Helper()

	ctx := context.Background()

	if config.BaseURL != "" {
		client, err := pdclient.NewWithBaseURL(ctx, config.BaseURL, config.Token)
		if err != nil {
			t.Fatalf("Failed to create client: %v", err)
		}

		return client
	}

	client, err := pdclient.NewWithToken(ctx, config.Token)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return client
}

// CommandRunner provides utilities for running pipedrive CLI commands.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a pipedrive command authenticated against the test
// account. The token travels through the environment, never argv.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	env := append(os.Environ(), "PIPEDRIVE_TOKEN="+runner.config.Token)
	if runner.config.BaseURL != "" {
		env = append(env, "PIPEDRIVE_API="+runner.config.BaseURL)
	}

	cmd.Env = env

	return runner.run(cmd, args)
}

// RunWithInput executes an authenticated pipedrive command with stdin
// input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "PIPEDRIVE_TOKEN="+runner.config.Token)
	cmd.Stdin = strings.NewReader(input)

	return runner.run(cmd, args)
}

// RunIsolated executes a pipedrive command with a private home
// directory and without any ambient credentials, for testing
// configuration handling and unauthenticated behavior.
func (runner *CommandRunner) RunIsolated(home, input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	env := []string{"HOME=" + home, "PATH=" + os.Getenv("PATH")}
	cmd.Env = env

	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	return runner.run(cmd, args)
}

func (runner *CommandRunner) run(cmd *exec.Cmd, args []string) (stdout, stderr string, err error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName creates a unique test resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupRecord deletes a record created by a test, tolerating records
// already gone.
func CleanupRecord(t *testing.T, client pipedrive.Client, schema *pipedrive.Schema, id string) {
	t.Helper()

	if id == "" {
		return
	}

	ctx := context.Background()

	entity, err := client.Fetch(ctx, schema, id)
	if err != nil {
		if !pipedrive.IsNotFound(err) {
			t.Logf("Cleanup warning for %s %s: %v", schema.EntityName(), id, err)
		}

		return
	}

	if err := client.Delete(ctx, entity); err != nil && !pipedrive.IsNotFound(err) {
		t.Logf("Cleanup warning for %s %s: %v", schema.EntityName(), id, err)
	}
}

// WaitForCondition waits for a condition to be met with timeout.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}

// ExtractRecordID reads the identifier from a command's JSON output.
func ExtractRecordID(t *testing.T, output string) string {
	t.Helper()

	var record struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal([]byte(output), &record); err != nil {
		t.Fatalf("Output is not a JSON record: %v\n%s", err, output)
	}

	if record.ID == "" {
		t.Fatalf("JSON record carries no id:\n%s", output)
	}

	return record.ID
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output looks like YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
