// Package testutil provides shared test helpers for creating config files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file for testing.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := `server:
  addr: ":0"
transcript:
  request_timeout_seconds: 2
  min_words: 5
  requests_per_second: 100
audio:
  mirror_timeout_seconds: 1
  primary_mirrors:
    - mirror-a.test
  secondary_mirrors:
    - mirror-b.test
`

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake OpenAI API key for
// tests that require API key validation to pass.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string) string {
	t.Helper()

	t.Setenv("OPENAI_API_KEY", "fake-key-for-testing")
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte("openai:\n  model: gpt-4o-mini\n")...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// SetupBrokenConfig creates a config file that fails to parse.
func SetupBrokenConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server: [not a mapping\n"), 0644))
	return cfgPath
}

// SetupInvalidConfig creates a config file that parses but fails validation.
func SetupInvalidConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	cfgPath := filepath.Join(tmpDir, "config.yml")
	configContent := "transcript:\n  min_words: -1\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}
