package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/knishimura/lingotube/internal/testutil"
)

func TestNewTranscriptCommand(t *testing.T) {
	cmd := newTranscriptCommand()

	assert.Equal(t, "transcript <video-url>", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestNewTranscriptCommand_RunE_InvalidConfig(t *testing.T) {
	cfgPath := testutil.SetupBrokenConfig(t, t.TempDir())
	oldConfigFile := configFile
	configFile = cfgPath
	defer func() { configFile = oldConfigFile }()

	cmd := newTranscriptCommand()
	cmd.SetArgs([]string{"https://youtu.be/dQw4w9WgXcQ"})
	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}

func TestNewTranscriptCommand_RunE_InvalidURL(t *testing.T) {
	cfgPath := testutil.SetupTestConfig(t, t.TempDir())
	oldConfigFile := configFile
	configFile = cfgPath
	defer func() { configFile = oldConfigFile }()

	cmd := newTranscriptCommand()
	cmd.SetArgs([]string{"https://example.org/not-a-video"})
	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ExtractVideoID")
}
