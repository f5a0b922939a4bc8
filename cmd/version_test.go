package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Output(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)

	if strings.Contains(stdout, "version: unknown") {
		assert.Equal(t, "unknown", buildVersion())
		return
	}

	assert.Contains(t, stdout, "tool version")
	assert.Contains(t, stdout, "go version")
	assert.Contains(t, stdout, buildVersion())
}
