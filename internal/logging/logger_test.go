package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure("warn", "json", &buf)
	t.Cleanup(func() { Configure("info", "json", os.Stderr) })

	Info().Msg("hidden")
	Warn().Str("user", "lucia").Msg("event dropped")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "lucia", entry["user"])
	assert.Equal(t, "event dropped", entry["message"])
}

func TestConfigure_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure("chatty", "json", &buf)
	t.Cleanup(func() { Configure("info", "json", os.Stderr) })

	Debug().Msg("hidden")
	Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
