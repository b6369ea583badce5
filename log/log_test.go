package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutput(t *testing.T) {
	formatter, level, out := Logger.Formatter, Logger.Level, Logger.Out
	t.Cleanup(func() {
		Logger.Formatter = formatter
		Logger.SetLevel(level)
		SetOutput(out)
	})

	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetJSON()
	SetLevel(InfoLevel)

	Debugf("hidden %d", 1)
	WithFields(Fields{"session": "abc"}).Info("navigation.transition")

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "navigation.transition", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}
