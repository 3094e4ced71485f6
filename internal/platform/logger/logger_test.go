package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("resolved", "did", "did:sdi:0xabc", "chain_id", 56)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "resolved", entry["msg"])
	assert.Equal(t, "did:sdi:0xabc", entry["did"])
}

func TestNewWithWriterTextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "DEBUG", "text")
	log.Debug("walk step", "block", 12)
	assert.Contains(t, buf.String(), "walk step")
	assert.Contains(t, buf.String(), "block=12")
}
