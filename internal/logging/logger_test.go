package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("prod", "info", &buf)
	l.WithField("station", "front").Info("scan")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scan", line["msg"])
	assert.Equal(t, "front", line["station"])
}

func TestLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, logrus.InfoLevel, NewWithOutput("dev", "loud", &buf).GetLevel())
	assert.Equal(t, logrus.DebugLevel, NewWithOutput("dev", "debug", &buf).GetLevel())
}
