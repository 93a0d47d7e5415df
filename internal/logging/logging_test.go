package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/bundlegen/internal/logging/logfields"
)

// TestNew_Defaults verifies empty settings give an info text logger.
func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New("", "", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	Subsys(l, "driver").WithField(logfields.Round, 2).Info("round done")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="round done"`)
	assert.Contains(t, out, "round=2")
	assert.Contains(t, out, "subsys=driver")
}

// TestNew_JSON verifies the JSON formatter and level parsing.
func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New("debug", "JSON", &buf)
	require.NoError(t, err)

	l.WithField(logfields.Service, "Call").Debug("service discovered")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "debug", rec["level"])
	assert.Equal(t, "Call", rec[logfields.Service])
	assert.Equal(t, "service discovered", rec["msg"])
}

// TestNew_Rejects verifies unknown levels and formats fail.
func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	_, err := New("loud", "text", &bytes.Buffer{})
	require.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	require.Error(t, err)
}

// TestDiscard verifies the discard logger is silent.
func TestDiscard(t *testing.T) {
	t.Parallel()

	l := Discard()
	assert.Equal(t, logrus.PanicLevel, l.GetLevel())
	l.Error("ignored")
}
