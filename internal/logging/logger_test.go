package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/secretforge/secretforge/internal/logging"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(false, true, &buf)

	logger.Info("synthesized %d resources", 3)
	logger.Warn("grant was not attached")
	logger.Error("failed to write %s", "template.json")

	out := buf.String()
	assert.Contains(t, out, "✓ synthesized 3 resources")
	assert.Contains(t, out, "⚠ grant was not attached")
	assert.Contains(t, out, "✗ failed to write template.json")
}

func TestLoggerDebugDisabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(false, true, &buf)

	logger.Debug("declared secret '%s'", "db")
	assert.Empty(t, buf.String())
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(true, true, &buf)

	logger.Debug("declared secret '%s'", "db")
	assert.Contains(t, buf.String(), "[DEBUG] declared secret 'db'")
}

func TestLoggerColorCodes(t *testing.T) {
	t.Parallel()

	var colored, plain bytes.Buffer

	logging.NewWithWriter(false, false, &colored).Info("hello")
	logging.NewWithWriter(false, true, &plain).Info("hello")

	assert.Contains(t, colored.String(), "\033[32m")
	assert.NotContains(t, plain.String(), "\033[")
}
