package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf).Component("market")

	log.Debug().Str("ticker", "AAPL").Msg("fetching")

	assert.Contains(t, buf.String(), `"component":"market"`)
	assert.Contains(t, buf.String(), `"ticker":"AAPL"`)
}

func TestSilentLoggerDiscards(t *testing.T) {
	log := NewSilent()
	assert.NotPanics(t, func() { log.Error().Msg("nothing") })
}
