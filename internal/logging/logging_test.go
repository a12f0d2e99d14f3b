package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"chatty", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupWritesToExtraWriter(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	err := Setup(Settings{
		Level: "info",
		File:  filepath.Join(t.TempDir(), "lostfound.log"),
		JSON:  true,
	}, &buf)
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("hello")
	log.Debug().Msg("filtered")

	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.NotContains(t, buf.String(), "filtered")
}

func TestSetupRejectsBadLevel(t *testing.T) {
	assert.Error(t, Setup(Settings{Level: "loud"}))
}
