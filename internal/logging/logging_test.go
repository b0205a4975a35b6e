package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Modes(t *testing.T) {
	tests := []struct {
		mode  string
		debug bool
		info  bool
	}{
		{mode: "prod", info: true},
		{mode: "", info: true},
		{mode: "Production", info: true},
		{mode: "dev", debug: true, info: true},
		{mode: "debug", debug: true, info: true},
		{mode: "nop"},
		{mode: "off"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			log, err := New(tt.mode)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.info, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New("verbose")
	assert.ErrorContains(t, err, `unknown mode "verbose"`)
}
