package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainedCallsOffAccessors(t *testing.T) {
	// Level methods have pointer receivers; both accessors must return
	// an addressable logger so calls chain directly.
	require.NotNil(t, L())
	L().Debug().Msg("chained off global")
	Ctx(context.Background()).Debug().Msg("chained off context fallback")
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str(FieldConnID, "c1").Logger()

	ctx := WithLogger(context.Background(), logger)
	Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"conn_id":"c1"`)
	assert.Contains(t, buf.String(), `"hello"`)
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	assert.Same(t, L(), Ctx(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("garbage"))
}
