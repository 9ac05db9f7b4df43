package quote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	require.Equal(t, "PETR4", NormalizeSymbol("  petr4 "))
	require.Equal(t, "VALE3", NormalizeSymbol("VALE3"))
	require.Equal(t, "", NormalizeSymbol("   "))
}

func TestValidSymbol(t *testing.T) {
	t.Parallel()

	require.True(t, ValidSymbol("AB"))
	require.True(t, ValidSymbol("PETR4"))
	require.False(t, ValidSymbol("A"))
	require.False(t, ValidSymbol(""))
}

func TestRound2(t *testing.T) {
	t.Parallel()

	require.Equal(t, 38.46, Round2(38.456))
	require.Equal(t, 38.45, Round2(38.454))
	require.Equal(t, -1.34, Round2(-1.337))
	require.Equal(t, 0.0, Round2(0))
}

func TestChangeFromPrevious(t *testing.T) {
	t.Parallel()

	change, pct := ChangeFromPrevious(61, 60)
	require.Equal(t, 1.0, change)
	require.InDelta(t, 1.67, pct, 0.001)

	change, pct = ChangeFromPrevious(10, 0)
	require.Equal(t, 10.0, change)
	require.Equal(t, 0.0, pct, "zero previous price yields zero percent")
}

func TestTransportErr(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, TransportErr(context.DeadlineExceeded), ErrSourceTimeout)
	require.ErrorIs(t, TransportErr(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)), ErrSourceTimeout)
	require.ErrorIs(t, TransportErr(timeoutErr{}), ErrSourceTimeout)
	require.ErrorIs(t, TransportErr(errors.New("connection refused")), ErrSourceUnavailable)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
