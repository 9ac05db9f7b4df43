package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimator_BasePriceFromTable(t *testing.T) {
	t.Parallel()

	e := NewEstimator(nil, "")
	require.Equal(t, 38.45, e.BasePrice("PETR4"))
	require.Equal(t, 4.72, e.BasePrice("MGLU3"))
}

func TestEstimator_BasePriceUnknownSymbol(t *testing.T) {
	t.Parallel()

	e := NewEstimator(nil, "")
	for _, sym := range []string{"XXXX3", "ZZZZ99", "QQQQ11", "AB"} {
		p := e.BasePrice(sym)
		require.GreaterOrEqual(t, p, 5.00, "symbol %s", sym)
		require.LessOrEqual(t, p, 80.00, "symbol %s", sym)
		// deterministic: the same symbol maps to the same base price
		require.Equal(t, p, e.BasePrice(sym))
	}
	require.NotEqual(t, e.BasePrice("XXXX3"), e.BasePrice("ZZZZ99"))
}

func TestEstimator_Estimate(t *testing.T) {
	t.Parallel()

	e := NewEstimator(nil, "")
	e.randFloat = func() float64 { return 1 } // pin jitter at +2%

	q := e.Estimate("PETR4")
	require.Equal(t, "PETR4", q.Symbol)
	require.True(t, q.IsSynthetic)
	require.Equal(t, SyntheticSource, q.Source)
	require.Equal(t, "BRL", q.Currency)
	require.InDelta(t, 38.45*1.02, q.Price, 0.01)
	require.InDelta(t, 38.45*0.02, q.Change, 0.01)
	require.InDelta(t, 2.0, q.ChangePercent, 0.01)
}

func TestEstimator_JitterBounded(t *testing.T) {
	t.Parallel()

	e := NewEstimator(nil, "")
	base := e.BasePrice("PETR4")
	for i := 0; i < 200; i++ {
		q := e.Estimate("PETR4")
		require.GreaterOrEqual(t, q.Price, base*0.98-0.01)
		require.LessOrEqual(t, q.Price, base*1.02+0.01)
	}
}

func TestEstimator_ConfigOverrides(t *testing.T) {
	t.Parallel()

	e := NewEstimator(map[string]float64{"FAKE4": 10.00}, "USD")
	require.Equal(t, 10.00, e.BasePrice("FAKE4"))
	require.Equal(t, "USD", e.Estimate("FAKE4").Currency)
	// overriding the table drops the built-in entries
	p := e.BasePrice("PETR4")
	require.GreaterOrEqual(t, p, 5.00)
	require.LessOrEqual(t, p, 80.00)
}
