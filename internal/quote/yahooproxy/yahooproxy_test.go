package yahooproxy_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"quoteprovider/internal/httpx/httpxmock"
	"quoteprovider/internal/quote"
	"quoteprovider/internal/quote/yahooproxy"
)

// proxied wraps an upstream chart payload the way the CORS proxy does:
// as a JSON string under "contents".
func proxied(t *testing.T, chart string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]string{"contents": chart})
	require.NoError(t, err)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func TestFetchQuote(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "api.allorigins.win", req.URL.Host)
			// upstream target travels URL-encoded inside the query
			require.Contains(t, req.URL.Query().Get("url"), "/chart/PETR4.SA")

			return proxied(t, `{"chart":{"result":[{"meta":{
				"regularMarketPrice":38.45,
				"previousClose":37.90,
				"currency":"BRL"
			}}]}}`), nil
		}).
		Times(1)

	s := yahooproxy.New(yahooproxy.Config{}, httpClient)
	q, err := s.FetchQuote(t.Context(), "petr4")
	require.NoError(t, err)

	require.Equal(t, "PETR4", q.Symbol)
	require.Equal(t, 38.45, q.Price)
	require.Equal(t, 0.55, q.Change)
	require.InDelta(t, 1.45, q.ChangePercent, 0.001)
	require.Equal(t, "BRL", q.Currency)
	require.Equal(t, "Yahoo Finance (proxy)", q.Source)
	require.False(t, q.IsSynthetic)
}

func TestFetchQuote_ZeroPreviousClose(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			return proxied(t, `{"chart":{"result":[{"meta":{
				"regularMarketPrice":12.00,
				"previousClose":0
			}}]}}`), nil
		}).
		Times(1)

	s := yahooproxy.New(yahooproxy.Config{}, httpClient)
	q, err := s.FetchQuote(t.Context(), "B3SA3")
	require.NoError(t, err)

	// zero previous close falls back to the current price: flat quote
	require.Equal(t, 12.00, q.Price)
	require.Equal(t, 0.0, q.Change)
	require.Equal(t, 0.0, q.ChangePercent)
}

func TestFetchQuote_HTTPError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(bytes.NewReader(nil)),
			}, nil
		}).
		Times(1)

	s := yahooproxy.New(yahooproxy.Config{}, httpClient)
	_, err := s.FetchQuote(t.Context(), "PETR4")
	require.ErrorIs(t, err, quote.ErrSourceUnavailable)
}

func TestFetchQuote_Timeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, context.DeadlineExceeded).
		Times(1)

	s := yahooproxy.New(yahooproxy.Config{}, httpClient)
	_, err := s.FetchQuote(t.Context(), "PETR4")
	require.ErrorIs(t, err, quote.ErrSourceTimeout)
}

func TestFetchQuote_InvalidPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		chart string
	}{
		{"contents not json", `not json at all`},
		{"no chart result", `{"chart":{"result":[]}}`},
		{"missing price", `{"chart":{"result":[{"meta":{"previousClose":10}}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := httpxmock.NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				DoAndReturn(func(*http.Request) (*http.Response, error) {
					return proxied(t, tc.chart), nil
				}).
				Times(1)

			s := yahooproxy.New(yahooproxy.Config{}, httpClient)
			_, err := s.FetchQuote(t.Context(), "PETR4")
			require.ErrorIs(t, err, quote.ErrSourceData)
		})
	}
}
