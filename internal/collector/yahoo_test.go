package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooFixture = `{"chart":{"result":[{
	"meta":{"symbol":"PEP","gmtoffset":-18000},
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{
		"quote":[{"open":[170.1,171.0,null],"high":[171.5,172.0,null],"low":[169.8,170.2,null],
			"close":[171.2,170.9,null],"volume":[4000000,3500000,null]}],
		"adjclose":[{"adjclose":[165.4,165.1,null]}]}
}],"error":null}}`

func TestYahooFetcher_FetchDaily(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(yahooFixture))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	obs, err := f.FetchDaily(context.Background(), "SPX", day(2024, 1, 1), day(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=1704067200")
	assert.Contains(t, gotQuery, "period2=1704499200")

	require.Len(t, obs, 2)
	assert.Equal(t, day(2024, 1, 2), obs[0].Date)
	assert.Equal(t, day(2024, 1, 3), obs[1].Date)
	assert.Equal(t, 171.2, obs[0].Close.InexactFloat64())
	assert.Equal(t, 165.4, obs[0].AdjClose.InexactFloat64())
	assert.EqualValues(t, 4000000, obs[0].Volume)
}

func TestYahooFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchDaily(context.Background(), "ZZZZZ", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestYahooFetcher_BadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 1000), http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchDaily(context.Background(), "PEP", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Less(t, len(err.Error()), 400)
}

func TestYahooFetcher_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	obs, err := f.FetchDaily(context.Background(), "PEP", day(2024, 1, 1), day(2024, 1, 5))
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestYahooFetcher_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchDaily(ctx, "PEP", day(2024, 1, 1), day(2024, 1, 5))
	assert.Error(t, err)
}
