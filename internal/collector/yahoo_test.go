package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1700006400,1700092800,1700179200,1700190000],
"indicators":{"quote":[{"open":[1,null,3,4],"high":[1,null,3,4],"low":[1,null,3,4],
"close":[10.5,null,11.25,12.75],"volume":[100,null,300,400]}]}}],"error":null}}`

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "SPX500", 365)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotPath, "%5EGSPC") || !strings.Contains(gotPath, "range=1y") {
		t.Errorf("unexpected request path %q", gotPath)
	}
	// null bar dropped, the last two timestamps share a UTC day and collapse.
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 10.5 || bars[1].Close != 12.75 {
		t.Errorf("unexpected closes: %v, %v", bars[0].Close, bars[1].Close)
	}
	if !bars[0].Time.Before(bars[1].Time) {
		t.Error("bars not in ascending order")
	}
}

func TestYahooFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchCurrentPrice(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 365)
	if err == nil || !strings.Contains(err.Error(), "No data found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestYahooFetcher_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.FetchDailyBars(ctx, "AAPL", 365); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestDailyRange(t *testing.T) {
	cases := map[int]string{20: "1mo", 60: "3mo", 120: "6mo", 365: "1y", 500: "2y"}
	for days, want := range cases {
		if got := dailyRange(days); got != want {
			t.Errorf("dailyRange(%d) = %s, want %s", days, got, want)
		}
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			w.Write([]byte(`[{"timestamp":1700179200,"close":3},{"timestamp":1700006400,"close":1}]`))
		case "/api/v1/quote":
			w.Write([]byte(`{"price":3.5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "k", "")
	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 || bars[0].Close != 1 || bars[1].Close != 3 {
		t.Errorf("unexpected bars %+v", bars)
	}
	p, err := f.FetchCurrentPrice(context.Background(), "AAPL")
	if err != nil || p != 3.5 {
		t.Errorf("FetchCurrentPrice = %v, %v", p, err)
	}

	bad := NewRESTFetcher(srv.URL, "", "")
	if _, err := bad.FetchDailyBars(context.Background(), "AAPL", 30); err == nil {
		t.Error("expected unauthorized error")
	}
}
