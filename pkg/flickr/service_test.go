package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type rewriteRoundTripper struct{ base *url.URL }

func (r rewriteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone the request to avoid mutating the original
	c := req.Clone(req.Context())
	c.URL.Scheme = r.base.Scheme
	c.URL.Host = r.base.Host
	c.Host = r.base.Host
	return http.DefaultTransport.RoundTrip(c)
}

func newTestClient(serverURL string) *Client {
	u, _ := url.Parse(serverURL)
	httpClient := &http.Client{Transport: rewriteRoundTripper{base: u}}
	return &Client{
		httpClient: httpClient,
		apiKey:     "test-key",
		endpoint:   DefaultEndpoint,
		userAgent:  "test-agent",
	}
}

func TestSearchService_PhotoURLs(t *testing.T) {
	var gotQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/services/rest/", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		resp := SearchResponse{
			Stat: "ok",
			Photos: PhotoPage{Page: 3, Pages: 10, PerPage: 5, Total: 50, Photo: []Photo{
				{ID: "111", Secret: "aaa", Server: "65535"},
				{ID: "222", Secret: "bbb", Server: "7"},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewSearchService(newTestClient(server.URL), Options{})
	svc.page = func(maxPage int) int {
		if maxPage != 10 {
			t.Errorf("maxPage = %d; want 10", maxPage)
		}
		return 3
	}

	urls, err := svc.PhotoURLs(context.Background(), 48.8584, 2.2945)
	if err != nil {
		t.Fatalf("PhotoURLs error: %v", err)
	}

	want := []string{
		"https://live.staticflickr.com/65535/111_aaa_s.jpg",
		"https://live.staticflickr.com/7/222_bbb_s.jpg",
	}
	if len(urls) != len(want) {
		t.Fatalf("len mismatch: got %d want %d (%v)", len(urls), len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("idx %d: got %q want %q", i, urls[i], want[i])
		}
	}

	expected := map[string]string{
		"method":         "flickr.photos.search",
		"api_key":        "test-key",
		"lat":            "48.8584",
		"lon":            "2.2945",
		"per_page":       "5",
		"page":           "3",
		"sort":           "interestingness-desc",
		"format":         "json",
		"nojsoncallback": "1",
	}
	for k, v := range expected {
		if got := gotQuery.Get(k); got != v {
			t.Errorf("query %s = %q; want %q", k, got, v)
		}
	}
}

func TestSearchService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode int
	}{
		{
			name: "stat fail becomes APIError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"stat":"fail","code":100,"message":"Invalid API Key (Key has invalid format)"}`))
			},
			wantCode: 100,
		},
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`jsonFlickrApi({})`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := NewSearchService(newTestClient(server.URL), Options{})
			_, err := svc.PhotoURLs(context.Background(), 1, 2)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrSearch) {
				t.Errorf("expected ErrSearch, got %v", err)
			}
			var apiErr *APIError
			if tt.wantCode != 0 {
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *APIError, got %T: %v", err, err)
				}
				if apiErr.Code != tt.wantCode {
					t.Errorf("code = %d; want %d", apiErr.Code, tt.wantCode)
				}
			} else if errors.As(err, &apiErr) {
				t.Errorf("did not expect *APIError, got %v", err)
			}
		})
	}
}

func TestSearchService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	svc := NewSearchService(newTestClient(endpoint), Options{})
	if _, err := svc.PhotoURLs(context.Background(), 1, 2); !errors.Is(err, ErrSearch) {
		t.Errorf("expected ErrSearch for a closed endpoint, got %v", err)
	}
}

func TestSearchService_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":{"page":1,"pages":0,"perpage":5,"total":0,"photo":[]},"stat":"ok"}`))
	}))
	defer server.Close()

	svc := NewSearchService(newTestClient(server.URL), Options{})
	urls, err := svc.PhotoURLs(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("PhotoURLs error: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("expected no URLs, got %v", urls)
	}
}

func TestRandomPage_InRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		if p := randomPage(10); p < 1 || p > 10 {
			t.Fatalf("randomPage(10) = %d; want [1, 10]", p)
		}
	}
}

func TestImageURL_Size(t *testing.T) {
	p := Photo{ID: "1", Secret: "s", Server: "2"}
	if got := ImageURL(p, "q"); got != "https://live.staticflickr.com/2/1_s_q.jpg" {
		t.Errorf("ImageURL = %q", got)
	}
	if got := ImageURL(p, ""); got != "https://live.staticflickr.com/2/1_s_s.jpg" {
		t.Errorf("ImageURL default = %q", got)
	}
}
