package s2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(
		WithBaseURL(server.URL),
		WithBackoff(time.Millisecond),
	)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func intPtr(n int) *int { return &n }

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.1145/3313831.3376234", "10.1145/3313831.3376234"},
		{"https://doi.org/10.1145/3313831.3376234", "10.1145/3313831.3376234"},
		{"DOI:10.1038/NATURE12373", "10.1038/nature12373"},
		{"  doi.org/10.1000/abc  ", "10.1000/abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.input); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Designing Voice Interfaces", "Designing Voice Interfaces", 1.0, 1.0},
		{"case and punctuation", "Designing Voice Interfaces!", "designing voice interfaces", 1.0, 1.0},
		{"disjoint", "quantum computing", "bird migration patterns", 0.0, 0.0},
		{"partial", "voice interfaces for older adults", "voice interfaces", 0.3, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("TitleSimilarity = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestGetPaperByDOI(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Paper{
			PaperID:       "abc123",
			Title:         "A Study of Reading",
			Year:          intPtr(2021),
			CitationCount: intPtr(42),
			ExternalIDs:   &ExternalIDs{DOI: "10.1145/1234"},
			References: []PaperRef{
				{PaperID: "ref1", Title: "Earlier Work", ExternalIDs: &ExternalIDs{DOI: "10.1145/1111"}},
			},
		})
	})

	paper, err := client.GetPaperByDOI(context.Background(), "https://doi.org/10.1145/1234")
	if err != nil {
		t.Fatalf("GetPaperByDOI: %v", err)
	}
	if gotPath != "/paper/DOI:10.1145%2F1234" && gotPath != "/paper/DOI:10.1145/1234" {
		t.Errorf("request path = %q", gotPath)
	}
	if paper.PaperID != "abc123" || *paper.CitationCount != 42 {
		t.Errorf("paper = %+v", paper)
	}
	if paper.References[0].DOI() != "10.1145/1111" {
		t.Errorf("reference DOI = %q", paper.References[0].DOI())
	}
}

func TestGetPaperByDOINotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.GetPaperByDOI(context.Background(), "10.1/missing")
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not-found", err)
	}
}

func TestRetryAfterRateLimit(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(Paper{PaperID: "abc", Title: "Recovered"})
	})

	paper, err := client.GetPaperByDOI(context.Background(), "10.1/retry")
	if err != nil {
		t.Fatalf("GetPaperByDOI after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if paper.Title != "Recovered" {
		t.Errorf("title = %q", paper.Title)
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := client.GetPaperByDOI(context.Background(), "10.1/always429")
	if !IsRateLimited(err) {
		t.Errorf("err = %v, want rate-limited", err)
	}
}

func TestSearchByTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{
			Total: 2,
			Data: []Paper{
				{PaperID: "wrong", Title: "Completely Unrelated Survey"},
				{PaperID: "right", Title: "Haptic Feedback in Virtual Reality"},
			},
		})
	})

	paper, err := client.SearchByTitle(context.Background(), "Haptic Feedback in Virtual Reality")
	if err != nil {
		t.Fatalf("SearchByTitle: %v", err)
	}
	if paper.PaperID != "right" {
		t.Errorf("PaperID = %q, want best title match", paper.PaperID)
	}
}

func TestSearchByTitleRejectsWeakMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{
			Total: 1,
			Data:  []Paper{{PaperID: "weak", Title: "An Entirely Different Topic Altogether Here"}},
		})
	})

	_, err := client.SearchByTitle(context.Background(), "Haptic Feedback in Virtual Reality")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestBatchPapers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding batch body: %v", err)
		}
		if len(body["ids"]) != 2 {
			t.Errorf("ids = %v", body["ids"])
		}
		// Second id is unresolved.
		w.Write([]byte(`[{"paperId":"p1","title":"First"},null]`))
	})

	papers, err := client.BatchPapers(context.Background(), []string{"DOI:10.1/a", "DOI:10.1/b"})
	if err != nil {
		t.Fatalf("BatchPapers: %v", err)
	}
	if len(papers) != 1 || papers[0].PaperID != "p1" {
		t.Errorf("papers = %+v", papers)
	}
}
