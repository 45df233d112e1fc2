package release

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int // >0, <0, or 0
	}{
		{"0.2.1", "0.2.0", 1},
		{"0.2.0", "0.2.0", 0},
		{"0.1.9", "0.2.0", -1},
		{"0.10.0", "0.2.0", 1}, // numeric, not string comparison
		{"v0.2.1", "0.2.1", 0},
		{"0.2.1-rc1", "0.2.1", -1},
		{"0.3.0", "0.2.1-rc1", 1},
		{"1.0", "1.0.0", -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_vs_%s", tt.a, tt.b), func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			switch {
			case tt.want > 0 && got <= 0:
				t.Fatalf("Compare(%q, %q) = %d, want > 0", tt.a, tt.b, got)
			case tt.want < 0 && got >= 0:
				t.Fatalf("Compare(%q, %q) = %d, want < 0", tt.a, tt.b, got)
			case tt.want == 0 && got != 0:
				t.Fatalf("Compare(%q, %q) = %d, want 0", tt.a, tt.b, got)
			}
		})
	}
}

func serve(t *testing.T, status int, body string) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	old := URL
	URL = ts.URL
	t.Cleanup(func() { URL = old })
}

func TestNewerAvailable(t *testing.T) {
	serve(t, http.StatusOK, `{"tag_name": "v99.0.0", "html_url": "https://example.com/r"}`)
	rel, err := Newer(context.Background(), "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if rel == nil || rel.Version() != "99.0.0" {
		t.Fatalf("expected v99.0.0, got %+v", rel)
	}
}

func TestNewerAlreadyCurrent(t *testing.T) {
	serve(t, http.StatusOK, `{"tag_name": "v0.1.0"}`)
	rel, err := Newer(context.Background(), "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if rel != nil {
		t.Fatalf("expected no update, got %+v", rel)
	}
}

func TestNewerDevBuild(t *testing.T) {
	serve(t, http.StatusInternalServerError, "")
	rel, err := Newer(context.Background(), "dev")
	if err != nil || rel != nil {
		t.Fatalf("dev builds must not check, got %+v %v", rel, err)
	}
}

func TestLatestErrors(t *testing.T) {
	serve(t, http.StatusInternalServerError, "")
	if _, err := Latest(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}

	serve(t, http.StatusOK, "not json at all!!!")
	if _, err := Latest(context.Background()); err == nil {
		t.Fatal("expected error on malformed JSON")
	}
}
