package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultPageSize, 0},
		{"limit=10", 10, 0},
		{"limit=10&page=3", 10, 20},
		{"limit=0", DefaultPageSize, 0},
		{"limit=500", DefaultPageSize, 0},
		{"page=abc", DefaultPageSize, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
		limit, offset := Pagination(r)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("Pagination(%q) = %d,%d; want %d,%d", tt.query, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestYearMonth(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		query string
		year  int
		month time.Month
	}{
		{"", 2024, time.June},
		{"year=2023&month=2", 2023, time.February},
		{"year=2023&month=13", 2024, time.June},
		{"year=abc&month=2", 2024, time.February},
		{"month=0", 2024, time.June},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
		y, m := YearMonth(r, now)
		if y != tt.year || m != tt.month {
			t.Errorf("YearMonth(%q) = %d-%d; want %d-%d", tt.query, y, m, tt.year, tt.month)
		}
	}
}

func TestDecode(t *testing.T) {
	var dst map[string]any
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(""))
	if err := Decode(r, &dst); err != ErrEmptyBody {
		t.Errorf("empty body err = %v", err)
	}
	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{bad"))
	if err := Decode(r, &dst); err == nil {
		t.Error("expected error for invalid JSON")
	}
	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`))
	if err := Decode(r, &dst); err != nil || dst["a"] != float64(1) {
		t.Errorf("Decode = %v, %v", dst, err)
	}
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusBadRequest, "validation_failed", map[string]string{"month": "invalid_month"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `{"error":"validation_failed","details":{"month":"invalid_month"}}`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}
