package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantErr    bool
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", false, 1, 20, 0},
		{"explicit", "page=3&limit=10", false, 3, 10, 20},
		{"per_page alias", "per_page=5", false, 1, 5, 0},
		{"limit clamped", "limit=9999", false, 1, 100, 0},
		{"zero page", "page=0", true, 0, 0, 0},
		{"negative page", "page=-1", true, 0, 0, 0},
		{"non-numeric page", "page=abc", true, 0, 0, 0},
		{"zero limit", "limit=0", true, 0, 0, 0},
		{"page beyond cap", "page=1048577", true, 0, 0, 0},
		{"max int page", "page=9223372036854775807&limit=100", true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			page, limit, offset, err := parsePagination(r)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got page=%d limit=%d offset=%d", page, limit, offset)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tt.wantPage || limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got page=%d limit=%d offset=%d, want %d/%d/%d",
					page, limit, offset, tt.wantPage, tt.wantLimit, tt.wantOffset)
			}
			if offset < 0 {
				t.Errorf("offset went negative: %d", offset)
			}
		})
	}
}
