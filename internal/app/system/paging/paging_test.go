package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/audit", 1},
		{"/audit?page=3", 3},
		{"/audit?page=0", 1},
		{"/audit?page=-2", 1},
		{"/audit?page=x", 1},
	}
	for _, tt := range tests {
		if got := ParsePage(httptest.NewRequest("GET", tt.target, nil)); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/audit", PageSize},
		{"/audit?limit=10", 10},
		{"/audit?limit=0", PageSize},
		{"/audit?limit=100000", MaxPageSize},
	}
	for _, tt := range tests {
		if got := ParseLimit(httptest.NewRequest("GET", tt.target, nil)); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 50); got != 0 {
		t.Errorf("Offset(1, 50) = %d", got)
	}
	if got := Offset(3, 20); got != 40 {
		t.Errorf("Offset(3, 20) = %d", got)
	}
	if got := Offset(0, 20); got != 0 {
		t.Errorf("Offset(0, 20) = %d", got)
	}
}

func TestNewInfo(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		total            int64
		pages            int
		hasPrev, hasNext bool
	}{
		{"empty", 1, 50, 0, 1, false, false},
		{"exact fit", 1, 50, 50, 1, false, false},
		{"first of two", 1, 50, 51, 2, false, true},
		{"last of three", 3, 10, 25, 3, true, false},
		{"middle", 2, 10, 25, 3, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewInfo(tt.page, tt.size, tt.total)
			if got.TotalPages != tt.pages || got.HasPrev != tt.hasPrev || got.HasNext != tt.hasNext {
				t.Errorf("got %+v", got)
			}
		})
	}
}
