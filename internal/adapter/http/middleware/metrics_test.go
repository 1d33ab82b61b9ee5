package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/health", want: "/health"},
		{path: "/api/v1/books", want: "/api/v1/books"},
		{path: "/api/v1/books/01HXYZ", want: "/api/v1/books/:id"},
		{path: "/api/v1/books/01HXYZ/members", want: "/api/v1/books/:id/members"},
		{path: "/api/v1/ledgers/01HA/entries/01HB", want: "/api/v1/ledgers/:id/entries/:id"},
		{path: "/api/v1/ledgers/01HA/entries/01HB/revisions", want: "/api/v1/ledgers/:id/entries/:id/revisions"},
		{path: "/api/v1/ledgers/01HA/accounts/01HC", want: "/api/v1/ledgers/:id/accounts/:id"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
