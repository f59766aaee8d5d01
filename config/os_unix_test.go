//go:build !windows

package config

import "testing"

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chart", "chart"},
		{"a/b", "ab"},
		{"a:b", "ab"},
		{".hidden", "hidden"},
		{"  ..spaced  ", "spaced"},
		{"tab\there", "tabhere"},
		{"Книга", "Книга"},
		{"", "_bad_file_name_"},
		{"/", "_bad_file_name_"},
		{"...", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
