package pathutil

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/profiles/42", "/profiles/:id"},
		{"/profiles/42/", "/profiles/:id"},
		{"/profiles/42/bind", "/profiles/:id/bind"},
		{"/profiles/42/bind?force=true", "/profiles/:id/bind"},
		{"/profiles", "/profiles"},
		{"/profiles/notify", "/profiles/notify"},
		{"/profiles/interval", "/profiles/interval"},
		{"/profiles/abc", "/profiles/abc"},
		{"/18xx", "/18xx"},
		{"/health", "/health"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	paths := []string{"/profiles/42/bind", "/profiles/42", "/18xx", "/health"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = NormalizePath(paths[i%len(paths)])
	}
}
