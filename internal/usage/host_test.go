package usage

import "testing"

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		raw      string
		collapse bool
		want     string
	}{
		{raw: "Example.COM", want: "example.com"},
		{raw: "  www.example.com. ", want: "example.com"},
		{raw: "example.com:8443", want: "example.com"},
		{raw: "https://www.example.com/path?q=1", want: "example.com"},
		{raw: "docs.google.com", want: "docs.google.com"},
		{raw: "docs.google.com", collapse: true, want: "google.com"},
		{raw: "news.bbc.co.uk", collapse: true, want: "bbc.co.uk"},
		{raw: "co.uk", collapse: true, want: "co.uk"},
		{raw: "localhost", collapse: true, want: "localhost"},
		{raw: "192.168.1.10", collapse: true, want: "192.168.1.10"},
		{raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeHost(tt.raw, tt.collapse); got != tt.want {
				t.Errorf("NormalizeHost(%q, %v) = %q, want %q", tt.raw, tt.collapse, got, tt.want)
			}
		})
	}
}

func TestValidHost(t *testing.T) {
	if !validHost("example.com", 256) {
		t.Error("expected example.com valid")
	}
	if validHost("", 256) {
		t.Error("expected empty host invalid")
	}
	if validHost("example.com", 5) {
		t.Error("expected host over max length invalid")
	}
	if validHost("bad host", 256) {
		t.Error("expected host with space invalid")
	}
}
