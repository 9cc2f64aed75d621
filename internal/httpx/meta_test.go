package httpx

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:41832",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for single entry",
			remoteAddr: "10.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.23"},
			want:       "198.51.100.23",
		},
		{
			name:       "x-forwarded-for chain takes first hop",
			remoteAddr: "10.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.23, 10.0.0.2, 10.0.0.3"},
			want:       "198.51.100.23",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:8080",
			headers:    map[string]string{"X-Real-IP": "192.0.2.99"},
			want:       "192.0.2.99",
		},
		{
			name:       "x-forwarded-for wins over x-real-ip",
			remoteAddr: "10.0.0.1:8080",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.23",
				"X-Real-IP":       "192.0.2.99",
			},
			want: "198.51.100.23",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/s/sometoken", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientCountry(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"present", "DE", "DE"},
		{"lowercased by proxy", "de", "DE"},
		{"unknown sentinel", "XX", ""},
		{"absent", "", ""},
		{"padded", " NG ", "NG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/s/sometoken", nil)
			if tt.header != "" {
				r.Header.Set(CountryHeader, tt.header)
			}

			if got := ClientCountry(r); got != tt.want {
				t.Errorf("ClientCountry() = %q, want %q", got, tt.want)
			}
		})
	}
}
