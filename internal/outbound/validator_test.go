package outbound

import (
	"errors"
	"net"
	"net/http"
	"testing"
)

func stubLookup(t *testing.T, ips map[string][]net.IP) {
	t.Helper()
	orig := lookupIP
	lookupIP = func(host string) ([]net.IP, error) {
		if v, ok := ips[host]; ok {
			return v, nil
		}
		return nil, errors.New("no such host")
	}
	t.Cleanup(func() { lookupIP = orig })
}

func TestValidateTargetURL(t *testing.T) {
	stubLookup(t, map[string][]net.IP{
		"crm.example.com":      {net.ParseIP("93.184.216.34")},
		"internal.example.com": {net.ParseIP("10.1.2.3")},
		"metadata.example.com": {net.ParseIP("169.254.169.254")},
	})

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"valid https url", "https://crm.example.com/hooks/leads", nil},
		{"port 443 allowed", "https://crm.example.com:443/hooks", nil},
		{"unresolvable host passes", "https://unknown.example.org/hook", nil},
		{"http not allowed", "http://crm.example.com/hook", ErrInvalidScheme},
		{"localhost blocked", "https://localhost/hook", ErrLocalhostBlocked},
		{"127.0.0.1 blocked", "https://127.0.0.1/hook", ErrLocalhostBlocked},
		{".local domain blocked", "https://crm.local/hook", ErrLocalhostBlocked},
		{"non-standard port blocked", "https://crm.example.com:8443/hook", ErrInvalidPort},
		{"private resolution blocked", "https://internal.example.com/hook", ErrPrivateIP},
		{"metadata resolution blocked", "https://metadata.example.com/hook", ErrPrivateIP},
		{"empty host", "https:///hook", ErrEmptyHost},
		{"unparseable", "https://%zz", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if err != tt.wantErr {
				t.Errorf("ValidateTargetURL(%q) error = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsBlockedIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ip      string
		blocked bool
	}{
		{"private 10.x", "10.0.0.1", true},
		{"private 172.16.x", "172.16.0.1", true},
		{"private 192.168.x", "192.168.1.1", true},
		{"loopback", "127.0.0.1", true},
		{"link-local", "169.254.1.1", true},
		{"cgnat", "100.64.0.1", true},
		{"ipv6 private", "fd00::1", true},
		{"public IP", "8.8.8.8", false},
		{"public IP 2", "93.184.216.34", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("failed to parse IP: %s", tt.ip)
			}
			if got := isBlockedIP(ip); got != tt.blocked {
				t.Errorf("isBlockedIP(%q) = %v, want %v", tt.ip, got, tt.blocked)
			}
		})
	}
}

func TestExtractHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://crm.example.com/hooks?token=secret", "crm.example.com"},
		{"https://api.example.com:443/v1", "api.example.com:443"},
		{"invalid-url", ""},
	}

	for _, tt := range tests {
		if got := ExtractHost(tt.url); got != tt.want {
			t.Errorf("ExtractHost(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewHTTPClient_DoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient()
	if c.Timeout != ClientTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, ClientTimeout)
	}
	if err := c.CheckRedirect(nil, nil); err != http.ErrUseLastResponse {
		t.Errorf("CheckRedirect = %v, want ErrUseLastResponse", err)
	}
}
