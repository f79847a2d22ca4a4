package discovery

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, service string, port int, ipv4 string, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, service, ServiceDomain)
	e.HostName = instance + ".local."
	e.Port = port
	if ipv4 != "" {
		e.AddrIPv4 = []net.IP{net.ParseIP(ipv4)}
	}
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "lock service type",
			entry:    entry("frontdoor", LockServiceType, 5000, "192.168.4.16"),
			wantIP:   "192.168.4.16",
			wantPort: 5000,
		},
		{
			name:     "http with status path",
			entry:    entry("door", HTTPServiceType, 8000, "10.0.0.5", "path=/status"),
			wantIP:   "10.0.0.5",
			wantPort: 8000,
		},
		{
			name:     "http with smartlock instance",
			entry:    entry("SmartLock-Garage", HTTPServiceType, 0, "10.0.0.6"),
			wantIP:   "10.0.0.6",
			wantPort: DefaultPort,
		},
		{
			name:    "unrelated http service",
			entry:   entry("printer", HTTPServiceType, 80, "192.168.1.1", "path=/"),
			wantNil: true,
		},
		{
			name:    "no address",
			entry:   entry("frontdoor", LockServiceType, 5000, ""),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: func() *zeroconf.ServiceEntry {
				e := entry("frontdoor", LockServiceType, 5000, "")
				e.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}
				return e
			}(),
			wantIP:   "fe80::1",
			wantPort: 5000,
		},
		{
			name: "IPv4 preferred",
			entry: func() *zeroconf.ServiceEntry {
				e := entry("frontdoor", LockServiceType, 5000, "192.168.1.50")
				e.AddrIPv6 = []net.IP{net.ParseIP("fe80::2")}
				return e
			}(),
			wantIP:   "192.168.1.50",
			wantPort: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if ep != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", ep)
				}
				return
			}
			if ep == nil {
				t.Fatal("parseServiceEntry() = nil, want endpoint")
			}
			if ep.IP != tt.wantIP || ep.Port != tt.wantPort {
				t.Errorf("endpoint = %s:%d, want %s:%d", ep.IP, ep.Port, tt.wantIP, tt.wantPort)
			}
			if ep.Instance != tt.entry.Instance || ep.Host != tt.entry.HostName {
				t.Errorf("endpoint names = %q %q", ep.Instance, ep.Host)
			}
			if time.Since(ep.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", ep.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	ep := parseServiceEntry(entry("smartlock", HTTPServiceType, 5000, "192.168.4.16", "path=/status", "flag", "v=a=b"))
	if ep == nil {
		t.Fatal("parseServiceEntry() = nil")
	}

	want := map[string]string{"path": "/status", "flag": "", "v": "a=b"}
	if len(ep.Metadata) != len(want) {
		t.Errorf("Metadata = %v, want %v", ep.Metadata, want)
	}
	for k, v := range want {
		if ep.GetMetadata(k) != v {
			t.Errorf("Metadata[%q] = %q, want %q", k, ep.GetMetadata(k), v)
		}
	}
}

func TestEndpoint_URLs(t *testing.T) {
	tests := []struct {
		name       string
		ep         *Endpoint
		wantBase   string
		wantStatus string
	}{
		{"default path", &Endpoint{IP: "192.168.4.16", Port: 5000}, "http://192.168.4.16:5000", "http://192.168.4.16:5000/status"},
		{"advertised path", &Endpoint{IP: "10.0.0.5", Port: 80, Metadata: map[string]string{"path": "api/status"}}, "http://10.0.0.5:80", "http://10.0.0.5:80/api/status"},
		{"root path", &Endpoint{IP: "10.0.0.5", Port: 80, Metadata: map[string]string{"path": "/"}}, "http://10.0.0.5:80", "http://10.0.0.5:80/status"},
		{"IPv6", &Endpoint{IP: "fe80::1", Port: 5000}, "http://[fe80::1]:5000", "http://[fe80::1]:5000/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.BaseURL(); got != tt.wantBase {
				t.Errorf("BaseURL() = %v, want %v", got, tt.wantBase)
			}
			if got := tt.ep.StatusURL(); got != tt.wantStatus {
				t.Errorf("StatusURL() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestEndpoint_String(t *testing.T) {
	ep := &Endpoint{Instance: "frontdoor", Host: "frontdoor.local.", IP: "10.0.0.2", Port: 5000}
	want := `Lock server "frontdoor" (frontdoor.local.) at 10.0.0.2:5000`
	if ep.String() != want {
		t.Errorf("String() = %v, want %v", ep.String(), want)
	}
}

// fakeBrowse answers each service type with scripted entries
func fakeBrowse(answers map[string][]*zeroconf.ServiceEntry) browseFunc {
	return func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		go func() {
			defer close(entries)
			for _, e := range answers[service] {
				select {
				case entries <- e:
				case <-ctx.Done():
					return
				}
			}
			<-ctx.Done()
		}()
		return nil
	}
}

// resolvers hands out browse for every resolver the scanner creates
func resolvers(browse browseFunc) func() (browseFunc, error) {
	return func() (browseFunc, error) { return browse, nil }
}

func TestScanner_ResolverPerServiceType(t *testing.T) {
	s := NewScanner()
	s.Timeout = 50 * time.Millisecond

	var mu sync.Mutex
	browsed := make(map[int][]string)
	created := 0
	s.newBrowse = func() (browseFunc, error) {
		mu.Lock()
		defer mu.Unlock()
		id := created
		created++
		return func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
			mu.Lock()
			browsed[id] = append(browsed[id], service)
			mu.Unlock()
			go func() {
				<-ctx.Done()
				close(entries)
			}()
			return nil
		}, nil
	}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if created != len(s.ServiceTypes) {
		t.Errorf("created %d resolvers, want %d", created, len(s.ServiceTypes))
	}
	for id, services := range browsed {
		if len(services) != 1 {
			t.Errorf("resolver %d browsed %v, want exactly one service type", id, services)
		}
	}
}

func TestScanner_ResolverError(t *testing.T) {
	s := NewScanner()
	s.newBrowse = func() (browseFunc, error) { return nil, errors.New("no multicast interface") }

	if _, err := s.Scan(context.Background()); err == nil || !strings.Contains(err.Error(), "failed to create mDNS resolver") {
		t.Errorf("Scan() error = %v", err)
	}
}

func TestScanner_Scan(t *testing.T) {
	s := NewScanner()
	s.Timeout = 100 * time.Millisecond
	s.newBrowse = resolvers(fakeBrowse(map[string][]*zeroconf.ServiceEntry{
		LockServiceType: {entry("frontdoor", LockServiceType, 5000, "10.0.0.2")},
		HTTPServiceType: {
			entry("frontdoor", HTTPServiceType, 5000, "10.0.0.2", "path=/status"),
			entry("printer", HTTPServiceType, 80, "10.0.0.9"),
			entry("smartlock-back", HTTPServiceType, 5000, "10.0.0.3"),
		},
	}))

	endpoints, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("Scan() found %d endpoints, want 2 (duplicate merged, printer ignored): %v", len(endpoints), endpoints)
	}
}

func TestScanner_First(t *testing.T) {
	s := NewScanner()
	s.Timeout = 2 * time.Second
	s.newBrowse = resolvers(fakeBrowse(map[string][]*zeroconf.ServiceEntry{
		LockServiceType: {entry("frontdoor", LockServiceType, 5000, "10.0.0.2")},
	}))

	start := time.Now()
	ep, err := s.First(context.Background())
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if ep.IP != "10.0.0.2" {
		t.Errorf("First() = %v", ep)
	}
	if time.Since(start) > time.Second {
		t.Error("First() should return as soon as a server answers")
	}
}

func TestScanner_FirstTimeout(t *testing.T) {
	s := NewScanner()
	s.Timeout = 50 * time.Millisecond
	s.newBrowse = resolvers(fakeBrowse(nil))

	_, err := s.First(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no lock server found") {
		t.Errorf("First() error = %v", err)
	}
}

func TestScanner_BrowseError(t *testing.T) {
	s := NewScanner()
	s.newBrowse = resolvers(func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
		return errors.New("no multicast interface")
	})

	if _, err := s.Scan(context.Background()); err == nil || !strings.Contains(err.Error(), "failed to browse") {
		t.Errorf("Scan() error = %v", err)
	}
}
