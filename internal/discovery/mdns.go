package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
)

const (
	// LockServiceType is advertised by lock servers that register themselves
	LockServiceType = "_smartlock._tcp"

	// HTTPServiceType is browsed for servers that only announce plain HTTP
	HTTPServiceType = "_http._tcp"

	ServiceDomain = "local."

	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the lock server's usual port
	DefaultPort = 5000

	instancePrefix = "smartlock"
)

// browseFunc matches zeroconf.Resolver.Browse
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Scanner browses mDNS for lock servers
type Scanner struct {
	Timeout time.Duration

	// ServiceTypes are browsed concurrently
	ServiceTypes []string

	// newBrowse returns a browse bound to a fresh resolver
	newBrowse func() (browseFunc, error)
}

// NewScanner creates a scanner for both service types
func NewScanner() *Scanner {
	return &Scanner{
		Timeout:      DefaultScanTimeout,
		ServiceTypes: []string{LockServiceType, HTTPServiceType},
	}
}

// Scan runs a scan with the given timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Endpoint, error) {
	s := NewScanner()
	if timeout > 0 {
		s.Timeout = timeout
	}
	return s.Scan(ctx)
}

// Scan collects every lock server that answers before the timeout.
// Duplicate answers (same address from both service types) are merged.
func (s *Scanner) Scan(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		endpoints []*Endpoint
		seen      = make(map[string]bool)
	)
	err := s.run(ctx, cancel, func(ep *Endpoint) bool {
		mu.Lock()
		defer mu.Unlock()
		if key := ep.hostPort(); !seen[key] {
			seen[key] = true
			endpoints = append(endpoints, ep)
			logging.Debug("Found lock server", zap.String("endpoint", ep.String()))
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()
	mu.Lock()
	defer mu.Unlock()
	return endpoints, nil
}

// First returns the first lock server to answer
func (s *Scanner) First(ctx context.Context) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Endpoint, 1)
	err := s.run(ctx, cancel, func(ep *Endpoint) bool {
		select {
		case found <- ep:
		default:
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case ep := <-found:
		return ep, nil
	case <-ctx.Done():
		select {
		case ep := <-found:
			return ep, nil
		default:
		}
		return nil, fmt.Errorf("no lock server found within %v", s.Timeout)
	}
}

// run browses every service type and hands lock endpoints to accept. When
// accept returns false the scan is cancelled.
func (s *Scanner) run(ctx context.Context, cancel context.CancelFunc, accept func(*Endpoint) bool) error {
	newBrowse := s.newBrowse
	if newBrowse == nil {
		newBrowse = resolverBrowse
	}

	for _, service := range s.ServiceTypes {
		// Resolvers share their sockets between browses, so each service
		// type gets its own.
		browse, err := newBrowse()
		if err != nil {
			cancel()
			return fmt.Errorf("failed to create mDNS resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)
		go func() {
			for entry := range entries {
				if ep := parseServiceEntry(entry); ep != nil && !accept(ep) {
					cancel()
				}
			}
		}()

		if err := browse(ctx, service, ServiceDomain, entries); err != nil {
			close(entries)
			cancel()
			return fmt.Errorf("failed to browse for %s: %w", service, err)
		}
	}
	return nil
}

func resolverBrowse() (browseFunc, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return resolver.Browse, nil
}

// parseServiceEntry converts an entry to an Endpoint, or nil when the entry
// is not a lock server or has no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry == nil {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	isLock := strings.HasPrefix(entry.Service, LockServiceType) ||
		metadata["path"] == "/status" ||
		strings.HasPrefix(strings.ToLower(entry.Instance), instancePrefix)
	if !isLock {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Endpoint{
		Instance:     entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
