package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint is a lock server found on the network
type Endpoint struct {
	// Instance is the advertised service instance name
	Instance string

	// Host is the mDNS hostname (e.g., "frontdoor.local.")
	Host string

	// IP is the address, IPv4 preferred
	IP string

	Port int

	// Metadata holds the TXT record key/value pairs
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("Lock server %q (%s) at %s", e.Instance, e.Host, e.hostPort())
}

func (e *Endpoint) hostPort() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// BaseURL returns the HTTP base URL of the server
func (e *Endpoint) BaseURL() string {
	return "http://" + e.hostPort()
}

// StatusURL returns the status endpoint, honouring an advertised path
func (e *Endpoint) StatusURL() string {
	if p := e.GetMetadata("path"); p != "" && p != "/" {
		if p[0] != '/' {
			p = "/" + p
		}
		return e.BaseURL() + p
	}
	return e.BaseURL() + "/status"
}

// GetMetadata returns a TXT value, or "" if absent
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
