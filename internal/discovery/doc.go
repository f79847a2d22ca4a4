// Package discovery locates lock servers on the local network over mDNS.
//
// A lock server is recognised when it advertises "_smartlock._tcp", or
// when an "_http._tcp" advertisement carries the TXT record path=/status
// or an instance name starting with "smartlock".
//
// # Usage Example
//
//	endpoints, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, ep := range endpoints {
//	    fmt.Println(ep.StatusURL())
//	}
//
// # Network Requirements
//
// Multicast must be allowed on the interface (UDP port 5353) and the lock
// server must be on the same network segment.
package discovery
