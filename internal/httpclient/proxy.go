package httpclient

import (
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
)

// ProxyManager round-robins outgoing requests across a list of proxy
// URLs (spec §6.1 `-p host:port[:proto]`, repeatable). Kept essentially
// verbatim from the teacher's IdorPlus/pkg/client/proxy.go: it was
// already a general-purpose proxy rotator with no IDOR-specific logic.
type ProxyManager struct {
	proxies []*url.URL
	current uint64
	mu      sync.RWMutex
	enabled bool
}

// NewProxyManager builds a rotator from a list of proxy URLs
// (http://host:port, socks5://host:port, ...).
func NewProxyManager(proxyList []string) *ProxyManager {
	pm := &ProxyManager{
		proxies: make([]*url.URL, 0, len(proxyList)),
		enabled: len(proxyList) > 0,
	}
	for _, p := range proxyList {
		if u, err := url.Parse(p); err == nil {
			pm.proxies = append(pm.proxies, u)
		}
	}
	return pm
}

// GetNext returns the next proxy in rotation.
func (pm *ProxyManager) GetNext() *url.URL {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if len(pm.proxies) == 0 {
		return nil
	}
	idx := atomic.AddUint64(&pm.current, 1) - 1
	return pm.proxies[idx%uint64(len(pm.proxies))]
}

// GetProxyFunc returns a function suitable for http.Transport.Proxy, or
// nil when no proxies are configured.
func (pm *ProxyManager) GetProxyFunc() func(*http.Request) (*url.URL, error) {
	if !pm.enabled || len(pm.proxies) == 0 {
		return nil
	}
	return func(r *http.Request) (*url.URL, error) {
		return pm.GetNext(), nil
	}
}

func (pm *ProxyManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies)
}

func (pm *ProxyManager) IsEnabled() bool { return pm.enabled }
