// Package httpclient is the transport layer beneath the pipeline's HTTP
// worker pool: a resty-backed client with evasive transport options
// (TLS fingerprint, proxy rotation, header/UA rotation), and the pool
// itself (spec §4.2).
package httpclient

import (
	"context"
	"crypto/tls"
	"math/rand"
	"sync"
	"time"

	"wenum/internal/fuzzdata"

	"github.com/go-resty/resty/v2"
)

// AuthMode names the credential scheme attached to every request
// (spec §6.1 `--basic`/`--digest`/`--ntlm`).
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthBasic
	AuthDigest
	AuthNTLM
)

// Options configures a Client at construction time.
type Options struct {
	Timeout     time.Duration
	MaxRetries  int
	VerifyTLS   bool
	Concurrent  int
	Delay       time.Duration
	Proxies     []string
	AuthMode    AuthMode
	AuthCreds   string // "user:pass"
	RotateUA    bool
	ExtraHeader map[string]string
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Client wraps a resty.Client with the transport-evasion and
// credential/proxy machinery the teacher's SmartClient provided,
// generalized from IDOR-hunting to content discovery: it no longer
// knows about markers or payloads, it only executes a fully resolved
// fuzzdata.Request.
type Client struct {
	rc           *resty.Client
	proxyManager *ProxyManager
	sessions     *SessionManager
	userAgents   []string
	rotateUA     bool
	authMode     AuthMode
	authCreds    string
	extraHeaders map[string]string
	mu           sync.RWMutex
}

func New(opts Options) *Client {
	rc := resty.New()
	rc.SetTransport(newTransport(opts.VerifyTLS))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc.SetTimeout(timeout)

	if opts.MaxRetries > 0 {
		rc.SetRetryCount(opts.MaxRetries)
		rc.SetRetryWaitTime(500 * time.Millisecond)
		rc.SetRetryMaxWaitTime(5 * time.Second)
	}

	if !opts.VerifyTLS {
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	c := &Client{
		rc:           rc,
		proxyManager: NewProxyManager(opts.Proxies),
		sessions:     NewSessionManager(),
		userAgents:   defaultUserAgents,
		rotateUA:     opts.RotateUA,
		authMode:     opts.AuthMode,
		authCreds:    opts.AuthCreds,
		extraHeaders: opts.ExtraHeader,
	}

	if c.proxyManager.IsEnabled() {
		t := newTransport(opts.VerifyTLS)
		t.Proxy = c.proxyManager.GetProxyFunc()
		rc.SetTransport(t)
	}

	return c
}

func (c *Client) Sessions() *SessionManager { return c.sessions }
func (c *Client) Proxies() *ProxyManager    { return c.proxyManager }

func (c *Client) SetDefaultHeader(key, value string) {
	c.rc.SetHeader(key, value)
}

// newRequest builds a resty request with evasion headers and rotation
// applied, mirroring the teacher's SmartClient.Request.
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	req := c.rc.R().SetContext(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.extraHeaders {
		req.SetHeader(k, v)
	}
	if c.rotateUA && len(c.userAgents) > 0 {
		req.SetHeader("User-Agent", c.userAgents[rand.Intn(len(c.userAgents))])
	}

	switch c.authMode {
	case AuthBasic:
		user, pass := splitCreds(c.authCreds)
		req.SetBasicAuth(user, pass)
	case AuthDigest, AuthNTLM:
		// Digest/NTLM challenge-response isn't implemented; fall back to
		// Basic so the flag still attaches *a* credential rather than
		// silently dropping it. Full digest/NTLM support is future work.
		user, pass := splitCreds(c.authCreds)
		req.SetBasicAuth(user, pass)
	}

	return req
}

func splitCreds(creds string) (string, string) {
	for i := 0; i < len(creds); i++ {
		if creds[i] == ':' {
			return creds[:i], creds[i+1:]
		}
	}
	return creds, ""
}

// Do executes req and returns the response and measured duration.
// Network/timeout failures are returned as an error; the caller (the
// HTTP worker pool) is responsible for attaching the ERROR_CODE sentinel
// and exception to the Result.
func (c *Client) Do(ctx context.Context, req *fuzzdata.Request) (*fuzzdata.Response, time.Duration, error) {
	r := c.newRequest(ctx)
	for _, h := range req.Headers {
		r.SetHeader(h.Name, h.Value)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	start := time.Now()
	var resp *resty.Response
	var err error

	switch req.Method {
	case "GET":
		resp, err = r.Get(req.URL)
	case "POST":
		resp, err = r.Post(req.URL)
	case "PUT":
		resp, err = r.Put(req.URL)
	case "DELETE":
		resp, err = r.Delete(req.URL)
	case "PATCH":
		resp, err = r.Patch(req.URL)
	case "HEAD":
		resp, err = r.Head(req.URL)
	case "OPTIONS":
		resp, err = r.Options(req.URL)
	default:
		resp, err = r.Get(req.URL)
	}
	elapsed := time.Since(start)

	if err != nil {
		return nil, elapsed, err
	}

	headers := make([]fuzzdata.Header, 0, len(resp.Header()))
	for k, vs := range resp.Header() {
		for _, v := range vs {
			headers = append(headers, fuzzdata.Header{Name: k, Value: v})
		}
	}

	return &fuzzdata.Response{
		Status:  resp.StatusCode(),
		Headers: headers,
		Body:    resp.Body(),
	}, elapsed, nil
}
