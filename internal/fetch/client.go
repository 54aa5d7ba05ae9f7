package fetch

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ferrite-labs/ferrite/internal/config"
)

// Runner spawns external downloader tools on behalf of the client. The
// platform registry satisfies this through its resolved execute capability.
type Runner interface {
	// LookupTool resolves a tool name to an invocable command, reporting
	// false when the tool is not available.
	LookupTool(name string) (string, bool)
	// RunTool runs a command and returns its exit status.
	RunTool(name string, args ...string) (int, error)
}

// Request describes a single artifact download.
type Request struct {
	URL          string
	Dest         string        // destination file path; sidecars live beside it
	Cache        bool          // enable the conditional sidecar cache
	Timeout      time.Duration // per-attempt bound; zero uses the configured default
	UserAgent    string        // empty uses the configured default
	Proxy        string        // per-request proxy override
	ShowProgress bool
}

// Result reports a completed fetch.
type Result struct {
	Path      string
	FromCache bool
}

// Client is the conditional download client. It is not safe for concurrent
// use; callers serialize.
type Client struct {
	settings  config.Settings
	runner    Runner
	logger    *slog.Logger
	now       func() time.Time
	forceTool bool

	secureOnce sync.Once
	secureOK   bool
}

// Option configures a Client.
type Option func(*Client)

// WithRunner wires the external-downloader escape hatch.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithLogger sets the audit logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithNow sets the clock (useful for cache-window tests).
func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithForceTool makes every transfer go through the external downloader,
// bypassing the native backends. Used by the generic tool-fallback layer.
func WithForceTool() Option {
	return func(c *Client) { c.forceTool = true }
}

// New creates a Client with the given settings and options.
func New(settings config.Settings, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves req.URL into req.Dest. With caching enabled, a recorded
// failure inside the fail window is replayed without a network call; a fresh
// Last-Modified record triggers a metadata-only probe and skips the body
// transfer when the server reports the artifact unchanged.
func (c *Client) Fetch(req Request) (Result, error) {
	if req.URL == "" || req.Dest == "" {
		return Result{}, fmt.Errorf("fetch: url and destination path are required")
	}
	if req.Timeout == 0 {
		req.Timeout = c.settings.ConnectionTimeout
	}
	if req.UserAgent == "" {
		req.UserAgent = c.settings.UserAgent
	}

	if req.Cache {
		st := readSidecars(req.Dest)
		now := c.now()

		if st.Status != "" && !st.AttemptAt.IsZero() && now.Sub(st.AttemptAt) < c.settings.CacheFailTimeout {
			c.logger.Debug("replaying cached failure", "url", req.URL, "status", st.Status)
			return Result{}, &TransportError{URL: req.URL, Status: st.Status, Cached: true}
		}

		if st.Status == "" && st.LastModified != "" && !st.AttemptAt.IsZero() && now.Sub(st.AttemptAt) < c.settings.CacheTimeout {
			lm, err := c.transfer(http.MethodHead, req)
			if err != nil {
				c.recordFailure(req, err)
				return Result{}, err
			}
			if lm != "" && lm == st.LastModified {
				if err := writeAttempt(req.Dest, c.now()); err != nil {
					return Result{}, err
				}
				c.logger.Debug("artifact unchanged, served from cache", "url", req.URL)
				return Result{Path: req.Dest, FromCache: true}, nil
			}
			// Changed upstream: fall through to a full transfer.
		}
	}

	lastModified, err := c.transfer(http.MethodGet, req)
	if err != nil {
		c.recordFailure(req, err)
		return Result{}, err
	}
	if req.Cache {
		if err := writeSuccess(req.Dest, lastModified, c.now()); err != nil {
			return Result{}, err
		}
	}
	return Result{Path: req.Dest}, nil
}

// recordFailure persists a failed attempt so retries inside the fail window
// are short-circuited. Sidecar write errors must not mask the fetch error.
func (c *Client) recordFailure(req Request, err error) {
	if !req.Cache {
		return
	}
	if werr := writeFailure(req.Dest, failureStatus(err), c.now()); werr != nil {
		c.logger.Debug("recording failure sidecar", "error", werr)
	}
}

// transfer follows the redirect chain for one probe or transfer and returns
// the server's Last-Modified value (empty when none was reported). The loop
// guard records every URL visited in this chain; a revisit fails rather than
// looping, and chains are bounded only by the guard, not by a hop count.
func (c *Client) transfer(method string, req Request) (string, error) {
	visited := make(map[string]bool)
	cur := req.URL
	redirected := false

	for {
		if visited[cur] {
			return "", fmt.Errorf("%w: %s visited twice", ErrRedirectLoop, cur)
		}
		visited[cur] = true

		u, err := url.Parse(cur)
		if err != nil {
			return "", fmt.Errorf("parsing url %s: %w", cur, err)
		}

		switch u.Scheme {
		case "http", "https":
			if reason, secure := c.escapeReason(u.Scheme, req); reason != "" {
				c.logger.Debug("delegating to external downloader", "url", cur, "reason", reason)
				return c.externalTransfer(method, cur, req, secure)
			}
			location, lastModified, err := c.httpOnce(method, cur, req)
			if err != nil {
				return "", err
			}
			if location == "" {
				return lastModified, nil
			}
			next, err := u.Parse(location)
			if err != nil {
				return "", fmt.Errorf("parsing redirect location %q: %w", location, err)
			}
			cur = next.String()
			redirected = true

		case "ftp":
			return c.ftpOnce(method, u, req)

		default:
			if redirected {
				return "", &UnsupportedRedirectError{URL: cur}
			}
			return "", &UnsupportedSchemeError{Scheme: u.Scheme}
		}
	}
}

// escapeReason decides whether the native backend must be bypassed for this
// attempt. The second return marks the secure-transport-unavailable case,
// which carries its own error identity if the escape hatch also fails.
func (c *Client) escapeReason(scheme string, req Request) (reason string, secure bool) {
	if c.forceTool {
		return "external downloader forced", false
	}
	if scheme != "https" {
		return "", false
	}
	if config.NoProxy() {
		return "transparent proxy override", false
	}
	// The native TLS path does not proxy; an HTTPS proxy forces the tool.
	if req.Proxy != "" || config.ProxyFor("https") != "" {
		return "https proxy override", false
	}
	if !c.secureAvailable() {
		return "secure transport unavailable", true
	}
	return "", false
}

// secureAvailable reports whether native HTTPS can verify peers. With
// certificate checking disabled the native path is always usable. The system
// pool probe runs once per client.
func (c *Client) secureAvailable() bool {
	if !c.settings.CheckCertificates {
		return true
	}
	c.secureOnce.Do(func() {
		pool, err := x509.SystemCertPool()
		c.secureOK = err == nil && pool != nil
	})
	return c.secureOK
}
