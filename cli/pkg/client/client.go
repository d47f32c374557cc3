package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/leadbridge/marketplace/cli/pkg/config"
	"github.com/leadbridge/marketplace/cli/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userAgent = "Leadbridge-CLI/0.1.0"

// SessionHeader carries the per-session id the server uses for view idempotency
const SessionHeader = "X-Session-ID"

var (
	httpClient *resty.Client
	sessionID  string
	mu         sync.Mutex
)

// Init initializes the HTTP client from configuration
func Init() {
	mu.Lock()
	defer mu.Unlock()

	baseURL := config.GetString("api.base_url")
	timeout := time.Duration(config.GetInt("api.timeout")) * time.Second
	httpClient = newClient(baseURL, timeout)
}

// InitWithBaseURL initializes the HTTP client against an explicit server
func InitWithBaseURL(baseURL string, timeout time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	httpClient = newClient(baseURL, timeout)
}

func newClient(baseURL string, timeout time.Duration) *resty.Client {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	c := resty.New()
	c.SetTransport(otelhttp.NewTransport(http.DefaultTransport))
	c.SetBaseURL(baseURL)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetHeader("User-Agent", userAgent)
	c.SetHeader(SessionHeader, sessionID)

	c.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})

	c.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "duration", resp.Time())
		return nil
	})

	return c
}

// GetClient returns the HTTP client
func GetClient() *resty.Client {
	mu.Lock()
	c := httpClient
	mu.Unlock()

	if c == nil {
		Init()
		mu.Lock()
		c = httpClient
		mu.Unlock()
	}
	return c
}

// SessionID returns the id sent with every request from this process
func SessionID() string {
	mu.Lock()
	defer mu.Unlock()
	return sessionID
}
