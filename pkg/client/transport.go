package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Response is the raw result of a transport call.
type Response struct {
	Status int
	Data   json.RawMessage
}

// Transport is the generic resource-request capability the stores are
// built on. Implementations inject the base URL and bearer token.
type Transport interface {
	Request(ctx context.Context, method, path string, body any, query url.Values) (*Response, error)
}

// TokenStore holds the session's token pair.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	Set(access, refresh string)
	Clear()
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryTokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryTokenStore) Set(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()
}

// HTTPTransportConfig configures HTTPTransport.
type HTTPTransportConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the default http.Client when set.
	Client *http.Client
}

// HTTPTransport implements Transport over HTTP with a circuit breaker.
// A 401 from any call clears the token store so the session layer can
// observe the logout.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	tokens  TokenStore
	breaker *gobreaker.CircuitBreaker[*Response]
}

// NewHTTPTransport creates a transport rooted at cfg.BaseURL.
func NewHTTPTransport(cfg HTTPTransportConfig, tokens TokenStore) *HTTPTransport {
	httpClient := cfg.Client
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPTransport{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  httpClient,
		tokens:  tokens,
		breaker: breaker,
	}
}

// Request performs an HTTP call and decodes error payloads into the
// client error taxonomy.
func (t *HTTPTransport) Request(ctx context.Context, method, path string, body any, query url.Values) (*Response, error) {
	return t.breaker.Execute(func() (*Response, error) {
		return t.do(ctx, method, path, body, query)
	})
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any, query url.Values) (*Response, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := t.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &RequestError{Message: "could not reach the server"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Status: resp.StatusCode, Message: "could not read the response"}
	}

	if resp.StatusCode >= 400 {
		return nil, t.errorFrom(resp.StatusCode, data)
	}

	return &Response{Status: resp.StatusCode, Data: data}, nil
}

// errorFrom maps an error payload to the client error taxonomy. The
// server responds with {"error": code, "message": text}.
func (t *HTTPTransport) errorFrom(status int, data []byte) error {
	var payload struct {
		Code    string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &payload)

	message := payload.Message
	if message == "" {
		message = payload.Code
	}

	switch {
	case status == http.StatusUnauthorized:
		// The session is gone either way.
		t.tokens.Clear()
		if message == "" {
			message = "authentication required"
		}
		return &AuthError{Message: message}
	case status == http.StatusNotFound:
		return &NotFoundError{Message: message}
	default:
		return &RequestError{Status: status, Code: payload.Code, Message: message}
	}
}
