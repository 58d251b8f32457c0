package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/astralgarden/astral.garden/internal/platform/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mcpHTTPEnv holds env-parsed configuration for MCP HTTP transport.
type mcpHTTPEnv struct {
	AllowedHosts []string `env:"ASTRAL_GARDEN_MCP_ALLOWED_HOSTS" envSeparator:","`
}

const (
	// defaultHTTPAddr binds localhost-only so the default footprint stays
	// constrained to local development.
	defaultHTTPAddr = "localhost:8085"

	// defaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	defaultReadHeaderTimeout = 10 * time.Second

	// defaultShutdownTimeout is the maximum time to wait for graceful HTTP
	// server shutdown, long enough for in-flight tool calls to finish.
	defaultShutdownTimeout = 15 * time.Second
)

// HTTPTransport serves MCP over streamable HTTP. Session lifecycle and
// message framing are delegated to the SDK handler; this wrapper owns
// binding, host checks, health reporting, and shutdown.
type HTTPTransport struct {
	addr         string
	server       *mcp.Server
	allowedHosts map[string]struct{}
}

// NewHTTPTransportWithServer creates an HTTP transport serving the given
// MCP server. Hosts beyond localhost must be allowed explicitly via
// ASTRAL_GARDEN_MCP_ALLOWED_HOSTS.
func NewHTTPTransportWithServer(addr string, server *mcp.Server) *HTTPTransport {
	if addr == "" {
		addr = defaultHTTPAddr
	}
	var raw mcpHTTPEnv
	if err := config.ParseEnv(&raw); err != nil {
		log.Printf("mcp http transport env: %v", err)
	}
	allowed := make(map[string]struct{})
	for _, host := range raw.AllowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			allowed[host] = struct{}{}
		}
	}
	return &HTTPTransport{addr: addr, server: server, allowedHosts: allowed}
}

// hostAllowed reports whether the request Host header may reach the
// server. Local hosts are always allowed; anything else needs an entry in
// the allowed hosts list. Host checks are the DNS-rebinding guard for a
// server that binds localhost by default.
func (t *HTTPTransport) hostAllowed(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	_, ok := t.allowedHosts[host]
	return ok
}

func (t *HTTPTransport) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return t.server
	}, nil))
	mux.HandleFunc("/mcp/health", t.handleHealth)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.hostAllowed(r.Host) {
			http.Error(w, "host not allowed", http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start serves HTTP until the context is canceled, then shuts down
// gracefully.
func (t *HTTPTransport) Start(ctx context.Context) error {
	if t == nil || t.server == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	httpServer := &http.Server{
		Addr:              t.addr,
		Handler:           t.handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	log.Printf("mcp http transport listening on %s", t.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown mcp http transport: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp http transport: %w", err)
	}
}
