// Package client talks to the treescope daemon over its unix socket
// or TCP address.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/grovetools/treescope/errors"
	"github.com/grovetools/treescope/internal/server"
	"github.com/grovetools/treescope/pkg/models"
	"github.com/grovetools/treescope/pkg/tree"
)

// baseURL is the dummy host used for unix socket HTTP requests.
// The actual connection goes through the socket, not this URL.
const unixBaseURL = "http://unix"

// Client calls the daemon's HTTP API.
type Client struct {
	httpClient *http.Client
	network    string
	addr       string
}

// New creates a Client for a listen spec ("unix:<path>", "tcp:<addr>",
// or a bare socket path).
func New(listen string) *Client {
	network, addr := server.ParseListen(listen)

	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		network: network,
		addr:    addr,
	}
}

func (c *Client) baseURL() string {
	if c.network == "unix" {
		return unixBaseURL
	}
	return "http://" + c.addr
}

// GetTree fetches the current snapshot.
func (c *Client) GetTree(ctx context.Context) (*tree.Node, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL()+"/api/tree", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.DaemonNotRunning(c.addr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Message != "" {
			return nil, errors.New(errors.ErrCodeIOFailure, errResp.Message)
		}
		return nil, fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var snap tree.Node
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// IsRunning returns true if the daemon is available and responding.
func (c *Client) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL()+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close cleans up any resources used by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
