package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
)

// DefaultResolverURL is the service queried for handle resolution.
const DefaultResolverURL = "https://bsky.social"

const resolveHandleEndpoint = "/xrpc/com.atproto.identity.resolveHandle"

// XRPCResolver implements ports.HandleResolver against an XRPC identity service.
type XRPCResolver struct {
	baseURL string
	client  ports.HTTPClient
}

// NewXRPCResolver creates a resolver. An empty baseURL uses DefaultResolverURL.
func NewXRPCResolver(baseURL string, client ports.HTTPClient) *XRPCResolver {
	if baseURL == "" {
		baseURL = DefaultResolverURL
	}
	return &XRPCResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Resolve returns the DID currently bound to handle.
func (r *XRPCResolver) Resolve(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	endpoint := r.baseURL + resolveHandleEndpoint + "?handle=" + url.QueryEscape(handle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", handle, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("resolve %s: %w", handle, domain.ErrHandleNotFound)
	case resp.StatusCode/100 != 2:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("resolve %s: server returned %d: %s", handle, resp.StatusCode, string(body))
	}

	var out struct {
		DID string `json:"did"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("resolve %s: decode response: %w", handle, err)
	}
	if out.DID == "" {
		return "", fmt.Errorf("resolve %s: %w", handle, domain.ErrHandleNotFound)
	}
	return out.DID, nil
}
