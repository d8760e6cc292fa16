// ABOUTME: One-shot JSON-RPC over HTTP POST
// ABOUTME: Sends a single request to the player and decodes the typed result
package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spotlink/spotlink/internal/version"
	"github.com/spotlink/spotlink/pkg/protocol"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

// DefaultTimeout bounds a call when the caller passes no client.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Call posts one request to target and returns the decoded result. A server
// error comes back as *protocol.RPCError.
func Call(ctx context.Context, client *http.Client, target string, method protocol.Method, params any) (protocol.Result, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	url, err := spotlink.HTTPURL(target)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(protocol.NewRequest(0, method, params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s failed: HTTP %d", method, resp.StatusCode)
		}
		return nil, err
	}

	r, ok := msg.(*protocol.Response)
	if !ok {
		return nil, fmt.Errorf("%w: expected a response, got a notification", protocol.ErrMalformed)
	}
	if r.Error != nil {
		return nil, r.Error
	}
	if r.ID != 0 {
		return nil, fmt.Errorf("%w: response id %d does not match request", protocol.ErrMalformed, r.ID)
	}

	return protocol.DecodeResult(method, r.Result)
}
