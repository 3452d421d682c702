// Package client talks to the external instant-messaging gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GatewayClient sends one message at a time, fire-and-forget. The
// gateway acknowledges with 202; anything else is a send failure.
type GatewayClient struct {
	url    string
	client *http.Client
}

func NewGatewayClient(url string) *GatewayClient {
	return &GatewayClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send delivers one message to a guardian's phone. phone is digits
// only; the E.164-style plus prefix is added here. The returned string
// is the gateway's response body, kept for the audit log.
func (c *GatewayClient) Send(ctx context.Context, phone, message string) (string, error) {
	reqBody, err := json.Marshal(sendRequest{
		Phone:   "+" + phone,
		Message: message,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	return strings.TrimSpace(string(body)), nil
}
