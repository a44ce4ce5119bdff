// Package gateway talks to an Evolution-style WhatsApp API. The protocol
// bridging itself lives entirely on the provider's side; this client only
// sends, edits and polls over its REST surface.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/sl"
)

// ErrGatewayRejected is wrapped around every non-2xx provider response.
var ErrGatewayRejected = errors.New("gateway rejected request")

type Client struct {
	http *http.Client
	log  *slog.Logger
}

func NewClient(timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log.With(sl.Module("gateway.evolution")),
	}
}

// Target identifies one instance on one provider deployment.
type Target struct {
	ApiURL             string
	ApiKey             string
	InstanceName       string
	ProviderType       string
	InstanceIDExternal string
}

// identifier picks the path segment the provider expects: cloud
// deployments address instances by external UUID, self-hosted by name.
func (t Target) identifier() string {
	if t.ProviderType == entity.ProviderCloud && t.InstanceIDExternal != "" {
		return t.InstanceIDExternal
	}
	return t.InstanceName
}

// baseURL strips a trailing slash and the /manager suffix some
// deployments hand out in their dashboard URL.
func (t Target) baseURL() string {
	u := strings.TrimSuffix(t.ApiURL, "/")
	return strings.TrimSuffix(u, "/manager")
}

type SendTextRequest struct {
	Number          string `json:"number"`
	Text            string `json:"text"`
	QuotedMessageID string `json:"quotedMessageId,omitempty"`
}

type SendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"` // URL or base64
	Mimetype  string `json:"mimetype,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

type SendResponse struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	Status string `json:"status"`
}

// SendText delivers a text message and returns the provider message id.
func (c *Client) SendText(ctx context.Context, t Target, req SendTextRequest) (*SendResponse, error) {
	endpoint := fmt.Sprintf("%s/message/sendText/%s", t.baseURL(), t.identifier())
	var resp SendResponse
	if err := c.post(ctx, t, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMedia delivers an image/audio/video/document message.
func (c *Client) SendMedia(ctx context.Context, t Target, req SendMediaRequest) (*SendResponse, error) {
	endpoint := fmt.Sprintf("%s/message/sendMedia/%s", t.baseURL(), t.identifier())
	var resp SendResponse
	if err := c.post(ctx, t, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type UpdateMessageRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
	Key    struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
}

// UpdateMessage edits an already-delivered message on the device side.
func (c *Client) UpdateMessage(ctx context.Context, t Target, remoteJid, messageID, newText string) error {
	req := UpdateMessageRequest{
		Number: strings.SplitN(remoteJid, "@", 2)[0],
		Text:   newText,
	}
	req.Key.RemoteJid = remoteJid
	req.Key.FromMe = true
	req.Key.ID = messageID

	endpoint := fmt.Sprintf("%s/chat/updateMessage/%s", t.baseURL(), t.identifier())
	return c.post(ctx, t, endpoint, req, nil)
}

type fetchProfileResponse struct {
	Name     string `json:"name"`
	PushName string `json:"pushName"`
}

// ProfileName asks the provider for a contact's display name. An empty
// string with a nil error means the provider knows no name either.
func (c *Client) ProfileName(ctx context.Context, t Target, number string) (string, error) {
	endpoint := fmt.Sprintf("%s/chat/fetchProfile/%s", t.baseURL(), t.identifier())

	var resp fetchProfileResponse
	payload := map[string]string{"number": number}
	if err := c.post(ctx, t, endpoint, payload, &resp); err != nil {
		return "", err
	}
	if resp.Name != "" {
		return resp.Name, nil
	}
	return resp.PushName, nil
}

type connectionStateResponse struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
	State string `json:"state"`
}

// ConnectionState polls the provider's connection-state endpoint and maps
// it onto the stored instance status values.
func (c *Client) ConnectionState(ctx context.Context, t Target) (string, error) {
	endpoint := fmt.Sprintf("%s/instance/connectionState/%s", t.baseURL(), t.identifier())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("gateway build request: %w", err)
	}
	req.Header.Set("apikey", t.ApiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway connection state: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d body=%q", ErrGatewayRejected, resp.StatusCode, string(body))
	}

	var state connectionStateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return "", fmt.Errorf("gateway decode state: %w body=%q", err, string(body))
	}

	raw := state.Instance.State
	if raw == "" {
		raw = state.State
	}
	switch raw {
	case "open":
		return entity.InstanceConnected, nil
	case "connecting":
		return entity.InstanceConnecting, nil
	default:
		return entity.InstanceDisconnected, nil
	}
}

func (c *Client) post(ctx context.Context, t Target, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", t.ApiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("gateway error response",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d body=%q", ErrGatewayRejected, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gateway decode response: %w body=%q", err, string(respBody))
	}
	return nil
}
