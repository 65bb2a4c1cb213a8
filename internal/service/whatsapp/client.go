// Package whatsapp talks to the WhatsApp Cloud API (Graph API) for outbound text messages and
// inbound media downloads.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrMissingMediaURL is returned when the media metadata response has no download URL.
var ErrMissingMediaURL = errors.New("media metadata has no url")

// Config holds the Graph API coordinates and credentials.
type Config struct {
	GraphURL   string
	APIVersion string
	PhoneID    string
	Token      string
	Timeout    time.Duration
}

// Client sends messages and downloads media using plain net/http.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Media is a downloaded binary plus the content type reported by the platform.
type Media struct {
	Data     []byte
	MimeType string
}

// NewClient creates a Client. A zero timeout falls back to 30 seconds.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cfg.GraphURL = strings.TrimRight(cfg.GraphURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// outboundText is the JSON body for POST /{phone-id}/messages.
type outboundText struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type mediaMetadata struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// SendText delivers a text message to a recipient. Non-2xx responses are errors.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := outboundText{MessagingProduct: "whatsapp", To: to, Type: "text"}
	payload.Text.Body = body

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[whatsapp] send to=%s status=%d body=%s", to, resp.StatusCode, string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("graph api returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DownloadMedia resolves a media id to its URL and fetches the binary.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) (*Media, error) {
	metaBody, err := c.get(ctx, c.cfg.GraphURL+"/"+c.cfg.APIVersion+"/"+mediaID)
	if err != nil {
		return nil, fmt.Errorf("fetch media metadata: %w", err)
	}

	var meta mediaMetadata
	if err := json.Unmarshal(metaBody, &meta); err != nil {
		return nil, fmt.Errorf("decode media metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, ErrMissingMediaURL
	}

	data, err := c.get(ctx, meta.URL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	log.Printf("[whatsapp] downloaded media id=%s mime=%s size=%d", mediaID, meta.MimeType, len(data))
	return &Media{Data: data, MimeType: meta.MimeType}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph api returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) messagesURL() string {
	return c.cfg.GraphURL + "/" + c.cfg.APIVersion + "/" + c.cfg.PhoneID + "/messages"
}
