// Package whatsapp is the WhatsApp Business Cloud API adapter
package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v21.0"
	signaturePrefix   = "sha256="
)

var ErrInvalidPayload = errors.New("whatsapp: invalid webhook payload")

// APIError is a Graph API error answer
type APIError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client sends messages through the Cloud API and verifies its webhooks
type Client struct {
	http        *resty.Client
	appSecret   string
	verifyToken string
}

// NewClient creates a client for one business phone number
func NewClient(cfg config.WhatsAppConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, marketing.ErrMessagingUnavailable
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	return &Client{
		http: resty.New().
			SetBaseURL(fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), version, cfg.PhoneNumberID)).
			SetAuthToken(cfg.AccessToken).
			SetTimeout(20*time.Second).
			SetHeader("Content-Type", "application/json"),
		appSecret:   cfg.AppSecret,
		verifyToken: cfg.VerifyToken,
	}, nil
}

// SendText sends a free-form text message
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                valueobject.WhatsAppID(to),
		"type":              "text",
		"text":              map[string]any{"preview_url": true, "body": body},
	})
}

// SendTemplate sends an approved template with positional body parameters
func (c *Client) SendTemplate(ctx context.Context, msg marketing.TemplateMessage) (string, error) {
	template := map[string]any{
		"name":     msg.Template,
		"language": map[string]string{"code": msg.Language},
	}
	if len(msg.Parameters) > 0 {
		params := make([]map[string]string, 0, len(msg.Parameters))
		for _, p := range msg.Parameters {
			params = append(params, map[string]string{"type": "text", "text": p})
		}
		template["components"] = []map[string]any{{"type": "body", "parameters": params}}
	}
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                valueobject.WhatsAppID(msg.To),
		"type":              "template",
		"template":          template,
	})
}

// SendDocument sends a document by public link
func (c *Client) SendDocument(ctx context.Context, to, url, filename, caption string) (string, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                valueobject.WhatsAppID(to),
		"type":              "document",
		"document":          map[string]string{"link": url, "filename": filename, "caption": caption},
	})
}

func (c *Client) send(ctx context.Context, payload map[string]any) (string, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post("/messages")
	if err != nil {
		return "", fmt.Errorf("whatsapp: send: %w", err)
	}
	parsed := gjson.ParseBytes(resp.Body())
	if resp.IsError() {
		return "", &APIError{
			StatusCode: resp.StatusCode(),
			Code:       parsed.Get("error.code").Int(),
			Message:    parsed.Get("error.message").String(),
		}
	}
	return parsed.Get("messages.0.id").String(), nil
}

// VerifySubscription answers the GET handshake
func (c *Client) VerifySubscription(mode, token string) bool {
	if mode != "subscribe" || c.verifyToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.verifyToken)) == 1
}

// VerifySignature checks X-Hub-Signature-256 against the raw body
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.appSecret == "" || !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	return hmac.Equal([]byte(Sign(body, c.appSecret)), []byte(signature))
}

// ParseInbound decodes the webhook body
func (c *Client) ParseInbound(body []byte) ([]marketing.InboundMessage, error) {
	return ParseInbound(body)
}

// Sign returns the X-Hub-Signature-256 value of body
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

var (
	_ marketing.Messenger      = (*Client)(nil)
	_ marketing.InboundChannel = (*Client)(nil)
)
