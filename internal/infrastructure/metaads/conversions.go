// Package metaads forwards purchases to the Meta Conversions API
package metaads

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v21.0"
)

var ErrNotConfigured = errors.New("metaads: pixel or access token missing")

// Client implements marketing.ConversionSink
type Client struct {
	http     *resty.Client
	pixelID  string
	token    string
	testCode string
}

// NewClient creates a Conversions API client. baseURL is empty outside tests.
func NewClient(cfg config.AdsConfig, baseURL string) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.MetaAPIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")+"/"+version).
			SetTimeout(10*time.Second).
			SetRetryCount(2),
		pixelID:  cfg.MetaPixelID,
		token:    cfg.MetaAccessToken,
		testCode: cfg.MetaTestCode,
	}, nil
}

// Send posts one server event
func (c *Client) Send(ctx context.Context, ev marketing.ConversionEvent) error {
	payload := map[string]any{"data": []any{buildEvent(ev)}}
	if c.testCode != "" {
		payload["test_event_code"] = c.testCode
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("access_token", c.token).
		SetPathParam("pixel", c.pixelID).
		SetBody(payload).
		Post("/{pixel}/events")
	if err != nil {
		return fmt.Errorf("metaads: send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("metaads: %d: %s", resp.StatusCode(), gjson.GetBytes(resp.Body(), "error.message").String())
	}
	return nil
}

func buildEvent(ev marketing.ConversionEvent) map[string]any {
	userData := map[string]any{}
	if ev.Email != "" {
		userData["em"] = []string{HashIdentifier(strings.ToLower(strings.TrimSpace(ev.Email)))}
	}
	if ev.Phone != "" {
		userData["ph"] = []string{HashIdentifier(digitsOnly(ev.Phone))}
	}
	if ev.FBCLID != "" {
		userData["fbc"] = ClickID(ev.FBCLID, time.Unix(ev.EventTime, 0))
	}

	custom := map[string]any{
		"currency": ev.Currency,
		"value":    ev.Value,
	}
	if len(ev.ContentIDs) > 0 {
		custom["content_ids"] = ev.ContentIDs
		custom["content_type"] = "product"
	}

	out := map[string]any{
		"event_name":    ev.EventName,
		"event_time":    ev.EventTime,
		"event_id":      ev.EventID,
		"action_source": "website",
		"user_data":     userData,
		"custom_data":   custom,
	}
	if ev.SourceURL != "" {
		out["event_source_url"] = ev.SourceURL
	}
	return out
}

// HashIdentifier is the lowercase hex SHA-256 Meta expects for user data
func HashIdentifier(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// ClickID formats an fbclid as the fbc parameter, fb.1.<unix ms>.<fbclid>
func ClickID(fbclid string, at time.Time) string {
	return fmt.Sprintf("fb.1.%d.%s", at.UnixMilli(), fbclid)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ marketing.ConversionSink = (*Client)(nil)
