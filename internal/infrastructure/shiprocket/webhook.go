package shiprocket

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

var ErrInvalidWebhook = errors.New("shiprocket: invalid tracking payload")

// TrackingUpdate is a status push for one AWB
type TrackingUpdate struct {
	AWB        string
	Status     string
	OccurredAt time.Time
}

// VerifyWebhookToken compares the x-api-key header with the configured token
func VerifyWebhookToken(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// ParseTrackingWebhook reads the AWB and its current status
func ParseTrackingWebhook(body []byte) (*TrackingUpdate, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidWebhook
	}
	parsed := gjson.ParseBytes(body)
	u := &TrackingUpdate{
		AWB:    parsed.Get("awb").String(),
		Status: parsed.Get("current_status").String(),
	}
	if u.Status == "" {
		u.Status = parsed.Get("shipment_status").String()
	}
	if u.AWB == "" || u.Status == "" {
		return nil, ErrInvalidWebhook
	}
	u.OccurredAt = time.Now().UTC()
	if ts := parsed.Get("current_timestamp").String(); ts != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", ts, ist); err == nil {
			u.OccurredAt = t.UTC()
		}
	}
	return u, nil
}

var ist = time.FixedZone("IST", 5*3600+1800)
