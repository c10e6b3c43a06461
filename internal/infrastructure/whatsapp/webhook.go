package whatsapp

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/tidwall/gjson"
)

// ParseInbound extracts user messages from a webhook notification. Status
// callbacks carry no messages and yield an empty slice. Non-text messages are
// reduced to whatever text they carry (button labels, list replies, captions).
func ParseInbound(body []byte) ([]marketing.InboundMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)
	if root.Get("object").String() != "whatsapp_business_account" {
		return nil, ErrInvalidPayload
	}

	var out []marketing.InboundMessage
	root.Get("entry").ForEach(func(_, entry gjson.Result) bool {
		entry.Get("changes").ForEach(func(_, change gjson.Result) bool {
			value := change.Get("value")
			names := make(map[string]string)
			value.Get("contacts").ForEach(func(_, c gjson.Result) bool {
				names[c.Get("wa_id").String()] = c.Get("profile.name").String()
				return true
			})
			value.Get("messages").ForEach(func(_, m gjson.Result) bool {
				from := m.Get("from").String()
				phone, ok := valueobject.NormalizePhone(from)
				if !ok {
					phone = "+" + from
				}
				msg := marketing.InboundMessage{
					ProviderID:  m.Get("id").String(),
					From:        phone,
					ProfileName: names[from],
					Body:        messageText(m),
					ReceivedAt:  time.Now().UTC(),
				}
				if ts := m.Get("timestamp").Int(); ts > 0 {
					msg.ReceivedAt = time.Unix(ts, 0).UTC()
				}
				out = append(out, msg)
				return true
			})
			return true
		})
		return true
	})
	return out, nil
}

func messageText(m gjson.Result) string {
	switch m.Get("type").String() {
	case "text":
		return m.Get("text.body").String()
	case "button":
		return m.Get("button.text").String()
	case "interactive":
		if t := m.Get("interactive.button_reply.title"); t.Exists() {
			return t.String()
		}
		return m.Get("interactive.list_reply.title").String()
	case "image", "document", "video":
		return m.Get(m.Get("type").String() + ".caption").String()
	}
	return ""
}
