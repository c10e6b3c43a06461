package valueobject

import "strings"

// Attribution records where a visitor came from. Captured from landing page
// query parameters (utm_*, fbclid, gclid) and carried onto users and orders.
type Attribution struct {
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	FBCLID      string `json:"fbclid,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// IsEmpty reports whether no attribution data was captured
func (a Attribution) IsEmpty() bool {
	return a == Attribution{}
}

// Source returns the effective traffic source. Click IDs win over a missing
// utm_source so paid traffic without tagged URLs is still attributed.
func (a Attribution) Source() string {
	switch {
	case a.UTMSource != "":
		return strings.ToLower(a.UTMSource)
	case a.FBCLID != "":
		return "facebook"
	case a.GCLID != "":
		return "google"
	case a.Referrer != "":
		return "referral"
	}
	return "direct"
}

// Medium returns the effective medium, inferring "cpc" from click IDs
func (a Attribution) Medium() string {
	switch {
	case a.UTMMedium != "":
		return strings.ToLower(a.UTMMedium)
	case a.FBCLID != "", a.GCLID != "":
		return "cpc"
	case a.Referrer != "":
		return "referral"
	}
	return "none"
}

// Merge keeps the receiver's values and fills blanks from other
func (a Attribution) Merge(other Attribution) Attribution {
	pick := func(x, y string) string {
		if x != "" {
			return x
		}
		return y
	}
	return Attribution{
		UTMSource:   pick(a.UTMSource, other.UTMSource),
		UTMMedium:   pick(a.UTMMedium, other.UTMMedium),
		UTMCampaign: pick(a.UTMCampaign, other.UTMCampaign),
		UTMContent:  pick(a.UTMContent, other.UTMContent),
		UTMTerm:     pick(a.UTMTerm, other.UTMTerm),
		FBCLID:      pick(a.FBCLID, other.FBCLID),
		GCLID:       pick(a.GCLID, other.GCLID),
		LandingPage: pick(a.LandingPage, other.LandingPage),
		Referrer:    pick(a.Referrer, other.Referrer),
	}
}
