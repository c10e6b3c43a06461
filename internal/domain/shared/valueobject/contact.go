package valueobject

import (
	"regexp"
	"strings"
)

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	nonDigits      = regexp.MustCompile(`[^0-9]`)
)

// IsValidPincode checks a six digit Indian postal code
func IsValidPincode(pin string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(pin))
}

// NormalizePhone converts Indian mobile numbers to E.164 (+91XXXXXXXXXX).
// Accepts 10 digit numbers, numbers with a leading 0, or with a 91 prefix.
// Returns false when the input is not a valid Indian mobile number.
func NormalizePhone(phone string) (string, bool) {
	digits := nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] < '6' {
		return "", false
	}
	return "+91" + digits, true
}

// WhatsAppID returns the phone without the leading plus, as the Cloud API expects
func WhatsAppID(e164 string) string {
	return strings.TrimPrefix(e164, "+")
}

// Address is a postal address used for shipping and billing
type Address struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Validate checks that the address can be shipped to
func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return errAddress("name is required")
	case strings.TrimSpace(a.Line1) == "":
		return errAddress("address line is required")
	case strings.TrimSpace(a.City) == "":
		return errAddress("city is required")
	case !IsValidPincode(a.Pincode):
		return errAddress("pincode must be 6 digits")
	}
	if _, ok := StateCodeFromName(a.State); !ok {
		return errAddress("unknown state")
	}
	if _, ok := NormalizePhone(a.Phone); !ok {
		return errAddress("phone must be a valid Indian mobile number")
	}
	return nil
}

// AddressError is returned by Address.Validate
type AddressError struct{ Reason string }

func (e *AddressError) Error() string { return "invalid address: " + e.Reason }

func errAddress(reason string) error { return &AddressError{Reason: reason} }
