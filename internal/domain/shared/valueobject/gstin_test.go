package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidGSTIN(t *testing.T) {
	assert.True(t, IsValidGSTIN("27AAPFU0939F1ZV"))
	assert.True(t, IsValidGSTIN(" 29aagcb7383j1z4 "))
	assert.False(t, IsValidGSTIN("27AAPFU0939F1XV"), "14th char must be Z")
	assert.False(t, IsValidGSTIN("99AAPFU0939F1ZV"), "unknown state")
	assert.False(t, IsValidGSTIN("27AAPFU0939F1Z"))
	assert.False(t, IsValidGSTIN(""))
}

func TestStateCodeFromGSTIN(t *testing.T) {
	code, ok := StateCodeFromGSTIN("07AAACH7409R1ZZ")
	assert.True(t, ok)
	assert.Equal(t, "07", code)

	_, ok = StateCodeFromGSTIN("bogus")
	assert.False(t, ok)
}

func TestStateCodeFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Maharashtra", "27", true},
		{"  tamil   nadu ", "33", true},
		{"Jammu & Kashmir", "01", true},
		{"Orissa", "21", true},
		{"New Delhi", "07", true},
		{"27", "27", true},
		{"Atlantis", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := StateCodeFromName(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"9876543210":      "+919876543210",
		"+91 98765 43210": "+919876543210",
		"09876543210":     "+919876543210",
		"919876543210":    "+919876543210",
	}
	for in, want := range tests {
		got, ok := NormalizePhone(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := NormalizePhone("12345")
	assert.False(t, ok)
	_, ok = NormalizePhone("1234567890")
	assert.False(t, ok, "indian mobiles start with 6-9")
	assert.Equal(t, "919876543210", WhatsAppID("+919876543210"))
}

func TestAddress_Validate(t *testing.T) {
	valid := Address{Name: "Asha Traders", Phone: "9876543210", Line1: "12 MG Road", City: "Pune", State: "Maharashtra", Pincode: "411001"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Pincode = "01234"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.State = "Nowhere"
	var addrErr *AddressError
	assert.ErrorAs(t, bad.Validate(), &addrErr)
	assert.Equal(t, "unknown state", addrErr.Reason)
}
