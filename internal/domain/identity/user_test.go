package identity

import (
	"testing"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManufacturer(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(RoleManufacturer, "Ravi", "Ravi@Example.com", "98765 43210", "secret123", BusinessProfile{
		BusinessName: "Ravi Textiles",
		GSTIN:        "27AAPFU0939F1ZV",
		Pincode:      "411001",
	})
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	t.Run("manufacturer starts unverified with derived state", func(t *testing.T) {
		u := newManufacturer(t)
		assert.Equal(t, "ravi@example.com", u.Email)
		assert.Equal(t, "+919876543210", u.Phone)
		assert.Equal(t, "Maharashtra", u.State)
		assert.False(t, u.IsVerified)
		assert.True(t, u.IsActive)
		assert.False(t, u.CanSell())
		assert.True(t, u.VerifyPassword("secret123"))
		assert.False(t, u.VerifyPassword("wrong"))
		require.Len(t, u.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeUserRegistered, u.GetDomainEvents()[0].EventType())
	})

	t.Run("retailer is verified immediately", func(t *testing.T) {
		u, err := NewUser(RoleRetailer, "Asha", "asha@example.com", "9123456780", "password1", BusinessProfile{State: "karnataka"})
		require.NoError(t, err)
		assert.True(t, u.IsVerified)
		assert.Equal(t, "Karnataka", u.State)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name    string
			role    Role
			email   string
			phone   string
			pass    string
			profile BusinessProfile
			code    string
		}{
			{"bad role", Role("guest"), "a@b.co", "9876543210", "secret123", BusinessProfile{}, "INVALID_ROLE"},
			{"bad email", RoleRetailer, "nope", "9876543210", "secret123", BusinessProfile{}, "INVALID_EMAIL"},
			{"bad phone", RoleRetailer, "a@b.co", "123", "secret123", BusinessProfile{}, "INVALID_PHONE"},
			{"short password", RoleRetailer, "a@b.co", "9876543210", "s1", BusinessProfile{}, "INVALID_PASSWORD"},
			{"no digit password", RoleRetailer, "a@b.co", "9876543210", "password", BusinessProfile{}, "INVALID_PASSWORD"},
			{"bad gstin", RoleRetailer, "a@b.co", "9876543210", "secret123", BusinessProfile{GSTIN: "XX"}, "INVALID_GSTIN"},
			{"state mismatch", RoleRetailer, "a@b.co", "9876543210", "secret123", BusinessProfile{GSTIN: "27AAPFU0939F1ZV", State: "Goa"}, "GSTIN_STATE_MISMATCH"},
			{"manufacturer without business", RoleManufacturer, "a@b.co", "9876543210", "secret123", BusinessProfile{}, "INVALID_BUSINESS_NAME"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewUser(tt.role, "Name", tt.email, tt.phone, tt.pass, tt.profile)
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.code, de.Code)
			})
		}
	})
}

func TestUser_Verify(t *testing.T) {
	u := newManufacturer(t)
	u.ClearDomainEvents()

	require.NoError(t, u.Verify())
	assert.True(t, u.CanSell())
	assert.Equal(t, EventTypeUserVerified, u.GetDomainEvents()[0].EventType())
	assert.Error(t, u.Verify())

	u.SetActive(false)
	assert.False(t, u.CanSell())
}

func TestUser_SetBankAccount(t *testing.T) {
	u := newManufacturer(t)

	err := u.SetBankAccount(BankAccount{HolderName: "Ravi", AccountNumber: "123456789012", IFSC: "hdfc0001234"})
	require.NoError(t, err)
	assert.Equal(t, "HDFC0001234", u.BankAccount.IFSC)
	assert.Equal(t, "XXXXXXXX9012", u.BankAccount.Masked().AccountNumber)

	assert.Error(t, u.SetBankAccount(BankAccount{HolderName: "Ravi", AccountNumber: "12", IFSC: "HDFC0001234"}))
	assert.Error(t, u.SetBankAccount(BankAccount{HolderName: "Ravi", AccountNumber: "123456789012", IFSC: "HDFC1001234"}))

	r, err := NewUser(RoleRetailer, "Asha", "asha@example.com", "9123456780", "password1", BusinessProfile{})
	require.NoError(t, err)
	assert.Error(t, r.SetBankAccount(BankAccount{HolderName: "A", AccountNumber: "123456789012", IFSC: "HDFC0001234"}))
}

func TestUser_StateCode(t *testing.T) {
	u := newManufacturer(t)
	code, ok := u.StateCode()
	assert.True(t, ok)
	assert.Equal(t, "27", code)

	u.State = ""
	code, ok = u.StateCode()
	assert.True(t, ok)
	assert.Equal(t, "27", code)

	u.GSTIN = ""
	_, ok = u.StateCode()
	assert.False(t, ok)
}
