package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"golang.org/x/crypto/bcrypt"
)

// Role is the account type of a user
type Role string

const (
	RoleRetailer     Role = "retailer"
	RoleManufacturer Role = "manufacturer"
	RoleAdmin        Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleRetailer, RoleManufacturer, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Password cost for bcrypt
const bcryptCost = 12

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	ifscRegex   = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	letterRegex = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

// BankAccount is where a manufacturer's payouts are sent
type BankAccount struct {
	HolderName    string `json:"holder_name"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// IsComplete reports whether every field is filled in
func (b BankAccount) IsComplete() bool {
	return b.HolderName != "" && b.AccountNumber != "" && b.IFSC != ""
}

// Masked returns the account with all but the last four digits hidden
func (b BankAccount) Masked() BankAccount {
	n := len(b.AccountNumber)
	if n > 4 {
		b.AccountNumber = strings.Repeat("X", n-4) + b.AccountNumber[n-4:]
	}
	return b
}

// BusinessProfile describes the business behind an account
type BusinessProfile struct {
	BusinessName string
	GSTIN        string
	State        string
	City         string
	Pincode      string
	AddressLine  string
}

// User is the aggregate root for marketplace accounts
type User struct {
	shared.BaseAggregateRoot
	Email        string
	Phone        string
	PasswordHash string
	Name         string
	Role         Role
	BusinessProfile
	BankAccount BankAccount
	Attribution valueobject.Attribution
	IsVerified  bool
	IsActive    bool
	LastLoginAt *time.Time
}

// NewUser validates input and creates a user with a hashed password.
// Retailers are verified immediately; manufacturers wait for an admin.
func NewUser(role Role, name, email, phone, password string, profile BusinessProfile) (*User, error) {
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be retailer, manufacturer or admin")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	normalizedPhone, ok := valueobject.NormalizePhone(phone)
	if !ok {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone must be a valid Indian mobile number")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Phone:             normalizedPhone,
		Name:              strings.TrimSpace(name),
		Role:              role,
		IsVerified:        role != RoleManufacturer,
		IsActive:          true,
	}
	if err := user.SetBusinessProfile(profile); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// SetBusinessProfile validates and stores the business profile. When the state
// is blank it is derived from the GSTIN prefix; when both are present they
// must agree.
func (u *User) SetBusinessProfile(p BusinessProfile) error {
	p.GSTIN = valueobject.NormalizeGSTIN(p.GSTIN)
	p.BusinessName = strings.TrimSpace(p.BusinessName)
	p.Pincode = strings.TrimSpace(p.Pincode)

	if p.GSTIN != "" && !valueobject.IsValidGSTIN(p.GSTIN) {
		return shared.NewDomainError("INVALID_GSTIN", "GSTIN format is invalid")
	}
	if p.Pincode != "" && !valueobject.IsValidPincode(p.Pincode) {
		return shared.NewDomainError("INVALID_PINCODE", "Pincode must be 6 digits")
	}

	gstState, hasGSTState := valueobject.StateCodeFromGSTIN(p.GSTIN)
	if strings.TrimSpace(p.State) == "" {
		if hasGSTState {
			p.State, _ = valueobject.StateName(gstState)
		}
	} else {
		code, ok := valueobject.StateCodeFromName(p.State)
		if !ok {
			return shared.NewDomainError("INVALID_STATE", "Unknown state")
		}
		if hasGSTState && code != gstState {
			return shared.NewDomainError("GSTIN_STATE_MISMATCH", "GSTIN does not belong to the given state")
		}
		p.State, _ = valueobject.StateName(code)
	}

	if u.Role == RoleManufacturer && p.BusinessName == "" {
		return shared.NewDomainError("INVALID_BUSINESS_NAME", "Manufacturers must provide a business name")
	}

	u.BusinessProfile = p
	u.Touch()
	return nil
}

// SetBankAccount stores payout bank details. Only manufacturers receive payouts.
func (u *User) SetBankAccount(acc BankAccount) error {
	if u.Role != RoleManufacturer {
		return shared.NewDomainError("NOT_A_MANUFACTURER", "Only manufacturers have payout accounts")
	}
	acc.IFSC = strings.ToUpper(strings.TrimSpace(acc.IFSC))
	acc.AccountNumber = strings.TrimSpace(acc.AccountNumber)
	acc.HolderName = strings.TrimSpace(acc.HolderName)
	if !acc.IsComplete() {
		return shared.NewDomainError("INVALID_BANK_ACCOUNT", "Holder name, account number and IFSC are required")
	}
	if !ifscRegex.MatchString(acc.IFSC) {
		return shared.NewDomainError("INVALID_IFSC", "IFSC format is invalid")
	}
	if len(acc.AccountNumber) < 9 || len(acc.AccountNumber) > 18 || digitRegex.ReplaceAllString(acc.AccountNumber, "") != "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Account number must be 9 to 18 digits")
	}
	u.BankAccount = acc
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetPassword hashes and stores a new password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Verify marks a manufacturer as approved to sell
func (u *User) Verify() error {
	if u.IsVerified {
		return shared.NewDomainError("ALREADY_VERIFIED", "User is already verified")
	}
	u.IsVerified = true
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserVerifiedEvent(u))
	return nil
}

// SetActive enables or disables login for the account
func (u *User) SetActive(active bool) {
	u.IsActive = active
	u.Touch()
	u.IncrementVersion()
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}

// CanSell reports whether the user may list products and receive orders
func (u *User) CanSell() bool {
	return u.Role == RoleManufacturer && u.IsVerified && u.IsActive
}

// StateCode resolves the GST state code of the business, preferring the
// explicit state and falling back to the GSTIN prefix
func (u *User) StateCode() (string, bool) {
	if code, ok := valueobject.StateCodeFromName(u.State); ok {
		return code, true
	}
	return valueobject.StateCodeFromGSTIN(u.GSTIN)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}
