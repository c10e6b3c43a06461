package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Email             string                  `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone             string                  `gorm:"type:varchar(20);not null;uniqueIndex"`
	PasswordHash      string                  `gorm:"type:varchar(255);not null"`
	Name              string                  `gorm:"type:varchar(200);not null"`
	Role              identity.Role           `gorm:"type:varchar(20);not null;index"`
	BusinessName      string                  `gorm:"type:varchar(200)"`
	GSTIN             string                  `gorm:"column:gstin;type:varchar(15)"`
	State             string                  `gorm:"type:varchar(100)"`
	City              string                  `gorm:"type:varchar(100)"`
	Pincode           string                  `gorm:"type:varchar(6)"`
	AddressLine       string                  `gorm:"type:text"`
	BankHolderName    string                  `gorm:"type:varchar(200)"`
	BankAccountNumber string                  `gorm:"type:varchar(20)"`
	BankIFSC          string                  `gorm:"column:bank_ifsc;type:varchar(11)"`
	Attribution       valueobject.Attribution `gorm:"type:jsonb;serializer:json"`
	IsVerified        bool                    `gorm:"not null;default:false"`
	IsActive          bool                    `gorm:"not null;default:true"`
	LastLoginAt       *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		Name:              m.Name,
		Role:              m.Role,
		BusinessProfile: identity.BusinessProfile{
			BusinessName: m.BusinessName,
			GSTIN:        m.GSTIN,
			State:        m.State,
			City:         m.City,
			Pincode:      m.Pincode,
			AddressLine:  m.AddressLine,
		},
		BankAccount: identity.BankAccount{
			HolderName:    m.BankHolderName,
			AccountNumber: m.BankAccountNumber,
			IFSC:          m.BankIFSC,
		},
		Attribution: m.Attribution,
		IsVerified:  m.IsVerified,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:             u.Email,
		Phone:             u.Phone,
		PasswordHash:      u.PasswordHash,
		Name:              u.Name,
		Role:              u.Role,
		BusinessName:      u.BusinessName,
		GSTIN:             u.GSTIN,
		State:             u.State,
		City:              u.City,
		Pincode:           u.Pincode,
		AddressLine:       u.AddressLine,
		BankHolderName:    u.BankAccount.HolderName,
		BankAccountNumber: u.BankAccount.AccountNumber,
		BankIFSC:          u.BankAccount.IFSC,
		Attribution:       u.Attribution,
		IsVerified:        u.IsVerified,
		IsActive:          u.IsActive,
		LastLoginAt:       u.LastLoginAt,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
