package models

import (
	"time"
)

// Token is a pre-provisioned credential that lets anonymous clients create
// short links on behalf of a company. RemainingUses never goes below zero.
type Token struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Value         string     `json:"value" gorm:"uniqueIndex;not null"`
	RemainingUses int        `json:"remainingUses" gorm:"not null;default:0"`
	CompanyID     uint       `json:"companyId" gorm:"not null;index"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}
