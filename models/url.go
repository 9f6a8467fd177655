package models

import (
	"time"
)

// Url maps a generated short code to its target. CompanyID is nil for public
// links created without a company token.
type Url struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	LongUrl    string     `json:"longUrl" gorm:"not null"`
	ShortCode  string     `json:"shortUrl" gorm:"uniqueIndex;not null"`
	CompanyID  *uint      `json:"companyId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	ClickCount int        `json:"clickCount" gorm:"not null;default:0"`
	Clicks     []UrlClick `json:"clicks,omitempty" gorm:"foreignKey:UrlID"`
}
