package models

import (
	"time"
)

type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	Tokens    []Token   `json:"tokens,omitempty" gorm:"foreignKey:CompanyID"`
	Urls      []Url     `json:"urls,omitempty" gorm:"foreignKey:CompanyID"`
}
