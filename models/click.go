package models

import (
	"time"
)

// Marker types for geolocated clicks.
const (
	MarkerGPS = "gps"
	MarkerIP  = "ip"
)

// UrlClick is one recorded redirect event. Rows are append-only.
type UrlClick struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UrlID      uint      `json:"urlId" gorm:"not null;index"`
	IpAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	ClickedAt  time.Time `json:"clickedAt"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	MarkerType string    `json:"markerType"`
}
