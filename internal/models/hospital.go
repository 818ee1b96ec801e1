package models

import (
	"fmt"
	"time"
)

// Hospital represents a hospital that owns zero or more bins
type Hospital struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Hospital model
func (Hospital) TableName() string {
	return "hospitals"
}

// Location renders the hospital position in the "lat,lng" form bins use
func (h Hospital) Location() string {
	return fmt.Sprintf("%g,%g", h.Lat, h.Lng)
}

// HospitalLocation is a hospital position for map views
type HospitalLocation struct {
	ID   uint    `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// HospitalDetails is a hospital with its bins counted by type
type HospitalDetails struct {
	Hospital Hospital       `json:"hospital"`
	Bins     []BinTypeCount `json:"bins"`
}

// BinTypeCount is the number of bins of one type
type BinTypeCount struct {
	Type  BinType `json:"type"`
	Count int64   `json:"count"`
}
