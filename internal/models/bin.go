package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// BinType identifies which sensor package a bin carries
type BinType int

const (
	// BinTypeOrganic bins report waste volumes into or_bin_values
	BinTypeOrganic BinType = 1
	// BinTypeFillLevel bins report fill level, co2, temperature and humidity into bin_values
	BinTypeFillLevel BinType = 2
)

// Valid reports whether t is a known bin type
func (t BinType) Valid() bool {
	return t == BinTypeOrganic || t == BinTypeFillLevel
}

// ParseBinType parses a bin type given as an integral number or numeric string
func ParseBinType(raw string) (BinType, error) {
	f, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(raw), `"`), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("invalid bin type %q", raw)
	}
	n := int(f)
	t := BinType(n)
	if !t.Valid() {
		return 0, fmt.Errorf("invalid bin type %d", n)
	}
	return t, nil
}

// Bin status labels as stored in smart_trash_bin.statut
const (
	StatusEmpty      = "empty"
	StatusAlmostFull = "almost full"
	StatusFull       = "full"
)

// Bin functionality labels
const (
	FunctionalityOK    = "ok"
	FunctionalityNotOK = "no ok"
)

// ClassifyFillLevel maps a fill level reading to a bin status.
// Above 80 is full, 50 through 80 inclusive is almost full, anything else is empty.
func ClassifyFillLevel(fillLevel float64) string {
	switch {
	case fillLevel > 80:
		return StatusFull
	case fillLevel >= 50:
		return StatusAlmostFull
	default:
		return StatusEmpty
	}
}

// ValidStatus reports whether s is one of the three status labels
func ValidStatus(s string) bool {
	return s == StatusEmpty || s == StatusAlmostFull || s == StatusFull
}

// ValidFunctionality reports whether s is a known functionality label
func ValidFunctionality(s string) bool {
	return s == FunctionalityOK || s == FunctionalityNotOK
}

// Bin represents the smart_trash_bin table
type Bin struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Reference     string    `gorm:"size:100;not null;uniqueIndex" json:"reference"`
	Type          BinType   `gorm:"not null;index" json:"type"`
	Functionality string    `gorm:"size:10;not null;default:ok" json:"functionality"`
	Statut        string    `gorm:"size:20;not null;default:empty" json:"statut"`
	Location      string    `gorm:"size:100" json:"location"` // "lat,lng"
	HospitalID    *uint     `gorm:"index" json:"hospital_id"` // nil means unassigned
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Hospital *Hospital `gorm:"foreignKey:HospitalID;constraint:OnDelete:SET NULL" json:"hospital,omitempty"`
}

// TableName specifies the table name for Bin model
func (Bin) TableName() string {
	return "smart_trash_bin"
}

// BinReading represents the bin_values table (fill-level sensor packages)
// Append-only: the current reading for a reference is the one with the highest ID.
type BinReading struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Reference   string    `gorm:"size:100;not null;index" json:"reference"`
	CO2Level    float64   `gorm:"column:co2_level;default:0" json:"co2_level"`
	Temperature float64   `gorm:"default:0" json:"temperature"`
	Humidity    float64   `gorm:"default:0" json:"humidity"`
	FillLevel   float64   `gorm:"default:0" json:"fill_level"`
	Timestamp   time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
}

// TableName specifies the table name for BinReading model
func (BinReading) TableName() string {
	return "bin_values"
}

// OrganicBinReading represents the or_bin_values table (waste volume sensor packages)
type OrganicBinReading struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Reference     string    `gorm:"size:100;not null;index" json:"reference"`
	ToxicWaste    float64   `gorm:"default:0" json:"toxic_waste"`
	NonToxicWaste float64   `gorm:"default:0" json:"non_toxic_waste"`
	OrganicWaste  float64   `gorm:"default:0" json:"organic_waste"`
	Timestamp     time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
}

// TableName specifies the table name for OrganicBinReading model
func (OrganicBinReading) TableName() string {
	return "or_bin_values"
}

// BinWithReading is a bin joined with its latest fill-level reading for dashboards
type BinWithReading struct {
	ID            uint       `json:"id"`
	Type          BinType    `json:"type"`
	Statut        string     `json:"statut"`
	Reference     string     `json:"reference"`
	Functionality string     `json:"functionality"`
	Location      string     `json:"location"`
	HospitalID    *uint      `json:"hospital_id"`
	CO2Level      *float64   `json:"co2_level"`
	Temperature   *float64   `json:"temperature"`
	Humidity      *float64   `json:"humidity"`
	FillLevel     *float64   `json:"fill_level"`
	Timestamp     *time.Time `json:"timestamp"`
}

// BinLocation is a bin position parsed from its location text
type BinLocation struct {
	ID  uint    `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LabelCount is a generic grouped count row
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
