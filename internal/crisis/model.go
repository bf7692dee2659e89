package crisis

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusArchived Status = "archived"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Type string

const (
	TypeNatural  Type = "natural"
	TypeMedical  Type = "medical"
	TypeFire     Type = "fire"
	TypeSecurity Type = "security"
	TypeOther    Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeNatural, TypeMedical, TypeFire, TypeSecurity, TypeOther:
		return true
	}
	return false
}

type AffectedArea struct {
	Radius float64 `bson:"radius" json:"radius"`
	Unit   string  `bson:"unit" json:"unit"`
}

type Media struct {
	Type    string `bson:"type" json:"type"`
	URL     string `bson:"url" json:"url"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

// Update is one entry of a crisis's append-only update log.
type Update struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Content   string    `bson:"content" json:"content"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// Crisis is a broader incident context. Nearby SOS requests correlate with it
// by proximity, not by foreign key.
type Crisis struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Type         Type               `bson:"type" json:"type"`
	Severity     Severity           `bson:"severity" json:"severity"`
	Location     geo.GeoJSON        `bson:"location" json:"location"`
	Description  string             `bson:"description" json:"description"`
	Status       Status             `bson:"status" json:"status"`
	ReportedBy   string             `bson:"reported_by" json:"reported_by"`
	AffectedArea AffectedArea       `bson:"affected_area" json:"affected_area"`
	Media        []Media            `bson:"media,omitempty" json:"media,omitempty"`
	Updates      []Update           `bson:"updates" json:"updates"`
	Version      int64              `bson:"version" json:"version"`
	DeletedAt    *time.Time         `bson:"deleted_at,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (c *Crisis) IsActive() bool {
	return c.Status == StatusActive
}
