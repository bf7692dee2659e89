package shelter

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusFull        Status = "full"
	StatusClosed      Status = "closed"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusFull, StatusClosed, StatusMaintenance:
		return true
	}
	return false
}

type Type string

const (
	TypeEmergency Type = "emergency"
	TypeTemporary Type = "temporary"
	TypePermanent Type = "permanent"
	TypeMedical   Type = "medical"
	TypeOther     Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEmergency, TypeTemporary, TypePermanent, TypeMedical, TypeOther:
		return true
	}
	return false
}

type ContactInfo struct {
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Shelter is a capacity-bounded resource. Occupancy never exceeds capacity;
// the repository enforces the bound on every mutation.
type Shelter struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Type             Type               `bson:"type" json:"type"`
	Location         geo.GeoJSON        `bson:"location" json:"location"`
	Capacity         int64              `bson:"capacity" json:"capacity"`
	CurrentOccupancy int64              `bson:"current_occupancy" json:"current_occupancy"`
	HasMedical       bool               `bson:"has_medical" json:"has_medical"`
	Facilities       []string           `bson:"facilities,omitempty" json:"facilities,omitempty"`
	ContactInfo      ContactInfo        `bson:"contact_info,omitempty" json:"contact_info,omitempty"`
	Status           Status             `bson:"status" json:"status"`
	Manager          string             `bson:"manager" json:"manager"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Version          int64              `bson:"version" json:"version"`
	DeletedAt        *time.Time         `bson:"deleted_at,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

func (s *Shelter) AvailableSpaces() int64 {
	return s.Capacity - s.CurrentOccupancy
}

func (s *Shelter) IsAvailable() bool {
	return s.Status == StatusActive && s.AvailableSpaces() > 0
}

// HasFacility reports whether the shelter is tagged for the given request
// category; medical requests additionally match the HasMedical flag.
func (s *Shelter) HasFacility(category string) bool {
	if category == "medical" && s.HasMedical {
		return true
	}
	for _, f := range s.Facilities {
		if f == category {
			return true
		}
	}
	return false
}
