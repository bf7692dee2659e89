package team

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Team is a mobile responder unit. Location is updated frequently and
// last-write-wins; CurrentAssignment mirrors the SOS request the team is
// handling and Status is busy exactly when it is set.
type Team struct {
	ID                primitive.ObjectID  `bson:"_id" json:"id"`
	Name              string              `bson:"name" json:"name"`
	Status            Status              `bson:"status" json:"status"`
	Members           []string            `bson:"members" json:"members"`
	Vehicle           string              `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	Capabilities      []string            `bson:"capabilities,omitempty" json:"capabilities,omitempty"`
	Location          geo.GeoJSON         `bson:"location" json:"location"`
	CurrentAssignment *primitive.ObjectID `bson:"current_assignment,omitempty" json:"current_assignment,omitempty"`
	Version           int64               `bson:"version" json:"version"`
	DeletedAt         *time.Time          `bson:"deleted_at,omitempty" json:"-"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updated_at"`
}

func (t *Team) IsAvailable() bool {
	return t.Status == StatusAvailable && t.CurrentAssignment == nil
}

// HasCapability reports whether the team is tagged for the given request
// category. Used for dispatch ranking only, never for exclusion.
func (t *Team) HasCapability(category string) bool {
	for _, c := range t.Capabilities {
		if c == category {
			return true
		}
	}
	return false
}
