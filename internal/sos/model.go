package sos

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// transitions is the first-class state machine table: allowed-from mapped to
// the reachable set. Resolution must pass through inProgress; cancellation
// covers requests abandoned before any responder engaged.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusResolved, StatusCancelled},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

type Category string

const (
	CategoryMedical  Category = "medical"
	CategoryRescue   Category = "rescue"
	CategoryFire     Category = "fire"
	CategorySecurity Category = "security"
	CategoryFood     Category = "food"
	CategoryShelter  Category = "shelter"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMedical, CategoryRescue, CategoryFire, CategorySecurity,
		CategoryFood, CategoryShelter, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type MedicalInfo struct {
	HasInjuries       bool     `bson:"has_injuries" json:"has_injuries"`
	InjuryDescription string   `bson:"injury_description,omitempty" json:"injury_description,omitempty"`
	RequiresMedical   bool     `bson:"requires_medical" json:"requires_medical"`
	MedicalConditions []string `bson:"medical_conditions,omitempty" json:"medical_conditions,omitempty"`
}

// VoiceRef and VideoRef are opaque media references; the URLs are stored,
// never interpreted.
type VoiceRef struct {
	RecordingURL string    `bson:"recording_url" json:"recording_url"`
	Transcript   string    `bson:"transcript,omitempty" json:"transcript,omitempty"`
	UploadedAt   time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

type VideoRef struct {
	RecordingURL string    `bson:"recording_url" json:"recording_url"`
	UploadedAt   time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// StatusUpdate is one entry of the append-only status history.
type StatusUpdate struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Status    Status    `bson:"status" json:"status"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// SOS is one emergency call. Status always equals the status of the last
// StatusUpdates entry; the history is append-only and ordered by time.
// Requests are never hard-deleted.
type SOS struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	UserID        string              `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Type          Category            `bson:"type" json:"type"`
	Priority      Priority            `bson:"priority" json:"priority"`
	Location      geo.GeoJSON         `bson:"location" json:"location"`
	Description   string              `bson:"description" json:"description"`
	Status        Status              `bson:"status" json:"status"`
	PeopleCount   int64               `bson:"people_count" json:"people_count"`
	MedicalInfo   MedicalInfo         `bson:"medical_info" json:"medical_info"`
	AssignedTo    *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	StatusUpdates []StatusUpdate      `bson:"status_updates" json:"status_updates"`
	Voice         *VoiceRef           `bson:"voice,omitempty" json:"voice,omitempty"`
	Video         *VideoRef           `bson:"video,omitempty" json:"video,omitempty"`
	Version       int64               `bson:"version" json:"version"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

// AppendStatus records a transition in the history and updates the current
// status, preserving the history invariant.
func (s *SOS) AppendStatus(status Status, note, actorID string) {
	s.Status = status
	s.StatusUpdates = append(s.StatusUpdates, StatusUpdate{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Note:      note,
		UpdatedBy: actorID,
	})
}
