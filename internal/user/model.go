package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
)

const (
	RoleReporter  = "reporter"
	RoleResponder = "responder"
	RoleAdmin     = "admin"
)

// User carries the identity and role backing the caller claim, plus an
// optional last-known location. Credential issuance lives elsewhere.
type User struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"`
	Location  *geo.GeoJSON       `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
