package user

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type UserService interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetAllUsers(ctx context.Context, role string) ([]*User, error)
	GetNearbyUsers(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*User, error)
	UpdateUserLocation(ctx context.Context, id string, point geo.Point) (*User, error)
}

type userService struct {
	userRepository UserRepository
	index          *geo.Index
}

func NewUserService(repo UserRepository, index *geo.Index) UserService {
	return &userService{userRepository: repo, index: index}
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid user ID")
	}

	u, err := s.userRepository.FindByID(ctx, objID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch user")
	}
	if u == nil {
		return nil, apperr.NotFoundf("user not found")
	}
	return u, nil
}

func (s *userService) GetAllUsers(ctx context.Context, role string) ([]*User, error) {
	users, err := s.userRepository.FindAll(ctx, role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list users")
	}
	return users, nil
}

// GetNearbyUsers finds people who last reported a position within the radius,
// nearest first. Responders use it to locate reporters around an incident.
func (s *userService) GetNearbyUsers(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*User, error) {
	matches, err := s.index.Query(point, maxDistanceMeters, nil)
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(matches))
	for _, match := range matches {
		objID, err := primitive.ObjectIDFromHex(match.ID)
		if err != nil {
			continue
		}
		u, err := s.userRepository.FindByID(ctx, objID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch nearby user")
		}
		if u != nil {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *userService) UpdateUserLocation(ctx context.Context, id string, point geo.Point) (*User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid user ID")
	}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepository.UpdateLocation(ctx, objID, geo.NewGeoJSON(point)); err != nil {
		return nil, err
	}
	_ = s.index.Upsert(id, point)

	return s.GetUserByID(ctx, id)
}
