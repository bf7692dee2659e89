package shelter

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/broadcast"
	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type ShelterService interface {
	CreateShelter(ctx context.Context, req *CreateShelterRequest) (*Shelter, error)
	GetShelterByID(ctx context.Context, id string) (*Shelter, error)
	GetAllShelters(ctx context.Context, status string) ([]*Shelter, error)
	GetNearbyShelters(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Shelter, error)
	UpdateOccupancy(ctx context.Context, id string, req *UpdateOccupancyRequest) (*Shelter, error)
	UpdateShelterStatus(ctx context.Context, id string, req *UpdateShelterStatusRequest) (*Shelter, error)
	DeleteShelter(ctx context.Context, id string) error
}

type shelterService struct {
	shelterRepository ShelterRepository
	index             *geo.Index
	broadcaster       *broadcast.Broadcaster
	logger            *zap.SugaredLogger
}

func NewShelterService(repo ShelterRepository, index *geo.Index, b *broadcast.Broadcaster, logger *zap.SugaredLogger) ShelterService {
	return &shelterService{
		shelterRepository: repo,
		index:             index,
		broadcaster:       b,
		logger:            logger,
	}
}

func (s *shelterService) CreateShelter(ctx context.Context, req *CreateShelterRequest) (*Shelter, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if req.Manager == "" {
		return nil, apperr.Validationf("manager is required")
	}
	if req.Capacity < 1 {
		return nil, apperr.Validationf("capacity must be at least 1")
	}
	if len(req.Notes) > 1000 {
		return nil, apperr.Validationf("notes cannot be more than 1000 characters")
	}

	shelterType := Type(req.Type)
	if req.Type == "" {
		shelterType = TypeTemporary
	}
	if !shelterType.Valid() {
		return nil, apperr.Validationf("invalid shelter type %q", req.Type)
	}

	point := geo.Point{Longitude: req.Longitude, Latitude: req.Latitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sh := &Shelter{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Type:        shelterType,
		Location:    geo.NewGeoJSON(point),
		Capacity:    req.Capacity,
		HasMedical:  req.HasMedical,
		Facilities:  req.Facilities,
		ContactInfo: req.Contact,
		Status:      StatusActive,
		Manager:     req.Manager,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.shelterRepository.Create(ctx, sh); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create shelter")
	}

	if err := s.index.Upsert(sh.ID.Hex(), point); err != nil {
		s.logger.Errorf("Failed to index shelter %s: %v", sh.ID.Hex(), err)
	}

	return sh, nil
}

func (s *shelterService) GetShelterByID(ctx context.Context, id string) (*Shelter, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid shelter ID")
	}

	sh, err := s.shelterRepository.FindByID(ctx, objID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch shelter")
	}
	if sh == nil {
		return nil, apperr.NotFoundf("shelter not found")
	}
	return sh, nil
}

func (s *shelterService) GetAllShelters(ctx context.Context, status string) ([]*Shelter, error) {
	st := Status(status)
	if status != "" && !st.Valid() {
		return nil, apperr.Validationf("invalid shelter status %q", status)
	}

	shelters, err := s.shelterRepository.FindAll(ctx, st)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list shelters")
	}
	return shelters, nil
}

func (s *shelterService) GetNearbyShelters(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Shelter, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		return nil, apperr.Validationf("radius must be positive")
	}

	shelters, err := s.shelterRepository.FindNearby(ctx, point, maxDistanceMeters)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to query nearby shelters")
	}
	return shelters, nil
}

func (s *shelterService) UpdateOccupancy(ctx context.Context, id string, req *UpdateOccupancyRequest) (*Shelter, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid shelter ID")
	}

	sh, err := s.shelterRepository.UpdateOccupancy(ctx, objID, req.CurrentOccupancy)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindShelterCapacityUpdate, id, map[string]interface{}{
		"current_occupancy": sh.CurrentOccupancy,
		"available_spaces":  sh.AvailableSpaces(),
		"status":            sh.Status,
	})

	return sh, nil
}

func (s *shelterService) UpdateShelterStatus(ctx context.Context, id string, req *UpdateShelterStatusRequest) (*Shelter, error) {
	newStatus := Status(req.Status)
	if !newStatus.Valid() {
		return nil, apperr.Validationf("invalid shelter status %q", req.Status)
	}

	sh, err := s.GetShelterByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Status == newStatus {
		return sh, nil
	}

	sh.Status = newStatus
	if err := s.shelterRepository.Update(ctx, sh); err != nil {
		return nil, err
	}

	// Closed shelters are no longer dispatch candidates.
	if newStatus == StatusClosed || newStatus == StatusMaintenance {
		s.index.Remove(id)
	} else {
		_ = s.index.Upsert(id, sh.Location.Point())
	}

	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindShelterCapacityUpdate, id, map[string]interface{}{
		"current_occupancy": sh.CurrentOccupancy,
		"available_spaces":  sh.AvailableSpaces(),
		"status":            sh.Status,
	})

	return sh, nil
}

func (s *shelterService) DeleteShelter(ctx context.Context, id string) error {
	sh, err := s.GetShelterByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.shelterRepository.Delete(ctx, sh.ID); err != nil {
		return err
	}
	s.index.Remove(id)
	return nil
}
