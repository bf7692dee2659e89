package crisis

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/broadcast"
	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type CrisisService interface {
	CreateCrisis(ctx context.Context, req *CreateCrisisRequest, reporterID string) (*Crisis, error)
	GetCrisisByID(ctx context.Context, id string) (*Crisis, error)
	GetAllCrises(ctx context.Context, status string) ([]*Crisis, error)
	GetNearbyCrises(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Crisis, error)
	AddUpdate(ctx context.Context, id string, req *AddUpdateRequest, actorID string) (*Crisis, error)
	ResolveCrisis(ctx context.Context, id string, actorID string) (*Crisis, error)
	DeleteCrisis(ctx context.Context, id string) error
}

type crisisService struct {
	crisisRepository CrisisRepository
	broadcaster      *broadcast.Broadcaster
	logger           *zap.SugaredLogger
}

func NewCrisisService(repo CrisisRepository, b *broadcast.Broadcaster, logger *zap.SugaredLogger) CrisisService {
	return &crisisService{
		crisisRepository: repo,
		broadcaster:      b,
		logger:           logger,
	}
}

func (s *crisisService) CreateCrisis(ctx context.Context, req *CreateCrisisRequest, reporterID string) (*Crisis, error) {
	if req.Description == "" {
		return nil, apperr.Validationf("description is required")
	}
	if len(req.Description) > 1000 {
		return nil, apperr.Validationf("description cannot be more than 1000 characters")
	}
	if reporterID == "" {
		return nil, apperr.Validationf("reporter is required")
	}
	if req.Radius < 0 {
		return nil, apperr.Validationf("radius cannot be negative")
	}

	crisisType := Type(req.Type)
	if req.Type == "" {
		crisisType = TypeOther
	}
	if !crisisType.Valid() {
		return nil, apperr.Validationf("invalid crisis type %q", req.Type)
	}

	severity := Severity(req.Severity)
	if req.Severity == "" {
		severity = SeverityMedium
	}
	if !severity.Valid() {
		return nil, apperr.Validationf("invalid severity %q", req.Severity)
	}

	point := geo.Point{Longitude: req.Longitude, Latitude: req.Latitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "meters"
	}
	if unit != "meters" && unit != "kilometers" {
		return nil, apperr.Validationf("invalid unit %q", req.Unit)
	}

	now := time.Now().UTC()
	c := &Crisis{
		ID:           primitive.NewObjectID(),
		Type:         crisisType,
		Severity:     severity,
		Location:     geo.NewGeoJSON(point),
		Description:  req.Description,
		Status:       StatusActive,
		ReportedBy:   reporterID,
		AffectedArea: AffectedArea{Radius: req.Radius, Unit: unit},
		Media:        req.Media,
		Updates:      []Update{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.crisisRepository.Create(ctx, c); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create crisis")
	}

	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindCrisisUpdate, c.ID.Hex(), c)
	return c, nil
}

func (s *crisisService) GetCrisisByID(ctx context.Context, id string) (*Crisis, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid crisis ID")
	}

	c, err := s.crisisRepository.FindByID(ctx, objID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch crisis")
	}
	if c == nil {
		return nil, apperr.NotFoundf("crisis not found")
	}
	return c, nil
}

func (s *crisisService) GetAllCrises(ctx context.Context, status string) ([]*Crisis, error) {
	st := Status(status)
	if status != "" && st != StatusActive && st != StatusResolved && st != StatusArchived {
		return nil, apperr.Validationf("invalid crisis status %q", status)
	}

	crises, err := s.crisisRepository.FindAll(ctx, st)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list crises")
	}
	return crises, nil
}

func (s *crisisService) GetNearbyCrises(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Crisis, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		return nil, apperr.Validationf("radius must be positive")
	}

	crises, err := s.crisisRepository.FindNearby(ctx, point, maxDistanceMeters)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to query nearby crises")
	}
	return crises, nil
}

// AddUpdate appends one entry to the crisis's append-only update log and
// notifies the per-crisis topic.
func (s *crisisService) AddUpdate(ctx context.Context, id string, req *AddUpdateRequest, actorID string) (*Crisis, error) {
	if req.Content == "" {
		return nil, apperr.Validationf("content is required")
	}

	c, err := s.GetCrisisByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := Update{
		Timestamp: time.Now().UTC(),
		Content:   req.Content,
		UpdatedBy: actorID,
	}
	c.Updates = append(c.Updates, update)

	if err := s.crisisRepository.Update(ctx, c); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(broadcast.TopicCrisis(id), broadcast.KindCrisisUpdate, id, update)
	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindCrisisUpdate, id, update)
	return c, nil
}

// ResolveCrisis is a one-way transition from active to resolved.
func (s *crisisService) ResolveCrisis(ctx context.Context, id string, actorID string) (*Crisis, error) {
	c, err := s.GetCrisisByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, apperr.InvalidTransitionf("crisis is %s, only active crises can be resolved", c.Status)
	}

	c.Status = StatusResolved
	c.Updates = append(c.Updates, Update{
		Timestamp: time.Now().UTC(),
		Content:   "Crisis resolved",
		UpdatedBy: actorID,
	})

	if err := s.crisisRepository.Update(ctx, c); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(broadcast.TopicCrisis(id), broadcast.KindCrisisUpdate, id, c)
	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindCrisisUpdate, id, c)
	return c, nil
}

func (s *crisisService) DeleteCrisis(ctx context.Context, id string) error {
	c, err := s.GetCrisisByID(ctx, id)
	if err != nil {
		return err
	}
	return s.crisisRepository.Delete(ctx, c.ID)
}
