package team

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/broadcast"
	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type TeamService interface {
	CreateTeam(ctx context.Context, req *CreateTeamRequest) (*Team, error)
	GetTeamByID(ctx context.Context, id string) (*Team, error)
	GetAllTeams(ctx context.Context, status string) ([]*Team, error)
	UpdateTeamStatus(ctx context.Context, id string, req *UpdateTeamStatusRequest) (*Team, error)
	UpdateTeamLocation(ctx context.Context, id string, req *UpdateTeamLocationRequest) (*Team, error)
	DeleteTeam(ctx context.Context, id string) error
}

type teamService struct {
	teamRepository TeamRepository
	index          *geo.Index
	broadcaster    *broadcast.Broadcaster
	logger         *zap.SugaredLogger
}

func NewTeamService(repo TeamRepository, index *geo.Index, b *broadcast.Broadcaster, logger *zap.SugaredLogger) TeamService {
	return &teamService{
		teamRepository: repo,
		index:          index,
		broadcaster:    b,
		logger:         logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, req *CreateTeamRequest) (*Team, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	point := geo.Point{Longitude: req.Longitude, Latitude: req.Latitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Team{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Status:       StatusAvailable,
		Members:      req.Members,
		Vehicle:      req.Vehicle,
		Capabilities: req.Capabilities,
		Location:     geo.NewGeoJSON(point),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.teamRepository.Create(ctx, t); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create team")
	}

	if err := s.index.Upsert(t.ID.Hex(), point); err != nil {
		s.logger.Errorf("Failed to index team %s: %v", t.ID.Hex(), err)
	}

	return t, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id string) (*Team, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid team ID")
	}

	t, err := s.teamRepository.FindByID(ctx, objID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch team")
	}
	if t == nil {
		return nil, apperr.NotFoundf("team not found")
	}
	return t, nil
}

func (s *teamService) GetAllTeams(ctx context.Context, status string) ([]*Team, error) {
	st := Status(status)
	if status != "" && !st.Valid() {
		return nil, apperr.Validationf("invalid team status %q", status)
	}

	teams, err := s.teamRepository.FindAll(ctx, st)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list teams")
	}
	return teams, nil
}

// UpdateTeamStatus changes availability. Assignment state is owned by the SOS
// lifecycle engine, so a team holding an assignment cannot be flipped here.
func (s *teamService) UpdateTeamStatus(ctx context.Context, id string, req *UpdateTeamStatusRequest) (*Team, error) {
	newStatus := Status(req.Status)
	if !newStatus.Valid() {
		return nil, apperr.Validationf("invalid team status %q", req.Status)
	}
	if newStatus == StatusBusy {
		return nil, apperr.Validationf("busy is set by assignment, not directly")
	}

	t, err := s.GetTeamByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CurrentAssignment != nil {
		return nil, apperr.Conflictf("team has an active assignment; release it first")
	}
	if t.Status == newStatus {
		return t, nil
	}

	t.Status = newStatus
	if err := s.teamRepository.Update(ctx, t); err != nil {
		return nil, err
	}

	// Offline teams are not dispatch candidates; drop them from the index.
	if newStatus == StatusOffline {
		s.index.Remove(t.ID.Hex())
	} else {
		_ = s.index.Upsert(t.ID.Hex(), t.Location.Point())
	}
	return t, nil
}

func (s *teamService) UpdateTeamLocation(ctx context.Context, id string, req *UpdateTeamLocationRequest) (*Team, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid team ID")
	}
	point := geo.Point{Longitude: req.Longitude, Latitude: req.Latitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	if err := s.teamRepository.UpdateLocation(ctx, objID, geo.NewGeoJSON(point)); err != nil {
		return nil, err
	}

	if err := s.index.Upsert(id, point); err != nil {
		s.logger.Errorf("Failed to index team %s: %v", id, err)
	}

	s.broadcaster.Publish(broadcast.TopicGlobal, broadcast.KindTeamLocation, id, point)

	return s.GetTeamByID(ctx, id)
}

func (s *teamService) DeleteTeam(ctx context.Context, id string) error {
	t, err := s.GetTeamByID(ctx, id)
	if err != nil {
		return err
	}
	if t.CurrentAssignment != nil {
		return apperr.Conflictf("team has an active assignment; release it first")
	}

	if err := s.teamRepository.Delete(ctx, t.ID); err != nil {
		return err
	}
	s.index.Remove(id)
	return nil
}
