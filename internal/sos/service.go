package sos

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/broadcast"
	"crisis-service/internal/geo"
	"crisis-service/internal/team"
	"crisis-service/pkg/apperr"
)

// maxWriteRetries bounds the optimistic-concurrency retry loop: a losing
// transition re-reads and retries against the refreshed record, then
// surfaces Conflict when exhausted.
const maxWriteRetries = 3

type SOSService interface {
	CreateSOS(ctx context.Context, req *CreateSOSRequest, reporterID string) (*SOS, error)
	GetSOSByID(ctx context.Context, id string) (*SOS, error)
	GetAllSOS(ctx context.Context, filter ListFilter, page, limit int64) ([]*SOS, int64, error)
	GetNearbySOS(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*SOS, error)
	TransitionStatus(ctx context.Context, id string, newStatus Status, note, actorID string) (*SOS, error)
	AssignSOS(ctx context.Context, id, responderID, actorID string) (*SOS, error)
	GetStatistics(ctx context.Context, window *TimeWindow) (*Statistics, error)
}

type sosService struct {
	sosRepository  SOSRepository
	teamRepository team.TeamRepository
	broadcaster    *broadcast.Broadcaster
	logger         *zap.SugaredLogger
}

func NewSOSService(repo SOSRepository, teamRepo team.TeamRepository, b *broadcast.Broadcaster, logger *zap.SugaredLogger) SOSService {
	return &sosService{
		sosRepository:  repo,
		teamRepository: teamRepo,
		broadcaster:    b,
		logger:         logger,
	}
}

func (s *sosService) CreateSOS(ctx context.Context, req *CreateSOSRequest, reporterID string) (*SOS, error) {
	category := Category(req.Type)
	if req.Type == "" {
		category = CategoryOther
	}
	if !category.Valid() {
		return nil, apperr.Validationf("invalid SOS type %q", req.Type)
	}

	priority := Priority(req.Priority)
	if req.Priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validationf("invalid priority %q", req.Priority)
	}

	point := geo.Point{Longitude: req.Longitude, Latitude: req.Latitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	if req.Description == "" {
		return nil, apperr.Validationf("description is required")
	}
	if len(req.Description) > 1000 {
		return nil, apperr.Validationf("description cannot be more than 1000 characters")
	}

	peopleCount := req.PeopleCount
	if peopleCount == 0 {
		peopleCount = 1
	}
	if peopleCount < 1 {
		return nil, apperr.Validationf("people count must be at least 1")
	}

	var medicalInfo MedicalInfo
	if req.MedicalInfo != nil {
		medicalInfo = *req.MedicalInfo
	}

	now := time.Now().UTC()
	request := &SOS{
		ID:          primitive.NewObjectID(),
		UserID:      reporterID, // empty for anonymous reports
		Type:        category,
		Priority:    priority,
		Location:    geo.NewGeoJSON(point),
		Description: req.Description,
		PeopleCount: peopleCount,
		MedicalInfo: medicalInfo,
		Voice:       req.Voice,
		Video:       req.Video,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	request.AppendStatus(StatusPending, "SOS request created", reporterID)

	if err := s.sosRepository.Create(ctx, request); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create SOS request")
	}

	s.publish(request, broadcast.KindRequestCreated)
	return request, nil
}

func (s *sosService) GetSOSByID(ctx context.Context, id string) (*SOS, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid SOS ID")
	}
	return s.fetch(ctx, objID)
}

func (s *sosService) fetch(ctx context.Context, id primitive.ObjectID) (*SOS, error) {
	request, err := s.sosRepository.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch SOS request")
	}
	if request == nil {
		return nil, apperr.NotFoundf("SOS request not found")
	}
	return request, nil
}

func (s *sosService) GetAllSOS(ctx context.Context, filter ListFilter, page, limit int64) ([]*SOS, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validationf("invalid status filter %q", filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, apperr.Validationf("invalid type filter %q", filter.Type)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, 0, apperr.Validationf("invalid priority filter %q", filter.Priority)
	}

	requests, total, err := s.sosRepository.FindAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, err, "failed to list SOS requests")
	}
	return requests, total, nil
}

func (s *sosService) GetNearbySOS(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*SOS, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		return nil, apperr.Validationf("radius must be positive")
	}

	requests, err := s.sosRepository.FindNearby(ctx, point, maxDistanceMeters)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to query nearby SOS requests")
	}
	return requests, nil
}

// TransitionStatus applies one step of the state machine. The write is atomic
// per request through the version guard; a losing racer re-reads and retries.
func (s *sosService) TransitionStatus(ctx context.Context, id string, newStatus Status, note, actorID string) (*SOS, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid SOS ID")
	}
	if !newStatus.Valid() {
		return nil, apperr.Validationf("invalid status %q", newStatus)
	}

	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		request, err := s.fetch(ctx, objID)
		if err != nil {
			return nil, err
		}

		if !request.Status.CanTransitionTo(newStatus) {
			return nil, apperr.InvalidTransitionf("cannot transition from %s to %s", request.Status, newStatus)
		}

		var releaseTeam *primitive.ObjectID
		if newStatus.Terminal() && request.AssignedTo != nil {
			released := *request.AssignedTo
			releaseTeam = &released
			if newStatus == StatusCancelled {
				// assignedTo may persist on resolved for the audit trail,
				// but never on cancelled.
				request.AssignedTo = nil
			}
		}

		request.AppendStatus(newStatus, note, actorID)

		if err := s.sosRepository.Update(ctx, request); err != nil {
			if apperr.IsConflict(err) {
				continue
			}
			return nil, err
		}

		if releaseTeam != nil {
			s.releaseWithRetry(ctx, *releaseTeam, request.ID)
		}

		s.publish(request, broadcast.KindStatusChanged)
		return request, nil
	}

	return nil, apperr.Conflictf("SOS request %s is being modified concurrently, retries exhausted", id)
}

// AssignSOS binds a responder team to the request, moving it to inProgress if
// still pending. Team claim and request update form a compensating pair: if
// the request write loses its version race the claim is rolled back before
// retrying.
func (s *sosService) AssignSOS(ctx context.Context, id, responderID, actorID string) (*SOS, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validationf("invalid SOS ID")
	}
	teamID, err := primitive.ObjectIDFromHex(responderID)
	if err != nil {
		return nil, apperr.Validationf("invalid responder ID")
	}

	responder, err := s.teamRepository.FindByID(ctx, teamID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch responder team")
	}
	if responder == nil {
		return nil, apperr.NotFoundf("responder team not found")
	}

	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		request, err := s.fetch(ctx, objID)
		if err != nil {
			return nil, err
		}

		// Re-assigning the same responder is a no-op.
		if request.AssignedTo != nil && *request.AssignedTo == teamID {
			return request, nil
		}

		if request.Status != StatusPending && request.Status != StatusInProgress {
			return nil, apperr.InvalidTransitionf("cannot assign a request in status %s", request.Status)
		}
		if request.AssignedTo != nil {
			return nil, apperr.Conflictf("request already assigned to %s; release it first", request.AssignedTo.Hex())
		}

		if err := s.teamRepository.ClaimAssignment(ctx, teamID, request.ID); err != nil {
			return nil, err
		}

		request.AssignedTo = &teamID
		note := fmt.Sprintf("Assigned to team %s", responder.Name)
		if request.Status == StatusPending {
			request.AppendStatus(StatusInProgress, note, actorID)
		} else {
			request.AppendStatus(request.Status, note, actorID)
		}

		if err := s.sosRepository.Update(ctx, request); err != nil {
			// Roll the claim back so the pair stays consistent.
			if rerr := s.teamRepository.ReleaseAssignment(ctx, teamID, request.ID); rerr != nil {
				s.logger.Errorf("Failed to roll back claim of team %s for %s: %v", responderID, id, rerr)
			}
			if apperr.IsConflict(err) {
				continue
			}
			return nil, err
		}

		s.publish(request, broadcast.KindAssigned)
		return request, nil
	}

	return nil, apperr.Conflictf("SOS request %s is being modified concurrently, retries exhausted", id)
}

// releaseWithRetry frees the team once its request reached a terminal state.
// The release is idempotent, so retrying a transient write failure is safe;
// a team left busy on a closed request would never be dispatchable again.
func (s *sosService) releaseWithRetry(ctx context.Context, teamID, sosID primitive.ObjectID) {
	var err error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		if err = s.teamRepository.ReleaseAssignment(ctx, teamID, sosID); err == nil {
			return
		}
	}
	s.logger.Errorf("Failed to release team %s after terminal transition of %s: %v",
		teamID.Hex(), sosID.Hex(), err)
}

func (s *sosService) GetStatistics(ctx context.Context, window *TimeWindow) (*Statistics, error) {
	stats, err := s.sosRepository.Statistics(ctx, window)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to compute statistics")
	}
	return stats, nil
}

func (s *sosService) publish(request *SOS, kind string) {
	id := request.ID.Hex()
	s.broadcaster.Publish(broadcast.TopicGlobal, kind, id, request)
	s.broadcaster.Publish(broadcast.TopicSOS(id), kind, id, request)
}
