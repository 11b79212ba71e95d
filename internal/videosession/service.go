package videosession

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/consultation"
	"github.com/hackgods/vet-consult-scheduling/internal/events"
	"github.com/hackgods/vet-consult-scheduling/internal/metrics"
)

type ConsultationReader interface {
	Get(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error)
}

// Service runs video sessions and publishes their lifecycle events. The
// consultation side reacts to those events; this service never writes it.
type Service struct {
	repo          Repository
	consultations ConsultationReader
	publisher     events.Publisher
	clock         calendar.Clock
	metrics       *metrics.SchedulingMetrics
	logger        zerolog.Logger
}

func NewService(repo Repository, consultations ConsultationReader, publisher events.Publisher, clock calendar.Clock, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		consultations: consultations,
		publisher:     publisher,
		clock:         clock,
		logger:        logger,
	}
}

func (s *Service) WithMetrics(m *metrics.SchedulingMetrics) *Service {
	s.metrics = m
	return s
}

// newRoomID returns 128 random bits as 32 hex chars.
func newRoomID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Create returns the consultation's live session if one exists, otherwise a
// new waiting session hosted by actor. created reports which happened.
func (s *Service) Create(ctx context.Context, actor auth.Actor, consultationID, participantID uuid.UUID) (sess *Session, created bool, err error) {
	c, err := s.consultations.Get(ctx, consultationID)
	if errors.Is(err, consultation.ErrConsultationNotFound) {
		return nil, false, apperrors.NotFound("consultation %s not found", consultationID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("load consultation: %w", err)
	}
	if !actor.IsAdmin() && !c.Participant(actor.UserID) {
		return nil, false, apperrors.Forbidden("consultation %s is not accessible", consultationID)
	}
	if c.Status.Closed() {
		return nil, false, apperrors.Validation("consultation %s is %s", consultationID, c.Status)
	}

	if live, err := s.repo.FindLive(ctx, consultationID); err == nil {
		return live, false, nil
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, false, fmt.Errorf("find live session: %w", err)
	}

	if participantID == uuid.Nil {
		participantID = c.PetOwnerID
		if actor.UserID == c.PetOwnerID {
			participantID = c.VeterinarianID
		}
	}
	room, err := newRoomID()
	if err != nil {
		return nil, false, err
	}

	sess, err = s.repo.Insert(ctx, Session{
		ID:                uuid.New(),
		ConsultationID:    consultationID,
		RoomID:            room,
		HostUserID:        actor.UserID,
		ParticipantUserID: participantID,
		Status:            StatusWaiting,
	})
	if errors.Is(err, ErrLiveSessionExists) {
		// lost a concurrent create; hand back the winner
		live, ferr := s.repo.FindLive(ctx, consultationID)
		if ferr != nil {
			return nil, false, fmt.Errorf("reload live session: %w", ferr)
		}
		return live, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.metrics.ObserveSessionTransition(string(StatusWaiting))
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("consultation_id", consultationID.String()).
		Msg("video session created")
	return sess, true, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) GetByConsultation(ctx context.Context, actor auth.Actor, consultationID uuid.UUID) (*Session, error) {
	sess, err := s.repo.LatestForConsultation(ctx, consultationID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperrors.NotFound("no video session for consultation %s", consultationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load video session: %w", err)
	}
	if err := authorize(actor, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) GetByRoom(ctx context.Context, actor auth.Actor, roomID string) (*Session, error) {
	sess, err := s.repo.GetByRoom(ctx, roomID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperrors.NotFound("video room %s not found", roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("load video session: %w", err)
	}
	if err := authorize(actor, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Join admits the host or participant. The first arrival starts a waiting room.
func (s *Service) Join(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Member(actor.UserID) {
		return nil, apperrors.Forbidden("only the host or participant can join this session")
	}
	switch sess.Status {
	case StatusEnded:
		return nil, apperrors.Validation("video session %s has ended", id)
	case StatusActive:
		return sess, nil
	}
	return s.start(ctx, sess)
}

// Start activates a waiting session. Starting an active session returns it
// unchanged.
func (s *Service) Start(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, sess); err != nil {
		return nil, err
	}
	switch sess.Status {
	case StatusActive:
		return sess, nil
	case StatusEnded:
		return nil, apperrors.Validation("video session %s has ended", id)
	}
	return s.start(ctx, sess)
}

func (s *Service) start(ctx context.Context, sess *Session) (*Session, error) {
	started, err := s.repo.Start(ctx, sess.ID, s.clock.Now())
	if errors.Is(err, ErrStatusChanged) {
		// another caller got there first
		current, lerr := s.load(ctx, sess.ID)
		if lerr != nil {
			return nil, lerr
		}
		if current.Status == StatusEnded {
			return nil, apperrors.Validation("video session %s has ended", sess.ID)
		}
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSessionTransition(string(StatusActive))
	s.publish(ctx, events.SessionStarted{
		SessionID:      started.ID,
		ConsultationID: started.ConsultationID,
		StartedAt:      *started.StartedAt,
	})
	return started, nil
}

// End closes the session. Ending an ended session returns it unchanged.
func (s *Service) End(ctx context.Context, actor auth.Actor, id uuid.UUID, recordingURL *string) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, sess); err != nil {
		return nil, err
	}
	if sess.Status == StatusEnded {
		return sess, nil
	}

	ended, err := s.repo.End(ctx, id, s.clock.Now(), recordingURL)
	if errors.Is(err, ErrStatusChanged) {
		return s.load(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSessionTransition(string(StatusEnded))
	s.publish(ctx, events.SessionEnded{
		SessionID:       ended.ID,
		ConsultationID:  ended.ConsultationID,
		EndedAt:         *ended.EndedAt,
		DurationSeconds: ended.DurationSeconds,
	})
	return ended, nil
}

// publish never fails the session transition; subscribers log their own work.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("event", ev.EventType()).
			Str("session_id", ev.AggregateID()).
			Msg("session event handlers failed")
	}
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperrors.NotFound("video session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load video session: %w", err)
	}
	return sess, nil
}

func authorize(actor auth.Actor, sess *Session) error {
	if actor.IsAdmin() || sess.Member(actor.UserID) {
		return nil
	}
	return apperrors.Forbidden("video session %s is not accessible", sess.ID)
}
