package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"github.com/bookmarks/bookmarks/pkg/metrics"
	"github.com/bookmarks/bookmarks/pkg/queue"
)

// TargetResolver loads the entities of one target kind. IDs missing from the
// returned map are treated as deleted.
type TargetResolver func(ctx context.Context, ids []uint) (map[uint]interface{}, error)

// ActionLog is the append-only record of user activity.
type ActionLog struct {
	actions   ActionStore
	resolvers map[models.TargetKind]TargetResolver
	producer  EventPublisher
	logger    *logger.Logger
}

func NewActionLog(actions ActionStore, resolvers map[models.TargetKind]TargetResolver, producer EventPublisher, logger *logger.Logger) *ActionLog {
	return &ActionLog{
		actions:   actions,
		resolvers: resolvers,
		producer:  producer,
		logger:    logger,
	}
}

// UserTargets resolves user targets.
func UserTargets(users UserStore) TargetResolver {
	return func(ctx context.Context, ids []uint) (map[uint]interface{}, error) {
		found, err := users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]interface{}, len(found))
		for _, u := range found {
			out[u.ID] = u
		}
		return out, nil
	}
}

// ImageTargets resolves image targets.
func ImageTargets(images ImageStore) TargetResolver {
	return func(ctx context.Context, ids []uint) (map[uint]interface{}, error) {
		found, err := images.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[uint]interface{}, len(found))
		for _, img := range found {
			out[img.ID] = img
		}
		return out, nil
	}
}

// Record appends an action. target may be nil.
func (l *ActionLog) Record(ctx context.Context, actorID uint, verb string, target *models.Target) (*models.Action, error) {
	action := &models.Action{
		ActorID: actorID,
		Verb:    verb,
	}
	if target != nil {
		if _, ok := l.resolvers[target.Kind]; !ok || !target.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown target kind %q", ErrInvalidOperation, target.Kind)
		}
		kind, id := target.Kind, target.ID
		action.TargetKind = &kind
		action.TargetID = &id
	}

	if err := l.actions.Create(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to record action: %w", err)
	}
	metrics.ActionsRecorded.Inc()

	data := queue.ActionEventData{
		ActionID: action.ID,
		ActorID:  actorID,
		Verb:     verb,
	}
	if target != nil {
		data.TargetKind = string(target.Kind)
		data.TargetID = target.ID
	}
	l.publish(ctx, actorID, data)

	return action, nil
}

func (l *ActionLog) publish(ctx context.Context, actorID uint, data queue.ActionEventData) {
	event, err := queue.NewEvent(queue.EventActionRecorded, data)
	if err == nil {
		err = l.producer.Publish(ctx, strconv.FormatUint(uint64(actorID), 10), event)
	}
	if err != nil {
		l.logger.WithError(err).Error("Failed to publish action recorded event")
	}
}

// RecentExcluding returns the newest actions not performed by actorID.
func (l *ActionLog) RecentExcluding(ctx context.Context, actorID uint, limit int) ([]*models.Action, error) {
	actions, err := l.actions.RecentExcluding(ctx, actorID, limit)
	if err != nil {
		return nil, err
	}
	if err := l.resolveTargets(ctx, actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// RecentByActors returns the newest actions performed by any of actorIDs, never by excludeID.
func (l *ActionLog) RecentByActors(ctx context.Context, actorIDs []uint, excludeID uint, limit int) ([]*models.Action, error) {
	actions, err := l.actions.RecentByActors(ctx, actorIDs, excludeID, limit)
	if err != nil {
		return nil, err
	}
	if err := l.resolveTargets(ctx, actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// resolveTargets fills Action.Target with one bulk lookup per kind.
func (l *ActionLog) resolveTargets(ctx context.Context, actions []*models.Action) error {
	byKind := make(map[models.TargetKind][]uint)
	for _, a := range actions {
		if ref, ok := a.Ref(); ok {
			byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
		}
	}

	resolved := make(map[models.TargetKind]map[uint]interface{}, len(byKind))
	for kind, ids := range byKind {
		resolve, ok := l.resolvers[kind]
		if !ok {
			l.logger.WithField("target_kind", kind).Warn("No resolver for action target kind")
			continue
		}
		found, err := resolve(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to resolve %s targets: %w", kind, err)
		}
		resolved[kind] = found
	}

	for _, a := range actions {
		ref, ok := a.Ref()
		if !ok {
			continue
		}
		if target, ok := resolved[ref.Kind][ref.ID]; ok {
			a.Target = target
		}
	}
	return nil
}
