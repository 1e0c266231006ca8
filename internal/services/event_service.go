package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"leavehub/internal/logger"
	"leavehub/internal/models"
)

// eventService persists workflow and ledger events for the
// notification/audit sink.
type eventService struct {
	db *gorm.DB
}

// NewEventService creates a new EventServicer.
func NewEventService(db *gorm.DB) EventServicer {
	return &eventService{db: db}
}

// Publish records an event with a JSON snapshot of the entity. Errors are
// logged but never propagate: event delivery must not roll back the
// operation that produced it.
func (s *eventService) Publish(actorID, action, entityType, entityID string, snapshot interface{}) {
	var snapshotJSON string
	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			logger.Get().Errorw("failed to marshal event snapshot", "error", err, "action", action)
			snapshotJSON = "{}"
		} else {
			snapshotJSON = string(data)
		}
	}

	event := &models.LeaveEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Snapshot:   snapshotJSON,
	}

	if err := s.db.Create(event).Error; err != nil {
		logger.Get().Errorw("failed to record leave event",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
		)
	}
}
