package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityAction string

const (
	ActionCreate     ActivityAction = "create"
	ActionUpdate     ActivityAction = "update"
	ActionDelete     ActivityAction = "delete"
	ActionView       ActivityAction = "view"
	ActionBulkImport ActivityAction = "bulk_import"
	ActionBulkDelete ActivityAction = "bulk_delete"
)

func (a ActivityAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionBulkImport, ActionBulkDelete:
		return true
	}
	return false
}

type EntityType string

const (
	EntityContact EntityType = "contact"
	EntityTag     EntityType = "tag"
	EntityUser    EntityType = "user"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityContact, EntityTag, EntityUser:
		return true
	}
	return false
}

// Activity is an immutable audit entry. User is nil for anonymous actors.
type Activity struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User       *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Action     ActivityAction      `bson:"action" json:"action"`
	EntityType EntityType          `bson:"entity_type" json:"entityType"`
	EntityID   string              `bson:"entity_id,omitempty" json:"entityId,omitempty"`
	EntityName string              `bson:"entity_name" json:"entityName"`
	Timestamp  time.Time           `bson:"timestamp" json:"timestamp"`
}

type CreateActivityRequest struct {
	Action     ActivityAction `json:"action" validate:"required"`
	EntityType EntityType     `json:"entityType" validate:"required"`
	EntityID   string         `json:"entityId"`
	EntityName string         `json:"entityName" validate:"required"`
}

type ActivityQuery struct {
	EntityType EntityType `query:"entityType"`
	Limit      int        `query:"limit"`
}

type ActivityList struct {
	Success    bool        `json:"success"`
	Activities []*Activity `json:"activities"`
}

type ActivityResponse struct {
	Success  bool      `json:"success"`
	Activity *Activity `json:"activity"`
}
