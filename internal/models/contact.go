package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Contact struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Phone           string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Company         string               `bson:"company,omitempty" json:"company,omitempty"`
	Notes           string               `bson:"notes,omitempty" json:"notes,omitempty"`
	Tags            []primitive.ObjectID `bson:"tags" json:"-"`
	CreatedBy       primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	CreatedAt       time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updatedAt"`
	LastInteraction time.Time            `bson:"last_interaction" json:"lastInteraction"`
}

// ContactView is a contact with its tag references resolved. Unresolvable
// references are left out.
type ContactView struct {
	*Contact
	Tags []TagRef `json:"tags"`
}

type TagRef struct {
	ID      primitive.ObjectID `json:"_id"`
	TagName string             `json:"tagName"`
	Color   string             `json:"color"`
}

type CreateContactRequest struct {
	Name    string   `json:"name" validate:"required,notblank"`
	Email   string   `json:"email" validate:"required,notblank"`
	Phone   string   `json:"phone"`
	Company string   `json:"company"`
	Notes   string   `json:"notes"`
	Tags    []string `json:"tags"`
}

// UpdateContactRequest patches only the fields that are present. A present
// but empty Tags slice clears the contact's tags.
type UpdateContactRequest struct {
	ContactID string    `query:"contactId" json:"-" validate:"required"`
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Company   *string   `json:"company"`
	Notes     *string   `json:"notes"`
	Tags      *[]string `json:"tags"`
}

type ContactQuery struct {
	Search    string `query:"search"`
	Tag       string `query:"tag"`
	Company   string `query:"company"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

type ContactList struct {
	Success       bool          `json:"success"`
	Contacts      []ContactView `json:"contacts"`
	AvailableTags []*Tag        `json:"availableTags"`
	Pagination    Pagination    `json:"pagination"`
	Filters       ContactFilter `json:"filters"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasMore     bool  `json:"hasMore"`
}

type ContactFilter struct {
	UniqueCompanies []string `json:"uniqueCompanies"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type GetContactRequest struct {
	ID string `param:"id" validate:"required"`
}

type DeleteContactRequest struct {
	ID string `query:"id" validate:"required"`
}

type ContactResponse struct {
	Success bool         `json:"success"`
	Contact *ContactView `json:"contact"`
}

type BulkDeleteResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deletedCount"`
}
