package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultTagColor = "#3B82F6"

type Tag struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TagName    string             `bson:"tag_name" json:"tagName"`
	Key        string             `bson:"name_key" json:"-"`
	Color      string             `bson:"color" json:"color"`
	UsageCount int64              `bson:"usage_count" json:"usageCount"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TagKey is the normalized form tag names are compared by: names are
// case-insensitive and unique per owner.
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTagNames trims names, drops empties and collapses names that
// share a key, keeping the first spelling.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := TagKey(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}

type CreateTagRequest struct {
	TagName string `json:"tagName" validate:"required,notblank"`
	Color   string `json:"color"`
}

type UpdateTagRequest struct {
	TagID   string  `query:"tagId" json:"-" validate:"required"`
	TagName *string `json:"tagName"`
	Color   *string `json:"color"`
}

type DeleteTagRequest struct {
	ID string `query:"id" validate:"required"`
}

// TagUsage is the recomputed reference count of a tag.
type TagUsage struct {
	TagID primitive.ObjectID `bson:"_id"`
	Count int64              `bson:"count"`
}

type ReconcileResult struct {
	Success      bool  `json:"success"`
	TagsChecked  int   `json:"tagsChecked"`
	TagsRepaired int   `json:"tagsRepaired"`
	Drift        int64 `json:"drift"`
}

type TagResponse struct {
	Success bool `json:"success"`
	Tag     *Tag `json:"tag"`
}

type TagList struct {
	Success bool   `json:"success"`
	Tags    []*Tag `json:"tags"`
}
