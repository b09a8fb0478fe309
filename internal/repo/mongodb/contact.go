package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error)
	ExistsByEmail(ctx context.Context, owner primitive.ObjectID, email string) (bool, error)
	// Update replaces the mutable fields of contact, matched by id and
	// owner, and returns the stored document.
	Update(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	FindByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Contact, error)
	DeleteByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	List(ctx context.Context, owner primitive.ObjectID, filter ContactFilter) (*PaginateWithTotal[models.Contact], error)
	// Recent returns contacts by last interaction, newest first.
	Recent(ctx context.Context, owner primitive.ObjectID, limit int64) ([]*models.Contact, error)
	Count(ctx context.Context, owner primitive.ObjectID) (int64, error)
	CountSince(ctx context.Context, owner primitive.ObjectID, since time.Time) (int64, error)
	Companies(ctx context.Context, owner primitive.ObjectID) ([]string, error)
	CountByCompany(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.CompanyCount, error)
	// TagUsage counts live references per tag id.
	TagUsage(ctx context.Context, owner primitive.ObjectID) ([]models.TagUsage, error)
}

type ContactFilter struct {
	Search  string
	TagID   *primitive.ObjectID
	Company string
	SortBy  string
	Desc    bool
	Skip    int64
	Limit   int64
}

var contactSortFields = map[string]string{
	"name":            "name",
	"email":           "email",
	"company":         "company",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"lastInteraction": "last_interaction",
}

type contactRepo struct {
	baseRepo[models.Contact]
}

func NewContactRepository(db *DB) ContactRepository {
	return &contactRepo{baseRepo: newBaseRepo[models.Contact](db, collContacts)}
}

func (r *contactRepo) Create(ctx context.Context, contact *models.Contact) error {
	if contact.Tags == nil {
		contact.Tags = []primitive.ObjectID{}
	}
	id, err := r.insert(ctx, contact)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	contact.ID = id
	return nil
}

func (r *contactRepo) GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error) {
	contact, err := r.findOne(ctx, bson.M{"_id": id, "created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

func (r *contactRepo) ExistsByEmail(ctx context.Context, owner primitive.ObjectID, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx,
		bson.M{"created_by": owner, "email": email},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check contact email: %w", err)
	}
	return n > 0, nil
}

func (r *contactRepo) Update(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	tags := contact.Tags
	if tags == nil {
		tags = []primitive.ObjectID{}
	}
	set := bson.M{
		"name":             contact.Name,
		"email":            contact.Email,
		"phone":            contact.Phone,
		"company":          contact.Company,
		"notes":            contact.Notes,
		"tags":             tags,
		"updated_at":       contact.UpdatedAt,
		"last_interaction": contact.LastInteraction,
	}
	updated, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": contact.ID, "created_by": contact.CreatedBy},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return updated, nil
}

func (r *contactRepo) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := r.deleteOne(ctx, bson.M{"_id": id, "created_by": owner}); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func (r *contactRepo) FindByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Contact, error) {
	contacts, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}, "created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepo) DeleteByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	n, err := r.deleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "created_by": owner})
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	return n, nil
}

func (r *contactRepo) List(ctx context.Context, owner primitive.ObjectID, f ContactFilter) (*PaginateWithTotal[models.Contact], error) {
	filter := bson.M{"created_by": owner}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"company": pattern},
			bson.M{"phone": pattern},
			bson.M{"notes": pattern},
		}
	}
	if f.TagID != nil {
		filter["tags"] = *f.TagID
	}
	if f.Company != "" {
		filter["company"] = f.Company
	}

	field, ok := contactSortFields[f.SortBy]
	if !ok {
		field = "created_at"
	}
	order := 1
	if f.Desc {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: order}, {Key: "_id", Value: order}})

	page, err := r.paginateWithTotal(ctx, filter, f.Limit, f.Skip, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return page, nil
}

func (r *contactRepo) Recent(ctx context.Context, owner primitive.ObjectID, limit int64) ([]*models.Contact, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_interaction", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	contacts, err := r.find(ctx, bson.M{"created_by": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepo) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	n, err := r.count(ctx, bson.M{"created_by": owner})
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return n, nil
}

func (r *contactRepo) CountSince(ctx context.Context, owner primitive.ObjectID, since time.Time) (int64, error) {
	n, err := r.count(ctx, bson.M{"created_by": owner, "created_at": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("failed to count new contacts: %w", err)
	}
	return n, nil
}

func (r *contactRepo) Companies(ctx context.Context, owner primitive.ObjectID) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "company", bson.M{"created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	companies := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			companies = append(companies, s)
		}
	}
	sort.Strings(companies)
	return companies, nil
}

func (r *contactRepo) CountByCompany(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.CompanyCount, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"created_by": owner}},
		bson.M{"$group": bson.M{
			"_id":   bson.M{"$ifNull": bson.A{"$company", ""}},
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
		bson.M{"$limit": limit},
	}
	counts, err := aggregate[models.CompanyCount](ctx, r.coll, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts by company: %w", err)
	}
	return counts, nil
}

func (r *contactRepo) TagUsage(ctx context.Context, owner primitive.ObjectID) ([]models.TagUsage, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"created_by": owner}},
		bson.M{"$unwind": "$tags"},
		bson.M{"$group": bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}},
	}
	usage, err := aggregate[models.TagUsage](ctx, r.coll, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tag usage: %w", err)
	}
	return usage, nil
}
