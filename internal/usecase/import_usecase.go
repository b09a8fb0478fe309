package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
)

const (
	columnName    = "name"
	columnEmail   = "email"
	columnPhone   = "phone"
	columnCompany = "company"
	columnNotes   = "notes"
	columnTags    = "tags"

	tagSeparator = ";"
)

var importColumns = []string{columnName, columnEmail, columnPhone, columnCompany, columnNotes, columnTags}

type ImportUsecase interface {
	// Import creates one contact per valid CSV row, in file order. Row
	// problems are reported in the result and never abort the batch.
	Import(ctx context.Context, owner *models.User, r io.Reader) (*models.ImportResult, error)
}

type importUsecase struct {
	contacts   *contactUsecase
	activities ActivityUsecase
}

func NewImportUsecase(
	contactRepo mongodb.ContactRepository,
	tagRepo mongodb.TagRepository,
	activities ActivityUsecase,
) ImportUsecase {
	return &importUsecase{
		contacts:   NewContactUsecase(contactRepo, tagRepo, activities).(*contactUsecase),
		activities: activities,
	}
}

func (uc *importUsecase) Import(ctx context.Context, owner *models.User, r io.Reader) (*models.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("CSV file is empty")
	}
	if err != nil {
		return nil, models.NewValidationError("invalid CSV header: %v", err)
	}
	columns := indexColumns(header)
	if _, ok := columns[columnName]; !ok {
		return nil, models.NewValidationError("CSV must include name and email columns")
	}
	if _, ok := columns[columnEmail]; !ok {
		return nil, models.NewValidationError("CSV must include name and email columns")
	}

	result := &models.ImportResult{Errors: []models.ImportError{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		result.TotalRows++
		rowNum := result.TotalRows
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportError{
				Row:    rowNum,
				Reason: "malformed row",
				Data:   models.ImportRow{},
			})
			continue
		}

		row := buildRow(columns, record)
		outcome, reason := uc.importRow(ctx, owner, row)
		switch outcome {
		case models.RowSucceeded:
			result.Successful++
			continue
		case models.RowDuplicate:
			result.Duplicates++
		default:
			result.Failed++
		}
		result.Errors = append(result.Errors, models.ImportError{Row: rowNum, Reason: reason, Data: row})
	}

	log.Infow(ctx, "csv import finished",
		"total_rows", result.TotalRows,
		"successful", result.Successful,
		"failed", result.Failed,
		"duplicates", result.Duplicates,
	)
	if result.Successful > 0 {
		uc.activities.Record(ctx, ActivityEntry{
			Actor:      actorOf(owner),
			Action:     models.ActionBulkImport,
			EntityType: models.EntityContact,
			EntityName: fmt.Sprintf("%d contacts imported", result.Successful),
		})
	}
	return result, nil
}

func (uc *importUsecase) importRow(ctx context.Context, owner *models.User, row models.ImportRow) (models.RowOutcome, string) {
	name := row[columnName]
	email := normalizeEmail(row[columnEmail])
	if name == "" || email == "" {
		return models.RowFailed, models.ReasonMissingFields
	}
	if !isEmail(email) {
		return models.RowFailed, models.ReasonInvalidEmail
	}

	exists, err := uc.contacts.contactRepo.ExistsByEmail(ctx, owner.ID, email)
	if err != nil {
		log.Errorw(ctx, "failed to check contact email", "error", err)
		return models.RowFailed, "could not save contact"
	}
	if exists {
		return models.RowDuplicate, models.ReasonDuplicate
	}

	contact := &models.Contact{
		Name:    name,
		Email:   email,
		Phone:   row[columnPhone],
		Company: row[columnCompany],
		Notes:   row[columnNotes],
	}
	if _, err := uc.contacts.insertContact(ctx, owner.ID, contact, strings.Split(row[columnTags], tagSeparator)); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.RowDuplicate, models.ReasonDuplicate
		}
		log.Errorw(ctx, "failed to import contact", "error", err)
		return models.RowFailed, "could not save contact"
	}
	return models.RowSucceeded, ""
}

// indexColumns maps the known header names, trimmed and lower-cased, to
// their position. The first occurrence of a name wins.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.ToLower(strings.TrimSpace(h))
		if _, ok := columns[h]; !ok {
			columns[h] = i
		}
	}
	return columns
}

func buildRow(columns map[string]int, record []string) models.ImportRow {
	row := make(models.ImportRow, len(importColumns))
	for _, name := range importColumns {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			continue
		}
		row[name] = strings.TrimSpace(record[i])
	}
	return row
}
