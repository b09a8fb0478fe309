package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

// multipart framing on top of the file itself
const multipartOverhead = 64 << 10

type ContactController interface {
	List(c echo.Context, query models.ContactQuery) (*models.ContactList, error)
	Get(c echo.Context, req models.GetContactRequest) (*models.ContactResponse, error)
	Create(c echo.Context, req models.CreateContactRequest) (*models.ContactResponse, error)
	Update(c echo.Context, req models.UpdateContactRequest) (*models.ContactResponse, error)
	Delete(c echo.Context, req models.DeleteContactRequest) error
	BulkDelete(c echo.Context, req models.BulkDeleteRequest) (*models.BulkDeleteResponse, error)
	// Import takes a multipart upload, so it is a plain echo handler.
	Import(c echo.Context) error
}

type contactController struct {
	contactUsecase usecase.ContactUsecase
	importUsecase  usecase.ImportUsecase
	maxFileBytes   int64
}

func NewContactController(
	cfg *config.Config,
	contactUsecase usecase.ContactUsecase,
	importUsecase usecase.ImportUsecase,
) ContactController {
	return &contactController{
		contactUsecase: contactUsecase,
		importUsecase:  importUsecase,
		maxFileBytes:   cfg.Import.MaxFileBytes,
	}
}

func (cc *contactController) List(c echo.Context, query models.ContactQuery) (*models.ContactList, error) {
	return cc.contactUsecase.List(c.Request().Context(), currentUser(c), query)
}

func (cc *contactController) Get(c echo.Context, req models.GetContactRequest) (*models.ContactResponse, error) {
	contact, err := cc.contactUsecase.Get(c.Request().Context(), currentUser(c), req.ID)
	if err != nil {
		return nil, err
	}
	return &models.ContactResponse{Success: true, Contact: contact}, nil
}

func (cc *contactController) Create(c echo.Context, req models.CreateContactRequest) (*models.ContactResponse, error) {
	contact, err := cc.contactUsecase.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.ContactResponse{Success: true, Contact: contact}, nil
}

func (cc *contactController) Update(c echo.Context, req models.UpdateContactRequest) (*models.ContactResponse, error) {
	contact, err := cc.contactUsecase.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.ContactResponse{Success: true, Contact: contact}, nil
}

func (cc *contactController) Delete(c echo.Context, req models.DeleteContactRequest) error {
	return cc.contactUsecase.Delete(c.Request().Context(), currentUser(c), req.ID)
}

func (cc *contactController) BulkDelete(c echo.Context, req models.BulkDeleteRequest) (*models.BulkDeleteResponse, error) {
	deleted, err := cc.contactUsecase.BulkDelete(c.Request().Context(), currentUser(c), req.IDs)
	if err != nil {
		return nil, err
	}
	return &models.BulkDeleteResponse{Success: true, DeletedCount: deleted}, nil
}

func (cc *contactController) Import(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, cc.maxFileBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.NewValidationError("file exceeds %d bytes", cc.maxFileBytes)
		}
		return models.NewValidationError("no file uploaded")
	}
	if !isCSVUpload(fh.Filename, fh.Header.Get(echo.HeaderContentType)) {
		return models.NewValidationError("only CSV files are allowed")
	}
	if fh.Size > cc.maxFileBytes {
		return models.NewValidationError("file exceeds %d bytes", cc.maxFileBytes)
	}

	file, err := fh.Open()
	if err != nil {
		return models.NewValidationError("could not read uploaded file")
	}
	defer file.Close()

	result, err := cc.importUsecase.Import(req.Context(), currentUser(c), file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &models.ImportResponse{
		Success: true,
		Message: "CSV processed successfully",
		Results: result,
	})
}

func isCSVUpload(filename, contentType string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv") ||
		strings.Contains(strings.ToLower(contentType), "csv")
}
