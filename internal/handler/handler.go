package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/service"
)

type Handlers struct {
	Auth          *AuthHandler
	User          *UserHandler
	Registration  *RegistrationHandler
	AccessRequest *AccessRequestHandler
	Incident      *IncidentHandler
	Stats         *StatsHandler
	Dashboard     *DashboardHandler
	Report        *ReportHandler
	Reference     *ReferenceHandler
	Chat          *ChatHandler
	Audit         *AuditHandler
}

func NewHandlers(services *service.Services, hub *realtime.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(services.Identity),
		User:          NewUserHandler(services.User),
		Registration:  NewRegistrationHandler(services.Registration),
		AccessRequest: NewAccessRequestHandler(services.AccessRequest),
		Incident:      NewIncidentHandler(services.Incident),
		Stats:         NewStatsHandler(services.Stats, hub, services.Identity, services.User),
		Dashboard:     NewDashboardHandler(services.Dashboard),
		Report:        NewReportHandler(services.Report),
		Reference:     NewReferenceHandler(services.Refdata),
		Chat:          NewChatHandler(services.Chat, logger.Named("chat")),
		Audit:         NewAuditHandler(services.Audit),
	}
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.PaginationParams{Page: 1, PageSize: 20}

	if page := c.QueryInt("page", 1); page > 0 {
		params.Page = page
	}
	if pageSize := c.QueryInt("page_size", 20); pageSize > 0 {
		params.PageSize = pageSize
	}

	params.Validate()
	return params
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + name)
	}
	return id, nil
}

// formUpload opens the multipart file in field. The caller closes the
// returned reader.
func formUpload(c *fiber.Ctx, field string) (domain.Upload, io.Closer, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return domain.Upload{}, nil, middleware.BadRequest("File is required")
	}

	if file.Size > domain.MaxUploadSize {
		return domain.Upload{}, nil, middleware.NewError(fiber.StatusRequestEntityTooLarge, "File size must be less than 10MB")
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileReader, err := file.Open()
	if err != nil {
		return domain.Upload{}, nil, middleware.BadRequest("Failed to read file")
	}

	return domain.Upload{
		FileName: file.Filename,
		Size:     file.Size,
		MimeType: mimeType,
		Reader:   fileReader,
	}, fileReader, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
