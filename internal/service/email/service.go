package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendAccessApproved(ctx context.Context, toEmail, fullName string, role domain.UserRole) error
	SendAccessRejected(ctx context.Context, toEmail, fullName string) error
}

type service struct {
	client *resend.Client
	config *config.Config
	logger *zap.Logger
}

func NewService(cfg *config.Config, logger *zap.Logger) Service {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &service{
		client: client,
		config: cfg,
		logger: logger,
	}
}

func (s *service) sendEmail(ctx context.Context, toEmail, subject, templateName string, data interface{}) error {
	if s.client == nil {
		s.logger.Debug("email delivery disabled", zap.String("to", toEmail), zap.String("subject", subject))
		return nil
	}

	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout.html", data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Citizen Registry <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}

	_, err = s.client.Emails.Send(params)
	return err
}

func (s *service) SendAccessApproved(ctx context.Context, toEmail, fullName string, role domain.UserRole) error {
	data := struct {
		Title string
		Name  string
		Role  domain.UserRole
		Link  string
	}{
		Title: "Access Request Approved",
		Name:  fullName,
		Role:  role,
		Link:  fmt.Sprintf("https://%s/login", s.config.Domain),
	}
	return s.sendEmail(ctx, toEmail, "Your registry access request was approved", "access_approved.html", data)
}

func (s *service) SendAccessRejected(ctx context.Context, toEmail, fullName string) error {
	data := struct {
		Title string
		Name  string
	}{
		Title: "Access Request Declined",
		Name:  fullName,
	}
	return s.sendEmail(ctx, toEmail, "Your registry access request was declined", "access_rejected.html", data)
}
