package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/nordbooks/billing-api/internal/templating"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxTemplateNameLength bounds template and clone names
const maxTemplateNameLength = 200

// TemplateService manages agreement templates and their variable definitions
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	quoteRepo    *repository.QuoteRepository
	clientRepo   *repository.ClientRepository
	settingsRepo *repository.SettingsRepository
	usageService *UsageService
	logger       *zap.Logger
}

func NewTemplateService(
	templateRepo *repository.TemplateRepository,
	quoteRepo *repository.QuoteRepository,
	clientRepo *repository.ClientRepository,
	settingsRepo *repository.SettingsRepository,
	usageService *UsageService,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		quoteRepo:    quoteRepo,
		clientRepo:   clientRepo,
		settingsRepo: settingsRepo,
		usageService: usageService,
		logger:       logger,
	}
}

func (s *TemplateService) Create(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.Template, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	variables, err := buildVariableDefinitions(req.Variables)
	if err != nil {
		return nil, err
	}

	template := &domain.Template{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Content:     req.Content,
		CompanyID:   user.CompanyID,
		Variables:   variables,
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info("template created",
		zap.String("template_id", template.ID.String()),
		zap.String("name", template.Name),
		zap.Int("variables", len(template.Variables)),
	)
	return template, nil
}

func (s *TemplateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTemplateRequest) (*domain.Template, error) {
	template, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	variables, err := buildVariableDefinitions(req.Variables)
	if err != nil {
		return nil, err
	}
	for i := range variables {
		variables[i].TemplateID = template.ID
	}

	template.Name = req.Name
	template.Description = req.Description
	template.Category = req.Category
	template.Content = req.Content
	template.Variables = variables

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a template unless agreements were generated from it
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.templateRepo.CountAgreements(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTemplateInUse
	}
	return s.templateRepo.Delete(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, page, pageSize int, category, search string) ([]domain.Template, int64, error) {
	return s.templateRepo.List(ctx, page, pageSize, category, search)
}

// Clone copies a template under a new name
func (s *TemplateService) Clone(ctx context.Context, id uuid.UUID, name string) (*domain.Template, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: clone name is required", ErrInvalidInput)
	}
	if len(name) > maxTemplateNameLength {
		return nil, fmt.Errorf("%w: clone name exceeds %d characters", ErrInvalidInput, maxTemplateNameLength)
	}

	source, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clone, err := s.templateRepo.Clone(ctx, source, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("template cloned",
		zap.String("source_id", source.ID.String()),
		zap.String("clone_id", clone.ID.String()),
	)
	return clone, nil
}

// Preview renders a template without persisting anything. When a quote is
// given its data feeds the variable resolution; otherwise only overrides,
// defaults and display-name markers apply. Validation violations do not
// fail the call: they come back in the result so a caller can show the
// rendered draft alongside what still needs fixing. Preview records a
// usage event.
func (s *TemplateService) Preview(ctx context.Context, id uuid.UUID, req *domain.PreviewTemplateRequest) (*domain.PreviewResultDTO, error) {
	template, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var sourceValues map[string]templating.SourceValue
	now := time.Now().UTC()
	if req.QuoteID != nil {
		quote, err := s.quoteRepo.GetByID(ctx, *req.QuoteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: quote %s", ErrNotFound, req.QuoteID)
			}
			return nil, err
		}
		settings, err := s.settingsRepo.GetByID(ctx, quote.CompanyID)
		if err != nil {
			return nil, err
		}
		sourceValues = templating.SourceValues(quote, quote.Client, settings, now)
	} else {
		sourceValues = templating.SourceValues(nil, nil, nil, now)
	}

	res := templating.Resolve(template.Content, template.Variables, sourceValues, req.VariableOverrides, now)

	var validationErrors []string
	for _, verr := range templating.ValidateAll(template.Variables, res.Values()) {
		validationErrors = append(validationErrors, verr.Error())
	}

	outcome := domain.UsageOutcomeSuccess
	if len(validationErrors) > 0 {
		outcome = domain.UsageOutcomeFailure
	}
	s.usageService.RecordEvent(ctx, template.ID, nil, outcome)

	return &domain.PreviewResultDTO{
		Content:          templating.Substitute(template.Content, res.RenderValues()),
		Substitutions:    substitutionDTOs(res.Substitutions),
		MissingVariables: res.Missing,
		ValidationErrors: validationErrors,
	}, nil
}

func buildVariableDefinitions(reqs []domain.CreateVariableDefinitionRequest) ([]domain.VariableDefinition, error) {
	variables := make([]domain.VariableDefinition, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, req := range reqs {
		if !req.Type.IsValid() {
			return nil, fmt.Errorf("%w: unknown variable type %q", ErrInvalidInput, req.Type)
		}
		if _, dup := seen[req.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidInput, req.Name)
		}
		seen[req.Name] = struct{}{}

		source := req.Source
		if source == "" {
			source = domain.DataSourceUserInput
		}
		if !source.IsValid() {
			return nil, fmt.Errorf("%w: unknown data source %q", ErrInvalidInput, req.Source)
		}
		if req.Type == domain.VariableTypeEnum && len(req.Options) == 0 {
			return nil, fmt.Errorf("%w: enum variable %q needs options", ErrInvalidInput, req.Name)
		}

		variables[i] = domain.VariableDefinition{
			Name:         req.Name,
			DisplayName:  req.DisplayName,
			Type:         req.Type,
			Required:     req.Required,
			DefaultValue: req.DefaultValue,
			Source:       source,
			MinValue:     req.MinValue,
			MaxValue:     req.MaxValue,
			Pattern:      req.Pattern,
			Options:      req.Options,
			Position:     i,
		}
	}
	return variables, nil
}
