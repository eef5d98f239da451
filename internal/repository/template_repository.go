package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	var template domain.Template
	query := r.db.WithContext(ctx).
		Preload("Variables", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// variable definitions are replaced wholesale on update
		if err := tx.Where("template_id = ?", template.ID).Delete(&domain.VariableDefinition{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(template).Error
	})
}

func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Template{}, "id = ?", id).Error
}

// CountAgreements reports how many agreements reference a template. A
// template with generated agreements must not be deleted.
func (r *TemplateRepository) CountAgreements(ctx context.Context, templateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ServiceAgreement{}).
		Where("template_id = ?", templateID).Count(&count).Error
	return count, err
}

func (r *TemplateRepository) List(ctx context.Context, page, pageSize int, category, search string) ([]domain.Template, int64, error) {
	var templates []domain.Template
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Template{})
	query = ApplyCompanyFilter(ctx, query)

	if category != "" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Variables", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Offset(offset).Limit(pageSize).Order("updated_at DESC").
		Find(&templates).Error

	return templates, total, err
}

// Clone copies a template and its variable definitions under a new identity
// in a single transaction.
func (r *TemplateRepository) Clone(ctx context.Context, source *domain.Template, name string) (*domain.Template, error) {
	clone := &domain.Template{
		Name:        name,
		Description: source.Description,
		Category:    source.Category,
		Content:     source.Content,
		CompanyID:   source.CompanyID,
	}
	clone.Variables = make([]domain.VariableDefinition, len(source.Variables))
	for i, v := range source.Variables {
		clone.Variables[i] = domain.VariableDefinition{
			Name:         v.Name,
			DisplayName:  v.DisplayName,
			Type:         v.Type,
			Required:     v.Required,
			DefaultValue: v.DefaultValue,
			Source:       v.Source,
			MinValue:     v.MinValue,
			MaxValue:     v.MaxValue,
			Pattern:      v.Pattern,
			Options:      v.Options,
			Position:     v.Position,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(clone).Error
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}
