package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type ClientDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  string    `json:"createdAt"` // ISO 8601
	UpdatedAt  string    `json:"updatedAt"` // ISO 8601
}

type LineItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	Taxable     bool      `json:"taxable"`
	Amount      float64   `json:"amount"`
	Position    int       `json:"position"`
}

type QuoteDTO struct {
	ID               uuid.UUID     `json:"id"`
	QuoteNumber      string        `json:"quoteNumber,omitempty"` // e.g. "QTE-2024-0007"
	Status           QuoteStatus   `json:"status"`
	OwnerID          string        `json:"ownerId"`
	ClientID         uuid.UUID     `json:"clientId"`
	ClientName       string        `json:"clientName,omitempty"`
	Title            string        `json:"title"`
	Items            []LineItemDTO `json:"items"`
	Subtotal         float64       `json:"subtotal"`
	TaxAmount        float64       `json:"taxAmount"`
	Total            float64       `json:"total"`
	DepositPercent   float64       `json:"depositPercent"`
	DepositAmount    float64       `json:"depositAmount"`
	BalanceRemaining float64       `json:"balanceRemaining"`
	ValidUntil       *string       `json:"validUntil,omitempty"` // ISO 8601
	Notes            string        `json:"notes,omitempty"`
	Terms            string        `json:"terms,omitempty"`
	CreatedAt        string        `json:"createdAt"` // ISO 8601
	UpdatedAt        string        `json:"updatedAt"` // ISO 8601
}

type InvoiceDTO struct {
	ID                 uuid.UUID         `json:"id"`
	InvoiceNumber      string            `json:"invoiceNumber"` // e.g. "INV-2024-0007"
	Status             InvoiceStatus     `json:"status"`
	CreatedFromQuoteID uuid.UUID         `json:"createdFromQuoteId"`
	QuoteNumber        string            `json:"quoteNumber,omitempty"`
	ClientID           uuid.UUID         `json:"clientId"`
	ClientName         string            `json:"clientName,omitempty"`
	OwnerID            string            `json:"ownerId"`
	Subtotal           float64           `json:"subtotal"`
	TaxAmount          float64           `json:"taxAmount"`
	Total              float64           `json:"total"`
	DepositPercent     float64           `json:"depositPercent"`
	DepositAmount      float64           `json:"depositAmount"`
	BalanceRemaining   float64           `json:"balanceRemaining"`
	DueDate            *string           `json:"dueDate,omitempty"` // ISO 8601
	PaidAt             *string           `json:"paidAt,omitempty"`  // ISO 8601
	AutoGenerated      bool              `json:"autoGenerated"`
	AutomationTrigger  AutomationTrigger `json:"automationTrigger"`
	GeneratedAt        string            `json:"generatedAt"` // ISO 8601
	CreatedAt          string            `json:"createdAt"`   // ISO 8601
	UpdatedAt          string            `json:"updatedAt"`   // ISO 8601
}

type ServiceAgreementDTO struct {
	ID                 uuid.UUID         `json:"id"`
	AgreementNumber    string            `json:"agreementNumber"`
	Status             AgreementStatus   `json:"status"`
	CreatedFromQuoteID uuid.UUID         `json:"createdFromQuoteId"`
	QuoteNumber        string            `json:"quoteNumber,omitempty"`
	ClientID           uuid.UUID         `json:"clientId"`
	ClientName         string            `json:"clientName,omitempty"`
	OwnerID            string            `json:"ownerId"`
	TemplateID         uuid.UUID         `json:"templateId"`
	Content            string            `json:"content"`
	Subtotal           float64           `json:"subtotal"`
	TaxAmount          float64           `json:"taxAmount"`
	Total              float64           `json:"total"`
	DepositPercent     float64           `json:"depositPercent"`
	DepositAmount      float64           `json:"depositAmount"`
	BalanceRemaining   float64           `json:"balanceRemaining"`
	AutoGenerated      bool              `json:"autoGenerated"`
	AutomationTrigger  AutomationTrigger `json:"automationTrigger"`
	GeneratedAt        string            `json:"generatedAt"` // ISO 8601
	CreatedAt          string            `json:"createdAt"`   // ISO 8601
	UpdatedAt          string            `json:"updatedAt"`   // ISO 8601
}

type VariableDefinitionDTO struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	DisplayName  string       `json:"displayName"`
	Type         VariableType `json:"type"`
	Required     bool         `json:"required"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Source       DataSource   `json:"source"`
	MinValue     *float64     `json:"minValue,omitempty"`
	MaxValue     *float64     `json:"maxValue,omitempty"`
	Pattern      string       `json:"pattern,omitempty"`
	Options      []string     `json:"options,omitempty"`
	Position     int          `json:"position"`
}

type TemplateDTO struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Category    string                  `json:"category,omitempty"`
	Content     string                  `json:"content"`
	Variables   []VariableDefinitionDTO `json:"variables"`
	CreatedAt   string                  `json:"createdAt"` // ISO 8601
	UpdatedAt   string                  `json:"updatedAt"` // ISO 8601
}

// TemplateSummaryDTO is the list representation without template content
type TemplateSummaryDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	VariableCount int       `json:"variableCount"`
	CreatedAt     string    `json:"createdAt"` // ISO 8601
	UpdatedAt     string    `json:"updatedAt"` // ISO 8601
}

// SubstitutionDTO reports how one placeholder was filled during rendering
type SubstitutionDTO struct {
	Name       string     `json:"name"`
	Value      string     `json:"value"`
	DataSource DataSource `json:"dataSource"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PreviewResultDTO is the outcome of rendering a template without persisting
type PreviewResultDTO struct {
	Content          string            `json:"content"`
	Substitutions    []SubstitutionDTO `json:"substitutions"`
	MissingVariables []string          `json:"missingVariables,omitempty"`
	ValidationErrors []string          `json:"validationErrors,omitempty"`
}

// ConversionResultDTO describes the outcome of one conversion attempt
type ConversionResultDTO struct {
	Kind           DocumentKind      `json:"kind"`
	Succeeded      bool              `json:"succeeded"`
	DocumentID     uuid.UUID         `json:"documentId,omitempty"`
	DocumentNumber string            `json:"documentNumber,omitempty"`
	AlreadyExisted bool              `json:"alreadyExisted,omitempty"`
	Substitutions  []SubstitutionDTO `json:"substitutions,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// UpdateQuoteResponse carries the quote plus any documents an accepted
// transition generated as a side effect
type UpdateQuoteResponse struct {
	Quote               QuoteDTO              `json:"quote"`
	AutomationTriggered bool                  `json:"automationTriggered"`
	Conversions         []ConversionResultDTO `json:"conversions,omitempty"`
}

type CompanySettingsDTO struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	Currency               string     `json:"currency"`
	TaxPercent             float64    `json:"taxPercent"`
	NumberingFormatInvoice string     `json:"numberingFormatInvoice"`
	NumberingFormatQuote   string     `json:"numberingFormatQuote"`
	NextInvoiceSequence    int        `json:"nextInvoiceSequence"`
	NextQuoteSequence      int        `json:"nextQuoteSequence"`
	DefaultSLATemplateID   *uuid.UUID `json:"defaultSlaTemplateId,omitempty"`
	QuoteValidityDays      int        `json:"quoteValidityDays"`
	InvoicePaymentTermDays int        `json:"invoicePaymentTermDays"`
	UpdatedAt              string     `json:"updatedAt"` // ISO 8601
}

// TemplateUsageStatsDTO aggregates usage events for one template
type TemplateUsageStatsDTO struct {
	TemplateID   uuid.UUID `json:"templateId"`
	TemplateName string    `json:"templateName,omitempty"`
	TotalUses    int64     `json:"totalUses"`
	SuccessCount int64     `json:"successCount"`
	FailureCount int64     `json:"failureCount"`
	UniqueUsers  int64     `json:"uniqueUsers"`
	LastUsedAt   *string   `json:"lastUsedAt,omitempty"` // ISO 8601
}

// UserUsageStatsDTO aggregates usage events for one user
type UserUsageStatsDTO struct {
	UserID          string    `json:"userId"`
	TotalUses       int64     `json:"totalUses"`
	SuccessCount    int64     `json:"successCount"`
	FailureCount    int64     `json:"failureCount"`
	UniqueTemplates int64     `json:"uniqueTemplates"`
	LastUsedAt      *string   `json:"lastUsedAt,omitempty"` // ISO 8601
	TopTemplateID   uuid.UUID `json:"topTemplateId,omitempty"`
}

// UsageAnalyticsDTO is the company-wide usage rollup over a window
type UsageAnalyticsDTO struct {
	Days           int                     `json:"days"`
	TotalEvents    int64                   `json:"totalEvents"`
	SuccessCount   int64                   `json:"successCount"`
	FailureCount   int64                   `json:"failureCount"`
	ActiveUsers    int64                   `json:"activeUsers"`
	TopTemplates   []TemplateUsageStatsDTO `json:"topTemplates"`
	EventsPerDay   []DailyUsageDTO         `json:"eventsPerDay"`
	WindowStart    string                  `json:"windowStart"` // ISO 8601
	WindowEnd      string                  `json:"windowEnd"`   // ISO 8601
}

type DailyUsageDTO struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []string  `json:"roles"`
	CompanyID   uuid.UUID `json:"companyId"`
	IsActive    bool      `json:"isActive"`
}

// PermissionsResponseDTO lists the caller's effective permissions
type PermissionsResponseDTO struct {
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
	IsAdmin     bool     `json:"isAdmin"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// Request DTOs

type CreateClientRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"max=50"`
	Address    string `json:"address,omitempty" validate:"max=500"`
	City       string `json:"city,omitempty" validate:"max=100"`
	PostalCode string `json:"postalCode,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"max=100"`
}

type UpdateClientRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"max=50"`
	Address    string `json:"address,omitempty" validate:"max=500"`
	City       string `json:"city,omitempty" validate:"max=100"`
	PostalCode string `json:"postalCode,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"max=100"`
}

type CreateLineItemRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	Taxable     *bool   `json:"taxable,omitempty"`
}

type CreateQuoteRequest struct {
	Title          string                  `json:"title" validate:"required,max=200"`
	ClientID       uuid.UUID               `json:"clientId" validate:"required"`
	Items          []CreateLineItemRequest `json:"items" validate:"required,min=1,dive"`
	DepositPercent float64                 `json:"depositPercent,omitempty" validate:"gte=0,lte=100"`
	ValidUntil     *time.Time              `json:"validUntil,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	Terms          string                  `json:"terms,omitempty"`
}

type UpdateQuoteRequest struct {
	Title          string                  `json:"title" validate:"required,max=200"`
	Status         QuoteStatus             `json:"status" validate:"required"`
	Items          []CreateLineItemRequest `json:"items" validate:"required,min=1,dive"`
	DepositPercent float64                 `json:"depositPercent,omitempty" validate:"gte=0,lte=100"`
	ValidUntil     *time.Time              `json:"validUntil,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	Terms          string                  `json:"terms,omitempty"`
}

// ConvertQuoteRequest carries optional inputs for a manual conversion
type ConvertQuoteRequest struct {
	TemplateID        *uuid.UUID        `json:"templateId,omitempty"`
	VariableOverrides map[string]string `json:"variableOverrides,omitempty"`
}

type UpdateInvoiceStatusRequest struct {
	Status InvoiceStatus `json:"status" validate:"required"`
}

type UpdateAgreementStatusRequest struct {
	Status AgreementStatus `json:"status" validate:"required"`
}

type CreateVariableDefinitionRequest struct {
	Name         string       `json:"name" validate:"required,max=100"`
	DisplayName  string       `json:"displayName" validate:"required,max=200"`
	Type         VariableType `json:"type" validate:"required"`
	Required     bool         `json:"required,omitempty"`
	DefaultValue string       `json:"defaultValue,omitempty" validate:"max=500"`
	Source       DataSource   `json:"source,omitempty"`
	MinValue     *float64     `json:"minValue,omitempty"`
	MaxValue     *float64     `json:"maxValue,omitempty"`
	Pattern      string       `json:"pattern,omitempty" validate:"max=500"`
	Options      []string     `json:"options,omitempty"`
}

type CreateTemplateRequest struct {
	Name        string                            `json:"name" validate:"required,max=200"`
	Description string                            `json:"description,omitempty" validate:"max=500"`
	Category    string                            `json:"category,omitempty" validate:"max=100"`
	Content     string                            `json:"content" validate:"required"`
	Variables   []CreateVariableDefinitionRequest `json:"variables,omitempty" validate:"dive"`
}

type UpdateTemplateRequest struct {
	Name        string                            `json:"name" validate:"required,max=200"`
	Description string                            `json:"description,omitempty" validate:"max=500"`
	Category    string                            `json:"category,omitempty" validate:"max=100"`
	Content     string                            `json:"content" validate:"required"`
	Variables   []CreateVariableDefinitionRequest `json:"variables,omitempty" validate:"dive"`
}

type CloneTemplateRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// PreviewTemplateRequest renders a template against a quote without persisting
type PreviewTemplateRequest struct {
	QuoteID           *uuid.UUID        `json:"quoteId,omitempty"`
	VariableOverrides map[string]string `json:"variableOverrides,omitempty"`
}

type UpdateCompanySettingsRequest struct {
	Name                   string     `json:"name" validate:"required,max=200"`
	Currency               string     `json:"currency" validate:"required,len=3"`
	TaxPercent             float64    `json:"taxPercent" validate:"gte=0,lte=100"`
	NumberingFormatInvoice string     `json:"numberingFormatInvoice" validate:"required,max=100"`
	NumberingFormatQuote   string     `json:"numberingFormatQuote" validate:"required,max=100"`
	DefaultSLATemplateID   *uuid.UUID `json:"defaultSlaTemplateId,omitempty"`
	QuoteValidityDays      int        `json:"quoteValidityDays" validate:"gte=1,lte=365"`
	InvoicePaymentTermDays int        `json:"invoicePaymentTermDays" validate:"gte=1,lte=365"`
}
