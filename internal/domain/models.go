package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// CompanySettings holds tenant-wide configuration. There is exactly one row
// per tenant; every business entity carries a CompanyID referencing it.
// The numbering formats and sequence counters live here so a conversion can
// lock a single row to issue the next document number.
type CompanySettings struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name                   string     `gorm:"type:varchar(200);not null"`
	Currency               string     `gorm:"type:varchar(3);not null;default:'USD'"`
	TaxPercent             float64    `gorm:"type:decimal(5,2);not null;default:0;column:tax_percent"`
	NumberingFormatInvoice string     `gorm:"type:varchar(100);not null;default:'INV-{YYYY}-{SEQ:4}';column:numbering_format_invoice"`
	NumberingFormatQuote   string     `gorm:"type:varchar(100);not null;default:'QTE-{YYYY}-{SEQ:4}';column:numbering_format_quote"`
	NextInvoiceSequence    int        `gorm:"not null;default:1;column:next_invoice_sequence"`
	NextQuoteSequence      int        `gorm:"not null;default:1;column:next_quote_sequence"`
	DefaultSLATemplateID   *uuid.UUID `gorm:"type:uuid;column:default_sla_template_id"`
	QuoteValidityDays      int        `gorm:"not null;default:30;column:quote_validity_days"`
	InvoicePaymentTermDays int        `gorm:"not null;default:14;column:invoice_payment_term_days"`
	CreatedAt              time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName keeps the table name explicit since gorm would pluralize badly
func (CompanySettings) TableName() string {
	return "company_settings"
}

// DocumentKind identifies which downstream document a conversion produces.
// Each kind has its own idempotency scope; agreements draw numbers from the
// quote counter since quotes and agreements share a series.
type DocumentKind string

const (
	DocumentKindInvoice   DocumentKind = "invoice"
	DocumentKindAgreement DocumentKind = "agreement"
)

// Client represents a customer organization quotes are issued to
type Client struct {
	BaseModel
	Name       string    `gorm:"type:varchar(200);not null;index"`
	Email      string    `gorm:"type:varchar(255);not null"`
	Phone      string    `gorm:"type:varchar(50)"`
	Address    string    `gorm:"type:varchar(500)"`
	City       string    `gorm:"type:varchar(100)"`
	PostalCode string    `gorm:"type:varchar(20);column:postal_code"`
	Country    string    `gorm:"type:varchar(100)"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index;column:company_id"`
	Quotes     []Quote   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// QuoteStatus is the lifecycle status of a quote. Values are canonical
// lowercase; no mixed-case variant is accepted anywhere in the system.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// IsValid checks if the QuoteStatus is a valid enum value
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusDeclined, QuoteStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the quote's lifecycle.
// Conversion only ever triggers on a transition into accepted.
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusAccepted, QuoteStatusDeclined, QuoteStatusExpired:
		return true
	}
	return false
}

// Quote is the source document of every conversion
type Quote struct {
	BaseModel
	QuoteNumber      string      `gorm:"type:varchar(50);index;column:quote_number"`
	Status           QuoteStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	OwnerID          string      `gorm:"type:varchar(100);not null;index;column:owner_id"`
	ClientID         uuid.UUID   `gorm:"type:uuid;not null;index;column:client_id"`
	Client           *Client     `gorm:"foreignKey:ClientID"`
	CompanyID        uuid.UUID   `gorm:"type:uuid;not null;index;column:company_id"`
	Title            string      `gorm:"type:varchar(200);not null"`
	Items            []LineItem  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Subtotal         float64     `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount        float64     `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	Total            float64     `gorm:"type:decimal(15,2);not null;default:0"`
	DepositPercent   float64     `gorm:"type:decimal(5,2);not null;default:0;column:deposit_percent"`
	DepositAmount    float64     `gorm:"type:decimal(15,2);not null;default:0;column:deposit_amount"`
	BalanceRemaining float64     `gorm:"type:decimal(15,2);not null;default:0;column:balance_remaining"`
	ValidUntil       *time.Time  `gorm:"type:date;column:valid_until"`
	Notes            string      `gorm:"type:text"`
	Terms            string      `gorm:"type:text"`
}

// LineItem is a priced line on a quote
type LineItem struct {
	BaseModel
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index;column:quote_id"`
	Description string    `gorm:"type:varchar(500);not null"`
	Quantity    float64   `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice   float64   `gorm:"type:decimal(15,2);not null;column:unit_price"`
	Taxable     bool      `gorm:"not null;default:true"`
	Position    int       `gorm:"not null;default:0"`
}

// AutomationTrigger records what caused a conversion
type AutomationTrigger string

const (
	TriggerStatusChange     AutomationTrigger = "status_change"
	TriggerManualConversion AutomationTrigger = "manual_conversion"
)

// InvoiceStatus is the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// IsValid checks if the InvoiceStatus is a valid enum value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice is a downstream document created from an accepted quote.
// The unique index on created_from_quote_id is what makes conversion
// exactly-once: racing conversions serialize on it and the loser adopts
// the winner's row.
type Invoice struct {
	BaseModel
	InvoiceNumber      string            `gorm:"type:varchar(50);not null;index;column:invoice_number"`
	Status             InvoiceStatus     `gorm:"type:varchar(50);not null;default:'draft';index"`
	CreatedFromQuoteID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex;column:created_from_quote_id"`
	Quote              *Quote            `gorm:"foreignKey:CreatedFromQuoteID"`
	ClientID           uuid.UUID         `gorm:"type:uuid;not null;index;column:client_id"`
	CompanyID          uuid.UUID         `gorm:"type:uuid;not null;index;column:company_id"`
	OwnerID            string            `gorm:"type:varchar(100);not null;column:owner_id"`
	Subtotal           float64           `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount          float64           `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	Total              float64           `gorm:"type:decimal(15,2);not null;default:0"`
	DepositPercent     float64           `gorm:"type:decimal(5,2);not null;default:0;column:deposit_percent"`
	DepositAmount      float64           `gorm:"type:decimal(15,2);not null;default:0;column:deposit_amount"`
	BalanceRemaining   float64           `gorm:"type:decimal(15,2);not null;default:0;column:balance_remaining"`
	DueDate            *time.Time        `gorm:"type:date;column:due_date"`
	PaidAt             *time.Time        `gorm:"column:paid_at"`
	AutoGenerated      bool              `gorm:"not null;default:false;column:auto_generated"`
	AutomationTrigger  AutomationTrigger `gorm:"type:varchar(50);not null;column:automation_trigger"`
	GeneratedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;column:generated_at"`
}

// AgreementStatus is the lifecycle status of a service agreement
type AgreementStatus string

const (
	AgreementStatusDraft     AgreementStatus = "draft"
	AgreementStatusGenerated AgreementStatus = "generated"
	AgreementStatusSigned    AgreementStatus = "signed"
)

// IsValid checks if the AgreementStatus is a valid enum value
func (s AgreementStatus) IsValid() bool {
	switch s {
	case AgreementStatusDraft, AgreementStatusGenerated, AgreementStatusSigned:
		return true
	}
	return false
}

// ServiceAgreement is the templated downstream document of a conversion
type ServiceAgreement struct {
	BaseModel
	AgreementNumber    string            `gorm:"type:varchar(50);not null;index;column:agreement_number"`
	Status             AgreementStatus   `gorm:"type:varchar(50);not null;default:'generated';index"`
	CreatedFromQuoteID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex;column:created_from_quote_id"`
	Quote              *Quote            `gorm:"foreignKey:CreatedFromQuoteID"`
	ClientID           uuid.UUID         `gorm:"type:uuid;not null;index;column:client_id"`
	CompanyID          uuid.UUID         `gorm:"type:uuid;not null;index;column:company_id"`
	OwnerID            string            `gorm:"type:varchar(100);not null;column:owner_id"`
	TemplateID         uuid.UUID         `gorm:"type:uuid;not null;index;column:template_id"`
	Content            string            `gorm:"type:text;not null"`
	Subtotal           float64           `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount          float64           `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	Total              float64           `gorm:"type:decimal(15,2);not null;default:0"`
	DepositPercent     float64           `gorm:"type:decimal(5,2);not null;default:0;column:deposit_percent"`
	DepositAmount      float64           `gorm:"type:decimal(15,2);not null;default:0;column:deposit_amount"`
	BalanceRemaining   float64           `gorm:"type:decimal(15,2);not null;default:0;column:balance_remaining"`
	AutoGenerated      bool              `gorm:"not null;default:false;column:auto_generated"`
	AutomationTrigger  AutomationTrigger `gorm:"type:varchar(50);not null;column:automation_trigger"`
	GeneratedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;column:generated_at"`
}

// VariableType is the declared type of a template variable
type VariableType string

const (
	VariableTypeText   VariableType = "text"
	VariableTypeNumber VariableType = "number"
	VariableTypeDate   VariableType = "date"
	VariableTypeEnum   VariableType = "enum"
)

// IsValid checks if the VariableType is a valid enum value
func (vt VariableType) IsValid() bool {
	switch vt {
	case VariableTypeText, VariableTypeNumber, VariableTypeDate, VariableTypeEnum:
		return true
	}
	return false
}

// DataSource identifies where a variable value is resolved from
type DataSource string

const (
	DataSourceQuote        DataSource = "quote"
	DataSourceClient       DataSource = "client"
	DataSourceCompany      DataSource = "company"
	DataSourceUserInput    DataSource = "user_input"
	DataSourceDefaultValue DataSource = "default_value"
)

// IsValid checks if the DataSource is a valid enum value
func (ds DataSource) IsValid() bool {
	switch ds {
	case DataSourceQuote, DataSourceClient, DataSourceCompany, DataSourceUserInput, DataSourceDefaultValue:
		return true
	}
	return false
}

// Template holds agreement template content with {{placeholder}} markers.
// Templates are versionless; cloning creates a new identifier with copied
// content and variable definitions.
type Template struct {
	BaseModel
	Name        string               `gorm:"type:varchar(200);not null;index"`
	Description string               `gorm:"type:varchar(500)"`
	Category    string               `gorm:"type:varchar(100);index"`
	Content     string               `gorm:"type:text;not null"`
	CompanyID   uuid.UUID            `gorm:"type:uuid;not null;index;column:company_id"`
	Variables   []VariableDefinition `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

// VariableDefinition declares a typed variable a template may reference
type VariableDefinition struct {
	BaseModel
	TemplateID   uuid.UUID      `gorm:"type:uuid;not null;index;column:template_id"`
	Name         string         `gorm:"type:varchar(100);not null"`
	DisplayName  string         `gorm:"type:varchar(200);not null;column:display_name"`
	Type         VariableType   `gorm:"type:varchar(20);not null;default:'text'"`
	Required     bool           `gorm:"not null;default:false"`
	DefaultValue string         `gorm:"type:varchar(500);column:default_value"`
	Source       DataSource     `gorm:"type:varchar(50);not null;default:'user_input';column:data_source"`
	MinValue     *float64       `gorm:"type:decimal(15,2);column:min_value"`
	MaxValue     *float64       `gorm:"type:decimal(15,2);column:max_value"`
	Pattern      string         `gorm:"type:varchar(500)"`
	Options      pq.StringArray `gorm:"type:text[]"`
	Position     int            `gorm:"not null;default:0"`
}

// UsageOutcome is the recorded result of a generation or preview
type UsageOutcome string

const (
	UsageOutcomeSuccess UsageOutcome = "success"
	UsageOutcomeFailure UsageOutcome = "failure"
)

// UsageEvent is an append-only record of a template generation or preview.
// Rows are aggregated, never mutated.
type UsageEvent struct {
	ID         uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TemplateID uuid.UUID    `gorm:"type:uuid;not null;index;column:template_id"`
	UserID     string       `gorm:"type:varchar(100);not null;index;column:user_id"`
	DocumentID *uuid.UUID   `gorm:"type:uuid;column:document_id"`
	Outcome    UsageOutcome `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin   UserRoleType = "admin"
	RoleManager UserRoleType = "manager"
	RoleMember  UserRoleType = "member"
	RoleViewer  UserRoleType = "viewer"
	RoleSystem  UserRoleType = "system" // service-to-service via API key
)

// User represents a user in the system. Identity comes from the token; this
// row backs role and company lookup.
type User struct {
	ID          string         `gorm:"type:varchar(100);primaryKey" json:"id"`
	Email       string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	DisplayName string         `gorm:"type:varchar(200);not null;column:display_name" json:"displayName"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	CompanyID   uuid.UUID      `gorm:"type:uuid;not null;column:company_id" json:"companyId"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// RecomputeTotals derives the quote's stored totals from its line items and
// the company tax rate. Subtotal + tax = total and deposit + balance = total
// hold by construction afterwards.
func (q *Quote) RecomputeTotals(taxPercent float64) {
	subtotal := 0.0
	taxable := 0.0
	for _, item := range q.Items {
		amount := item.Quantity * item.UnitPrice
		subtotal += amount
		if item.Taxable {
			taxable += amount
		}
	}
	q.Subtotal = round2(subtotal)
	q.TaxAmount = round2(taxable * taxPercent / 100)
	q.Total = round2(q.Subtotal + q.TaxAmount)
	q.DepositAmount = round2(q.Total * q.DepositPercent / 100)
	q.BalanceRemaining = round2(q.Total - q.DepositAmount)
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
