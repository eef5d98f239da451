package mapper

import (
	"github.com/nordbooks/billing-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:         client.ID,
		Name:       client.Name,
		Email:      client.Email,
		Phone:      client.Phone,
		Address:    client.Address,
		City:       client.City,
		PostalCode: client.PostalCode,
		Country:    client.Country,
		CreatedAt:  client.CreatedAt.Format(timeLayout),
		UpdatedAt:  client.UpdatedAt.Format(timeLayout),
	}
}

// ToLineItemDTO converts LineItem to LineItemDTO
func ToLineItemDTO(item *domain.LineItem) domain.LineItemDTO {
	return domain.LineItemDTO{
		ID:          item.ID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Taxable:     item.Taxable,
		Amount:      item.Quantity * item.UnitPrice,
		Position:    item.Position,
	}
}

// ToQuoteDTO converts Quote to QuoteDTO
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	items := make([]domain.LineItemDTO, len(quote.Items))
	for i, item := range quote.Items {
		items[i] = ToLineItemDTO(&item)
	}

	dto := domain.QuoteDTO{
		ID:               quote.ID,
		QuoteNumber:      quote.QuoteNumber,
		Status:           quote.Status,
		OwnerID:          quote.OwnerID,
		ClientID:         quote.ClientID,
		Title:            quote.Title,
		Items:            items,
		Subtotal:         quote.Subtotal,
		TaxAmount:        quote.TaxAmount,
		Total:            quote.Total,
		DepositPercent:   quote.DepositPercent,
		DepositAmount:    quote.DepositAmount,
		BalanceRemaining: quote.BalanceRemaining,
		Notes:            quote.Notes,
		Terms:            quote.Terms,
		CreatedAt:        quote.CreatedAt.Format(timeLayout),
		UpdatedAt:        quote.UpdatedAt.Format(timeLayout),
	}

	if quote.Client != nil {
		dto.ClientName = quote.Client.Name
	}
	if quote.ValidUntil != nil {
		validUntil := quote.ValidUntil.Format(timeLayout)
		dto.ValidUntil = &validUntil
	}

	return dto
}

// ToInvoiceDTO converts Invoice to InvoiceDTO
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	dto := domain.InvoiceDTO{
		ID:                 invoice.ID,
		InvoiceNumber:      invoice.InvoiceNumber,
		Status:             invoice.Status,
		CreatedFromQuoteID: invoice.CreatedFromQuoteID,
		ClientID:           invoice.ClientID,
		OwnerID:            invoice.OwnerID,
		Subtotal:           invoice.Subtotal,
		TaxAmount:          invoice.TaxAmount,
		Total:              invoice.Total,
		DepositPercent:     invoice.DepositPercent,
		DepositAmount:      invoice.DepositAmount,
		BalanceRemaining:   invoice.BalanceRemaining,
		AutoGenerated:      invoice.AutoGenerated,
		AutomationTrigger:  invoice.AutomationTrigger,
		GeneratedAt:        invoice.GeneratedAt.Format(timeLayout),
		CreatedAt:          invoice.CreatedAt.Format(timeLayout),
		UpdatedAt:          invoice.UpdatedAt.Format(timeLayout),
	}

	if invoice.Quote != nil {
		dto.QuoteNumber = invoice.Quote.QuoteNumber
		if invoice.Quote.Client != nil {
			dto.ClientName = invoice.Quote.Client.Name
		}
	}
	if invoice.DueDate != nil {
		dueDate := invoice.DueDate.Format(timeLayout)
		dto.DueDate = &dueDate
	}
	if invoice.PaidAt != nil {
		paidAt := invoice.PaidAt.Format(timeLayout)
		dto.PaidAt = &paidAt
	}

	return dto
}

// ToAgreementDTO converts ServiceAgreement to ServiceAgreementDTO
func ToAgreementDTO(agreement *domain.ServiceAgreement) domain.ServiceAgreementDTO {
	dto := domain.ServiceAgreementDTO{
		ID:                 agreement.ID,
		AgreementNumber:    agreement.AgreementNumber,
		Status:             agreement.Status,
		CreatedFromQuoteID: agreement.CreatedFromQuoteID,
		ClientID:           agreement.ClientID,
		OwnerID:            agreement.OwnerID,
		TemplateID:         agreement.TemplateID,
		Content:            agreement.Content,
		Subtotal:           agreement.Subtotal,
		TaxAmount:          agreement.TaxAmount,
		Total:              agreement.Total,
		DepositPercent:     agreement.DepositPercent,
		DepositAmount:      agreement.DepositAmount,
		BalanceRemaining:   agreement.BalanceRemaining,
		AutoGenerated:      agreement.AutoGenerated,
		AutomationTrigger:  agreement.AutomationTrigger,
		GeneratedAt:        agreement.GeneratedAt.Format(timeLayout),
		CreatedAt:          agreement.CreatedAt.Format(timeLayout),
		UpdatedAt:          agreement.UpdatedAt.Format(timeLayout),
	}

	if agreement.Quote != nil {
		dto.QuoteNumber = agreement.Quote.QuoteNumber
		if agreement.Quote.Client != nil {
			dto.ClientName = agreement.Quote.Client.Name
		}
	}

	return dto
}

// ToVariableDefinitionDTO converts VariableDefinition to VariableDefinitionDTO
func ToVariableDefinitionDTO(def *domain.VariableDefinition) domain.VariableDefinitionDTO {
	return domain.VariableDefinitionDTO{
		ID:           def.ID,
		Name:         def.Name,
		DisplayName:  def.DisplayName,
		Type:         def.Type,
		Required:     def.Required,
		DefaultValue: def.DefaultValue,
		Source:       def.Source,
		MinValue:     def.MinValue,
		MaxValue:     def.MaxValue,
		Pattern:      def.Pattern,
		Options:      def.Options,
		Position:     def.Position,
	}
}

// ToTemplateDTO converts Template to TemplateDTO
func ToTemplateDTO(template *domain.Template) domain.TemplateDTO {
	variables := make([]domain.VariableDefinitionDTO, len(template.Variables))
	for i, def := range template.Variables {
		variables[i] = ToVariableDefinitionDTO(&def)
	}

	return domain.TemplateDTO{
		ID:          template.ID,
		Name:        template.Name,
		Description: template.Description,
		Category:    template.Category,
		Content:     template.Content,
		Variables:   variables,
		CreatedAt:   template.CreatedAt.Format(timeLayout),
		UpdatedAt:   template.UpdatedAt.Format(timeLayout),
	}
}

// ToTemplateSummaryDTO converts Template to its list representation
func ToTemplateSummaryDTO(template *domain.Template) domain.TemplateSummaryDTO {
	return domain.TemplateSummaryDTO{
		ID:            template.ID,
		Name:          template.Name,
		Description:   template.Description,
		Category:      template.Category,
		VariableCount: len(template.Variables),
		CreatedAt:     template.CreatedAt.Format(timeLayout),
		UpdatedAt:     template.UpdatedAt.Format(timeLayout),
	}
}

// ToSettingsDTO converts CompanySettings to CompanySettingsDTO
func ToSettingsDTO(settings *domain.CompanySettings) domain.CompanySettingsDTO {
	return domain.CompanySettingsDTO{
		ID:                     settings.ID,
		Name:                   settings.Name,
		Currency:               settings.Currency,
		TaxPercent:             settings.TaxPercent,
		NumberingFormatInvoice: settings.NumberingFormatInvoice,
		NumberingFormatQuote:   settings.NumberingFormatQuote,
		NextInvoiceSequence:    settings.NextInvoiceSequence,
		NextQuoteSequence:      settings.NextQuoteSequence,
		DefaultSLATemplateID:   settings.DefaultSLATemplateID,
		QuoteValidityDays:      settings.QuoteValidityDays,
		InvoicePaymentTermDays: settings.InvoicePaymentTermDays,
		UpdatedAt:              settings.UpdatedAt.Format(timeLayout),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.Roles,
		CompanyID:   user.CompanyID,
		IsActive:    user.IsActive,
	}
}
