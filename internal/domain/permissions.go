package domain

// PermissionType represents a granular capability a role grants
type PermissionType string

const (
	PermissionClientsRead  PermissionType = "clients:read"
	PermissionClientsWrite PermissionType = "clients:write"

	PermissionQuotesRead    PermissionType = "quotes:read"
	PermissionQuotesWrite   PermissionType = "quotes:write"
	PermissionQuotesConvert PermissionType = "quotes:convert"

	PermissionInvoicesRead  PermissionType = "invoices:read"
	PermissionInvoicesWrite PermissionType = "invoices:write"

	PermissionAgreementsRead  PermissionType = "agreements:read"
	PermissionAgreementsWrite PermissionType = "agreements:write"

	PermissionTemplatesRead   PermissionType = "templates:read"
	PermissionTemplatesWrite  PermissionType = "templates:write"
	PermissionTemplatesDelete PermissionType = "templates:delete"

	PermissionUsageView PermissionType = "usage:view"

	PermissionSettingsManage PermissionType = "settings:manage"
)

// AllPermissions lists every permission the system knows about
var AllPermissions = []PermissionType{
	PermissionClientsRead,
	PermissionClientsWrite,
	PermissionQuotesRead,
	PermissionQuotesWrite,
	PermissionQuotesConvert,
	PermissionInvoicesRead,
	PermissionInvoicesWrite,
	PermissionAgreementsRead,
	PermissionAgreementsWrite,
	PermissionTemplatesRead,
	PermissionTemplatesWrite,
	PermissionTemplatesDelete,
	PermissionUsageView,
	PermissionSettingsManage,
}
