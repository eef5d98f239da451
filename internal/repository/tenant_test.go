package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// tenantRow is a minimal model for exercising the company filter
type tenantRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string
	CompanyID uuid.UUID `gorm:"column:company_id"`
}

func setupFilterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tenantRow{}))
	return db
}

func TestApplyCompanyFilterScopesQuery(t *testing.T) {
	db := setupFilterTestDB(t)

	companyID := uuid.New()
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-1",
		Roles:     []domain.UserRoleType{domain.RoleMember},
		CompanyID: companyID,
	})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return ApplyCompanyFilter(ctx, tx.Model(&tenantRow{})).Find(&[]tenantRow{})
	})

	assert.Contains(t, sql, "company_id")
}

func TestApplyCompanyFilterSkipsSystemCallers(t *testing.T) {
	db := setupFilterTestDB(t)

	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: "svc-1",
		Roles:  []domain.UserRoleType{domain.RoleSystem},
	})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return ApplyCompanyFilter(ctx, tx.Model(&tenantRow{})).Find(&[]tenantRow{})
	})

	assert.NotContains(t, sql, "company_id =", "service identities query across tenants")
}

func TestApplyCompanyFilterWithAlias(t *testing.T) {
	db := setupFilterTestDB(t)

	companyID := uuid.New()
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-1",
		Roles:     []domain.UserRoleType{domain.RoleMember},
		CompanyID: companyID,
	})

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return ApplyCompanyFilterWithAlias(ctx, tx.Model(&tenantRow{}), "quotes").Find(&[]tenantRow{})
	})

	assert.Contains(t, sql, "quotes.company_id")
}

func TestBuildOrderClause(t *testing.T) {
	fieldMap := map[string]string{
		"createdAt": "created_at",
		"total":     "total",
	}

	tests := []struct {
		name     string
		config   SortConfig
		expected string
	}{
		{
			name:     "whitelisted field ascending",
			config:   SortConfig{Field: "total", Order: SortOrderAsc},
			expected: "total ASC",
		},
		{
			name:     "whitelisted field descending",
			config:   SortConfig{Field: "createdAt", Order: SortOrderDesc},
			expected: "created_at DESC",
		},
		{
			name:     "unknown field falls back to default column",
			config:   SortConfig{Field: "passwordHash", Order: SortOrderAsc},
			expected: "updated_at ASC",
		},
		{
			name:     "empty config falls back entirely",
			config:   SortConfig{},
			expected: "updated_at DESC",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, BuildOrderClause(tc.config, fieldMap, "updated_at"))
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortOrderAsc, ParseSortOrder("asc"))
	assert.Equal(t, SortOrderAsc, ParseSortOrder("ASC"))
	assert.Equal(t, SortOrderDesc, ParseSortOrder("desc"))
	assert.Equal(t, SortOrderDesc, ParseSortOrder("anything else"))
	assert.Equal(t, SortOrderDesc, ParseSortOrder(""))
}

func TestMustHaveCompanyAccess(t *testing.T) {
	companyID := uuid.New()
	otherCompanyID := uuid.New()

	memberCtx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-1",
		Roles:     []domain.UserRoleType{domain.RoleMember},
		CompanyID: companyID,
	})
	systemCtx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: "svc-1",
		Roles:  []domain.UserRoleType{domain.RoleSystem},
	})

	assert.True(t, MustHaveCompanyAccess(memberCtx, companyID))
	assert.False(t, MustHaveCompanyAccess(memberCtx, otherCompanyID))
	assert.True(t, MustHaveCompanyAccess(systemCtx, companyID), "service identities span tenants")
	assert.True(t, MustHaveCompanyAccess(systemCtx, otherCompanyID))
	assert.True(t, MustHaveCompanyAccess(context.Background(), companyID), "background jobs run unscoped")
}

func TestDefaultSortConfig(t *testing.T) {
	cfg := DefaultSortConfig()
	assert.Equal(t, "updatedAt", cfg.Field)
	assert.Equal(t, SortOrderDesc, cfg.Order)
}
