package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/config"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *JWTValidator {
	return NewJWTValidator(&config.AuthConfig{
		JWTSecret: "test-secret-that-is-long-enough",
		Issuer:    "https://id.test.local",
		Audience:  "billing-api",
	})
}

func testUser() *UserContext {
	return &UserContext{
		UserID:      "user-123",
		DisplayName: "Test Person",
		Email:       "test@example.com",
		Roles:       []domain.UserRoleType{domain.RoleManager},
		CompanyID:   uuid.New(),
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	v := testValidator()
	user := testUser()

	token, err := v.IssueToken(user, time.Hour)
	require.NoError(t, err)

	got, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.CompanyID, got.CompanyID)
	assert.Equal(t, user.Roles, got.Roles)
}

func TestValidateTokenExpired(t *testing.T) {
	v := testValidator()

	token, err := v.IssueToken(testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	v := testValidator()
	token, err := v.IssueToken(testUser(), time.Hour)
	require.NoError(t, err)

	other := NewJWTValidator(&config.AuthConfig{JWTSecret: "a-different-secret-entirely"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	issuer := NewJWTValidator(&config.AuthConfig{
		JWTSecret: "test-secret-that-is-long-enough",
		Issuer:    "https://rogue.example.com",
	})
	token, err := issuer.IssueToken(testUser(), time.Hour)
	require.NoError(t, err)

	_, err = testValidator().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMissingCompany(t *testing.T) {
	v := testValidator()
	user := testUser()
	user.CompanyID = uuid.Nil

	token, err := v.IssueToken(user, time.Hour)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractRoles(t *testing.T) {
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		expected []domain.UserRoleType
	}{
		{
			name:     "array of roles",
			claims:   jwt.MapClaims{"roles": []interface{}{"Admin", "member"}},
			expected: []domain.UserRoleType{domain.RoleAdmin, domain.RoleMember},
		},
		{
			name:     "single role string",
			claims:   jwt.MapClaims{"role": "VIEWER"},
			expected: []domain.UserRoleType{domain.RoleViewer},
		},
		{
			name:     "no role claims",
			claims:   jwt.MapClaims{},
			expected: []domain.UserRoleType{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractRoles(tc.claims))
		})
	}
}

func TestHasPermission(t *testing.T) {
	admin := &UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin}}
	member := &UserContext{Roles: []domain.UserRoleType{domain.RoleMember}}
	viewer := &UserContext{Roles: []domain.UserRoleType{domain.RoleViewer}}

	assert.True(t, admin.HasPermission(domain.PermissionSettingsManage), "admin has everything")
	assert.True(t, member.HasPermission(domain.PermissionQuotesConvert))
	assert.False(t, member.HasPermission(domain.PermissionTemplatesDelete))
	assert.True(t, viewer.HasPermission(domain.PermissionUsageView))
	assert.False(t, viewer.HasPermission(domain.PermissionQuotesWrite))
}

func TestGetCompanyFilter(t *testing.T) {
	companyID := uuid.New()

	user := &UserContext{Roles: []domain.UserRoleType{domain.RoleMember}, CompanyID: companyID}
	filter := user.GetCompanyFilter()
	require.NotNil(t, filter)
	assert.Equal(t, companyID, *filter)

	system := &UserContext{Roles: []domain.UserRoleType{domain.RoleSystem}, CompanyID: companyID}
	assert.Nil(t, system.GetCompanyFilter(), "service identities see all tenants")
}
