package tenant

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"acme", "acme-shop", "shop42", "a", "0day-gear"}
	for _, id := range valid {
		assert.NoError(t, ValidateIdentifier(id), "expected %q to be valid", id)
	}

	invalid := []string{
		"",
		"undefined",
		"null",
		"NULL",
		"Undefined",
		"public",
		"admin",
		"-acme",
		"acme-",
		"ACME",
		"acme shop",
		"acme_shop",
		"a/b",
		strings.Repeat("a", 64),
	}
	for _, id := range invalid {
		err := ValidateIdentifier(id)
		require.Error(t, err, "expected %q to be rejected", id)
		assert.ErrorIs(t, err, ErrInvalidTenantIdentifier)
	}
}

func TestNewScopeID(t *testing.T) {
	scopeID := NewScopeID("acme-shop")

	assert.True(t, strings.HasPrefix(scopeID, "tenant_acme_shop_"))
	assert.NoError(t, ValidateScopeID(scopeID))

	// The random suffix keeps re-registered slugs from colliding.
	assert.NotEqual(t, scopeID, NewScopeID("acme-shop"))
}

func TestValidateScopeID(t *testing.T) {
	assert.NoError(t, ValidateScopeID("tenant_acme_1a2b3c"))

	for _, scopeID := range []string{
		"",
		"acme",
		"tenant_",
		"tenant_ACME",
		"tenant_acme; DROP SCHEMA public",
		"public",
		"tenant_acme.extra",
	} {
		err := ValidateScopeID(scopeID)
		require.Error(t, err, "expected %q to be rejected", scopeID)
		assert.True(t, errors.Is(err, ErrInvalidTenantIdentifier))
	}
}
