package tenant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// scopePrefix starts every scope token. Keeping tenant schemas under a
// single prefix makes them easy to tell apart from platform schemas.
const scopePrefix = "tenant_"

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	scopePattern = regexp.MustCompile(`^tenant_[a-z0-9_]{1,80}$`)

	// Identifiers that show up when a broken client stringifies a missing
	// value. These must never reach the registry.
	reservedIdentifiers = map[string]struct{}{
		"undefined": {},
		"null":      {},
		"none":      {},
		"public":    {},
		"admin":     {},
		"api":       {},
	}
)

// ValidateIdentifier checks a public tenant identifier (the slug carried in
// the tenant header) without touching storage.
func ValidateIdentifier(publicID string) error {
	id := strings.TrimSpace(publicID)
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidTenantIdentifier)
	}
	if _, reserved := reservedIdentifiers[strings.ToLower(id)]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidTenantIdentifier, id)
	}
	if !slugPattern.MatchString(id) {
		return fmt.Errorf("%w: %q is malformed", ErrInvalidTenantIdentifier, id)
	}
	return nil
}

// ValidateScopeID checks a physical scope token. Scope tokens are embedded
// into schema-qualified SQL identifiers, so anything that fails this check
// must never reach the storage layer.
func ValidateScopeID(scopeID string) error {
	if !scopePattern.MatchString(scopeID) {
		return fmt.Errorf("%w: bad scope token %q", ErrInvalidTenantIdentifier, scopeID)
	}
	return nil
}

// NewScopeID derives a fresh scope token from a validated slug. The random
// suffix keeps tokens unique even when a slug is released and re-registered
// later; the prefix is applied here and nowhere else.
func NewScopeID(slug string) string {
	sanitized := strings.ReplaceAll(slug, "-", "_")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return scopePrefix + sanitized + "_" + suffix
}
