// Package validation provides common validation functions for tenant and
// document identifiers. This package has no dependencies on other internal
// packages to avoid import cycles.
package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidTenantID indicates the tenant_id value is malformed or attempts path traversal.
var ErrInvalidTenantID = errors.New("invalid tenant_id")

// ErrInvalidSourceRef indicates the source_ref value is malformed or attempts path traversal.
var ErrInvalidSourceRef = errors.New("invalid source_ref")

// TenantID checks if a tenant ID is safe for use as a single path segment
// (collection names, object store prefixes, log fields). Returns the
// cleaned tenant ID and an error if validation fails.
func TenantID(tenantID string) (string, error) {
	if tenantID == "" {
		return "", nil
	}

	// IDs must be a single path segment.
	if tenantID == "." || tenantID == ".." {
		return "", ErrInvalidTenantID
	}
	if strings.ContainsAny(tenantID, `/\`) {
		return "", ErrInvalidTenantID
	}

	cleaned := filepath.Clean(tenantID)
	if cleaned != tenantID ||
		strings.HasPrefix(cleaned, "..") ||
		strings.Contains(cleaned, string(os.PathSeparator)+"..") ||
		filepath.IsAbs(cleaned) {
		return "", ErrInvalidTenantID
	}

	return cleaned, nil
}

// SourceRef checks that a source_ref (URL, filename, or opaque key used for
// at-most-once ingestion dedup) is non-empty and does not attempt path
// traversal when used to derive storage keys.
func SourceRef(sourceRef string) (string, error) {
	if sourceRef == "" {
		return "", ErrInvalidSourceRef
	}
	if sourceRef == "." || sourceRef == ".." {
		return "", ErrInvalidSourceRef
	}
	if strings.Contains(sourceRef, "..") {
		return "", ErrInvalidSourceRef
	}
	return sourceRef, nil
}
