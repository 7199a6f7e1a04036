package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantID_ValidAndInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		want  string
		errIs error
	}{
		{name: "empty", in: "", want: "", errIs: nil},
		{name: "simple", in: "tenant-1", want: "tenant-1", errIs: nil},
		{name: "dot", in: ".", want: "", errIs: ErrInvalidTenantID},
		{name: "dotdot", in: "..", want: "", errIs: ErrInvalidTenantID},
		{name: "slash", in: "a/b", want: "", errIs: ErrInvalidTenantID},
		{name: "backslash", in: `a\b`, want: "", errIs: ErrInvalidTenantID},
		{name: "traversal", in: "../escape", want: "", errIs: ErrInvalidTenantID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TenantID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}

func TestSourceRef_ValidAndInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		want  string
		errIs error
	}{
		{name: "empty", in: "", want: "", errIs: ErrInvalidSourceRef},
		{name: "simple", in: "https://example.com/a", want: "https://example.com/a", errIs: nil},
		{name: "dot", in: ".", want: "", errIs: ErrInvalidSourceRef},
		{name: "traversal", in: "../escape", want: "", errIs: ErrInvalidSourceRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SourceRef(tt.in)
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}
