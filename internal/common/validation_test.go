package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		code     string
	}{
		{"lucia", ""},
		{"María José", ""},
		{"j.perez-2", ""},
		{"", "missing_fields"},
		{"a", "username_too_short"},
		{"bad<script>", "username_invalid"},
		{"thisnameiswaytoolongforthe-portal", "username_invalid"},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if tt.code == "" {
			assert.NoError(t, err, tt.username)
			continue
		}
		assert.Equal(t, tt.code, CodeOf(err), tt.username)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secreto"))
	assert.Equal(t, "password_too_short", CodeOf(ValidatePassword("12345")))
	assert.Equal(t, "missing_fields", CodeOf(ValidatePassword("")))
}
