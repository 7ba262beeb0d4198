package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "alice_01", false},
		{"Exactly Min Length", "abc", false},
		{"Exactly Max Length", strings.Repeat("a", 30), false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Uppercase", "Alice", true},
		{"Dot", "alice.b", true},
		{"Space", "alice b", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.NoError(t, ValidateUsername(NormalizeUsername("BOB_2")))
}

func TestValidateTextFields(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName("Ann"))
	assert.Error(t, ValidateName(""))
	assert.NoError(t, ValidateName(strings.Repeat("é", MaxNameLength)))
	assert.Error(t, ValidateName(strings.Repeat("é", MaxNameLength+1)))

	assert.NoError(t, ValidateBio(""))
	assert.NoError(t, ValidateBio(strings.Repeat("b", MaxBioLength)))
	assert.Error(t, ValidateBio(strings.Repeat("b", MaxBioLength+1)))

	assert.NoError(t, ValidateStatus(""))
	assert.Error(t, ValidateStatus(strings.Repeat("s", MaxStatusLength+1)))
}

func TestValidateDateOfBirth(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateDateOfBirth(now.AddDate(-30, 0, 0), now))
	assert.NoError(t, ValidateDateOfBirth(now, now))
	assert.Error(t, ValidateDateOfBirth(now.Add(time.Hour), now))
}
