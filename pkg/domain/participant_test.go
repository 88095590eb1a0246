package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "parasol/pkg/domain-errors"
)

func TestParseParticipantID(t *testing.T) {
	t.Run("accepts plain handle", func(t *testing.T) {
		id, err := ParseParticipantID("farmer-0x1a")
		assert.NoError(t, err)
		assert.Equal(t, "farmer-0x1a", id.String())
		assert.False(t, id.IsZero())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseParticipantID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects whitespace", func(t *testing.T) {
		for _, bad := range []string{"a b", "a\tb", "a\nb"} {
			_, err := ParseParticipantID(bad)
			assert.Error(t, err, "input %q", bad)
		}
	})

	t.Run("rejects overlong", func(t *testing.T) {
		_, err := ParseParticipantID(strings.Repeat("x", MaxParticipantIDLen+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts boundary length", func(t *testing.T) {
		_, err := ParseParticipantID(strings.Repeat("x", MaxParticipantIDLen))
		assert.NoError(t, err)
	})
}
