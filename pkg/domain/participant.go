package domain

import (
	"strings"

	dErrors "parasol/pkg/domain-errors"
)

// ParticipantID is the unique handle a policyholder registers under. It is
// address-equivalent: opaque to the ledger, compared byte-for-byte.
//
// Invariant: non-empty, no whitespace, at most MaxParticipantIDLen bytes.
//
// Usage: construct via ParseParticipantID at trust boundaries to enforce the
// invariant; direct casting bypasses validation.
type ParticipantID string

// MaxParticipantIDLen bounds identity handles so registry keys stay sane.
const MaxParticipantIDLen = 128

// ParseParticipantID constructs a ParticipantID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, contains
// whitespace, or exceeds the length bound; no other errors are expected.
func ParseParticipantID(s string) (ParticipantID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "participant identity cannot be empty")
	}
	if len(s) > MaxParticipantIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "participant identity too long")
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "participant identity cannot contain whitespace")
	}
	return ParticipantID(s), nil
}

// String returns the string representation of the identity.
func (p ParticipantID) String() string {
	return string(p)
}

// IsZero reports whether the identity is unset.
func (p ParticipantID) IsZero() bool {
	return p == ""
}
