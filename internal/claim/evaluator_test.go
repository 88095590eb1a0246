package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parasol/internal/ledger"
	"parasol/internal/oracle"
)

func TestEvaluate(t *testing.T) {
	defaults := ledger.Thresholds{Rainfall: 50, Temperature: 35}

	tests := []struct {
		name       string
		measured   oracle.Measurement
		thresholds ledger.Thresholds
		want       Verdict
	}{
		{
			name:       "both conditions inside thresholds",
			measured:   oracle.Measurement{Rainfall: 60, Temperature: 20},
			thresholds: defaults,
			want:       VerdictNoBreach,
		},
		{
			name:       "rainfall below cutoff breaches",
			measured:   oracle.Measurement{Rainfall: 30, Temperature: 20},
			thresholds: defaults,
			want:       VerdictBreach,
		},
		{
			name:       "temperature above cutoff breaches",
			measured:   oracle.Measurement{Rainfall: 60, Temperature: 40},
			thresholds: defaults,
			want:       VerdictBreach,
		},
		{
			name:       "both conditions breach",
			measured:   oracle.Measurement{Rainfall: 30, Temperature: 38},
			thresholds: defaults,
			want:       VerdictBreach,
		},
		{
			name:       "equality on both boundaries is not a breach",
			measured:   oracle.Measurement{Rainfall: 50, Temperature: 35},
			thresholds: defaults,
			want:       VerdictNoBreach,
		},
		{
			name:       "rainfall one below boundary breaches",
			measured:   oracle.Measurement{Rainfall: 49, Temperature: 35},
			thresholds: defaults,
			want:       VerdictBreach,
		},
		{
			name:       "temperature one above boundary breaches",
			measured:   oracle.Measurement{Rainfall: 50, Temperature: 36},
			thresholds: defaults,
			want:       VerdictBreach,
		},
		{
			name:       "zero rainfall against zero cutoff is not a breach",
			measured:   oracle.Measurement{Rainfall: 0, Temperature: 0},
			thresholds: ledger.Thresholds{Rainfall: 0, Temperature: 100},
			want:       VerdictNoBreach,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.measured, tt.thresholds))
		})
	}
}
