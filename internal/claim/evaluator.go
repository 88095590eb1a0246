// Package claim holds the breach decision logic. This is pure domain logic:
// no I/O, no state, no side effects. The payout processor calls Evaluate
// once per cycle against a single oracle snapshot, and the verdict applies
// uniformly to every policy considered in that cycle.
package claim

import (
	"parasol/internal/ledger"
	"parasol/internal/oracle"
)

// Verdict is the binary outcome of evaluating a snapshot against the
// configured thresholds.
type Verdict string

const (
	VerdictBreach   Verdict = "breach"
	VerdictNoBreach Verdict = "no_breach"
)

// Evaluate renders the breach verdict. A breach occurs when measured
// rainfall falls below the rainfall threshold or measured temperature rises
// above the temperature threshold. Both comparisons are strict: a
// measurement sitting exactly on a cutoff is not a breach and pays nothing.
func Evaluate(measured oracle.Measurement, thresholds ledger.Thresholds) Verdict {
	if measured.Rainfall < thresholds.Rainfall {
		return VerdictBreach
	}
	if measured.Temperature > thresholds.Temperature {
		return VerdictBreach
	}
	return VerdictNoBreach
}
