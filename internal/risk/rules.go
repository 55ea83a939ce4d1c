package risk

// Human-readable factor strings, kept stable because downstream consumers
// match on them.
const (
	FactorHighRisk    = "High risk transaction"
	FactorBlacklisted = "Blacklisted account involved"
	FactorFlagged     = "Previously flagged transaction"
	FactorOffHours    = "Off-hours transaction"
	FactorLargeMobile = "Large mobile transaction"
)

// LargeMobileAmount is the amount above which a mobile transaction is
// considered large.
const LargeMobileAmount = 10000

// Evaluate translates a classifier score and the derived features into a
// complete assessment. It is a pure function: no state, no I/O, identical
// output for identical input.
//
// Factors are appended in a fixed evaluation order. Recommendations depend
// on the risk level alone.
func Evaluate(score float64, f *Features) *Assessment {
	level := LevelFromScore(score)

	factors := make([]string, 0, 5)
	if score >= HighThreshold {
		factors = append(factors, FactorHighRisk)
	}
	if f.IsBlacklisted {
		factors = append(factors, FactorBlacklisted)
	}
	if f.IsFlagged {
		factors = append(factors, FactorFlagged)
	}
	if f.IsOffHours {
		factors = append(factors, FactorOffHours)
	}
	if f.IsMobile && f.Amount > LargeMobileAmount {
		factors = append(factors, FactorLargeMobile)
	}

	return &Assessment{
		TransactionID:   f.TransactionID,
		Score:           score,
		Level:           level,
		Factors:         factors,
		Recommendations: Recommendations(level),
	}
}

// Recommendations returns the recommended actions for a risk level.
// The slice is always non-nil so it serializes as [] rather than null.
func Recommendations(level Level) []string {
	switch level {
	case LevelHigh:
		return []string{"Block transaction immediately", "Create fraud alert"}
	case LevelMedium:
		return []string{"Monitor transaction closely", "Contact customer"}
	default:
		return []string{}
	}
}
