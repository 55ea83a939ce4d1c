package risk

import (
	"strconv"
	"strings"
)

// The seven base feature slots, in classifier input order.
const (
	slotAmount = iota
	slotHourOfDay
	slotIsBlacklisted
	slotIsFlagged
	slotHasLocation
	slotIsMobile
	slotIsOffHours

	// NumBaseFeatures is the width of the fixed part of every feature vector.
	NumBaseFeatures = 7
)

// offHoursEnd bounds the half-open off-hours window [0, 6);
// a transaction at 06:00 is not off-hours.
const offHoursEnd = 6

// mobileDevice is the only metadata.device value treated as mobile.
const mobileDevice = "mobile"

// Features is the decoded per-transaction signal set. It feeds both the
// classifier (via Vector) and the rule engine, which reads the named
// fields directly.
type Features struct {
	Amount        float64
	HourOfDay     int
	IsBlacklisted bool
	IsFlagged     bool
	HasLocation   bool
	IsMobile      bool
	IsOffHours    bool

	// Extra holds named extension values. Entries not declared by the
	// classifier are never encoded; the transactionId entry exists only
	// for downstream correlation and is not a model feature.
	Extra map[string]float64

	// TransactionID correlates the derived features back to their source.
	TransactionID string
}

// ExtractFeatures derives the feature set from a validated transaction.
// It fails with a ValidationError when the time portion of
// transactionTime cannot be parsed.
func ExtractFeatures(tx *Transaction) (*Features, error) {
	hour, err := hourOfDay(tx.TransactionTime)
	if err != nil {
		return nil, err
	}

	return &Features{
		Amount:        tx.Amount,
		HourOfDay:     hour,
		IsBlacklisted: tx.IsBlacklisted,
		IsFlagged:     tx.IsFlagged,
		HasLocation:   tx.Location != "",
		IsMobile:      tx.Metadata.Device == mobileDevice,
		IsOffHours:    hour < offHoursEnd,
		Extra:         map[string]float64{},
		TransactionID: tx.TransactionID,
	}, nil
}

// hourOfDay parses the hour component from an ISO-8601 style timestamp
// ("...T HH:MM..."). Only the time portion is inspected; the date part is
// not interpreted.
func hourOfDay(transactionTime string) (int, error) {
	_, timePart, found := strings.Cut(transactionTime, "T")
	if !found {
		return 0, &ValidationError{Field: "transactionTime", Reason: "is missing a time component"}
	}
	hourPart, _, found := strings.Cut(timePart, ":")
	if !found {
		return 0, &ValidationError{Field: "transactionTime", Reason: "has a malformed time component"}
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, &ValidationError{Field: "transactionTime", Reason: "has an unparsable hour"}
	}
	return hour, nil
}

// Vector encodes the features as the classifier input: the seven base
// slots followed by one slot per declared extension name, in the
// classifier's declared order. Extension values default to 0 when the
// transaction carries no matching entry; a mismatch in extension order
// would silently corrupt predictions, so the declared list is the single
// source of ordering.
func (f *Features) Vector(extensionNames []string) []float64 {
	vec := make([]float64, 0, NumBaseFeatures+len(extensionNames))
	vec = append(vec,
		f.Amount,
		float64(f.HourOfDay),
		boolToFloat(f.IsBlacklisted),
		boolToFloat(f.IsFlagged),
		boolToFloat(f.HasLocation),
		boolToFloat(f.IsMobile),
		boolToFloat(f.IsOffHours),
	)
	for _, name := range extensionNames {
		vec = append(vec, f.Extra[name])
	}
	return vec
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
