package models

import "time"

// Confidence grades a finding. Graded once per instrument per pass and
// applied uniformly to every finding produced in that pass.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Rank orders confidence grades (High > Medium > Low).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Blueprint labels for the day-type catalogue.
const (
	BlueprintRejectionLong  = "Long Rejection Day"
	BlueprintRejectionShort = "Short Rejection Day"
	BlueprintFailedNewHigh  = "Failed New High"
	BlueprintFailedNewLow   = "Failed New Low"
	BlueprintOutsideBull    = "Bullish Outside Day"
	BlueprintOutsideBear    = "Bearish Outside Day"
	BlueprintAbsorptionBull = "Bullish Absorption Day"
	BlueprintAbsorptionBear = "Bearish Absorption Day"
	BlueprintStopRunHigh    = "Stop Run High"
	BlueprintStopRunLow     = "Stop Run Low"
)

// Finding is one classified blueprint match for an instrument's session.
// Findings are immutable and recomputed from scratch on every pass.
type Finding struct {
	Symbol        string     `json:"symbol"`
	Blueprint     string     `json:"blueprint"`
	Confidence    Confidence `json:"confidence"`
	Price         float64    `json:"price"`
	ChangePercent float64    `json:"changePercent"`
	Volume        float64    `json:"volume"`
	Evidence      string     `json:"evidence"`
}

// ScanResult is one hub delivery: the filtered, sorted findings plus
// summary counts and the connection status at delivery time.
type ScanResult struct {
	Findings     []Finding  `json:"findings"`
	TotalFound   int        `json:"totalFound"`
	TotalScanned int        `json:"totalScanned"`
	Timestamp    time.Time  `json:"timestamp"`
	Status       FeedStatus `json:"status"`
}

// SortKey selects the ordering of findings in a delivery.
type SortKey string

const (
	SortBySymbol     SortKey = "symbol"     // lexicographic
	SortByPrice      SortKey = "price"      // descending
	SortByChange     SortKey = "change"     // descending
	SortByVolume     SortKey = "volume"     // descending
	SortByConfidence SortKey = "confidence" // High > Medium > Low, stable
)

// SubscriptionConfig is a subscriber's private filter/sort configuration.
type SubscriptionConfig struct {
	// BlueprintFilter is matched case-insensitively as a substring of
	// the blueprint label. Empty matches everything.
	BlueprintFilter string
	// ConfidenceFilter is an exact grade match. Empty matches everything.
	ConfidenceFilter Confidence
	SortKey          SortKey
}
