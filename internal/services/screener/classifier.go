package screener

import (
	"fmt"
	"math"

	"BlueprintScan/internal/domain/models"
)

// Threshold constants for the day-type catalogue.
const (
	rejectionRangeADRRatio = 1.25
	rejectionTailBodyRatio = 2.5
	rejectionClosePosition = 0.35 // outer share of the range on each side
	rejectionMinChange     = 2.0

	failedMoveMinChange = 3.0
	failedMoveMinAbs    = 5.0

	outsideMinChange    = 8.0
	outsideRangeVsPrice = 0.05
	absorptionBodyRatio = 0.7
	absorptionMinChange = 3.0
	absorptionMinVolume = 1_000_000
	stopRunWickRatio    = 0.4
	stopRunMaxChange    = 2.0

	highVolume   = 1_000_000
	mediumVolume = 500_000
)

// Classify evaluates one instrument snapshot against the blueprint
// catalogue. It is a pure function: identical inputs always yield
// identical findings. adr is the instrument's average daily range
// baseline; callers should treat its influence as advisory.
func Classify(s models.InstrumentSnapshot, adr float64) []models.Finding {
	rng := s.High - s.Low
	body := math.Abs(s.Close - s.Open)
	upperWick := s.High - math.Max(s.Open, s.Close)
	lowerWick := math.Min(s.Open, s.Close) - s.Low
	changePct := math.Abs(s.ChangePercent)

	grade := gradeConfidence(changePct, s.Volume)
	var findings []models.Finding

	add := func(blueprint, evidence string) {
		findings = append(findings, models.Finding{
			Symbol:        s.Symbol,
			Blueprint:     blueprint,
			Confidence:    grade,
			Price:         s.Price,
			ChangePercent: s.ChangePercent,
			Volume:        s.Volume,
			Evidence:      evidence,
		})
	}

	// Rejection Day: an oversized range where price probed one extreme
	// and closed hard against it. The only rule normalized by ADR.
	if rng > 0 && adr > 0 && rng > rejectionRangeADRRatio*adr && changePct > rejectionMinChange {
		tailBody := 0.0
		closePos := (s.Close - s.Low) / rng
		bullish := s.Close > s.Open
		bearish := s.Close < s.Open

		tail := 0.0
		if bullish {
			tail = lowerWick
		} else if bearish {
			tail = upperWick
		}
		if body > 0 {
			tailBody = tail / body
		}

		if tailBody > rejectionTailBodyRatio {
			evidence := fmt.Sprintf("range %.0f%% of ADR, tail/body %.2f, close at %.0f%% of range",
				rng/adr*100, tailBody, closePos*100)
			if bullish && closePos >= 1-rejectionClosePosition {
				add(models.BlueprintRejectionLong, evidence)
			} else if bearish && closePos <= rejectionClosePosition {
				add(models.BlueprintRejectionShort, evidence)
			}
		}
	}

	// Failed New High: a strong down day that closed below its open.
	if s.ChangePercent < -failedMoveMinChange && s.Close < s.Open && changePct > failedMoveMinAbs {
		add(models.BlueprintFailedNewHigh,
			fmt.Sprintf("24h change %.2f%% with bearish close %.4f below open %.4f", s.ChangePercent, s.Close, s.Open))
	}

	// Failed New Low: the mirror image.
	if s.ChangePercent > failedMoveMinChange && s.Close > s.Open && changePct > failedMoveMinAbs {
		add(models.BlueprintFailedNewLow,
			fmt.Sprintf("24h change %.2f%% with bullish close %.4f above open %.4f", s.ChangePercent, s.Close, s.Open))
	}

	// Outside Day: outsized move and range relative to price.
	if s.Price > 0 && changePct > outsideMinChange && rng/s.Price > outsideRangeVsPrice {
		evidence := fmt.Sprintf("24h change %.2f%%, range %.1f%% of price", s.ChangePercent, rng/s.Price*100)
		if s.ChangePercent >= 0 {
			add(models.BlueprintOutsideBull, evidence)
		} else {
			add(models.BlueprintOutsideBear, evidence)
		}
	}

	// Absorption Day: one-directional body with little wick, on volume.
	if rng > 0 && body/rng > absorptionBodyRatio && changePct > absorptionMinChange && s.Volume > absorptionMinVolume {
		evidence := fmt.Sprintf("body %.0f%% of range on %.2f%% move", body/rng*100, s.ChangePercent)
		if s.ChangePercent >= 0 {
			add(models.BlueprintAbsorptionBull, evidence)
		} else {
			add(models.BlueprintAbsorptionBear, evidence)
		}
	}

	// Stop Run Day: a dominant wick with a flat net change.
	if rng > 0 && changePct < stopRunMaxChange {
		wick := math.Max(upperWick, lowerWick)
		if wick/rng > stopRunWickRatio {
			evidence := fmt.Sprintf("dominant wick %.0f%% of range, 24h change %.2f%%", wick/rng*100, s.ChangePercent)
			if upperWick >= lowerWick {
				add(models.BlueprintStopRunHigh, evidence)
			} else {
				add(models.BlueprintStopRunLow, evidence)
			}
		}
	}

	return findings
}

// gradeConfidence assigns the shared per-instrument grade. It is
// monotonic: raising volume or change magnitude never lowers the grade.
func gradeConfidence(changePct, volume float64) models.Confidence {
	switch {
	case changePct > 10 && volume > highVolume:
		return models.ConfidenceHigh
	case changePct > 5 && volume > mediumVolume:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
