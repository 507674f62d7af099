package reputation

import (
	"math"
	"sort"

	deliveryModel "lastmile-address/models/delivery"
)

// Credit score weights: 60% historical success rate, and the 1-5 location
// accuracy average scaled onto the remaining 40 points.
const (
	successRateWeight   = 0.6
	locationScoreWeight = 8.0
)

// AddressCredit is the per-address credit view served to company dashboards.
type AddressCredit struct {
	AddressDigitalID string  `json:"address_digital_id"`
	TotalFeedback    int     `json:"total_feedback"`
	SuccessfulCount  int     `json:"successful_count"`
	SuccessRate      float64 `json:"success_rate"`
	AvgLocationScore float64 `json:"avg_location_score"`
	CreditScore      int     `json:"credit_score"`
}

// CreditScores groups feedback rows by address digital id and derives the
// 0-100 credit score for each. An address with zero feedback never appears;
// callers that need a row for it report a zero score.
func CreditScores(feedback []deliveryModel.DriverFeedback) []AddressCredit {
	type bucket struct {
		total      int
		successful int
		scoreSum   int
		scoreCount int
	}

	buckets := make(map[string]*bucket)
	for _, fb := range feedback {
		b := buckets[fb.AddressDigitalID]
		if b == nil {
			b = &bucket{}
			buckets[fb.AddressDigitalID] = b
		}
		b.total++
		if fb.DeliveryStatus.IsSuccess() {
			b.successful++
		}
		if fb.LocationScore != nil {
			b.scoreSum += *fb.LocationScore
			b.scoreCount++
		}
	}

	results := make([]AddressCredit, 0, len(buckets))
	for digitalID, b := range buckets {
		credit := AddressCredit{
			AddressDigitalID: digitalID,
			TotalFeedback:    b.total,
			SuccessfulCount:  b.successful,
		}
		if b.total > 0 {
			credit.SuccessRate = round2(float64(b.successful) / float64(b.total) * 100)
		}
		if b.scoreCount > 0 {
			credit.AvgLocationScore = round2(float64(b.scoreSum) / float64(b.scoreCount))
		}
		credit.CreditScore = creditScore(credit.SuccessRate, credit.AvgLocationScore)
		results = append(results, credit)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].AddressDigitalID < results[j].AddressDigitalID
	})
	return results
}

func creditScore(successRate, avgLocationScore float64) int {
	score := int(math.Round(successRate*successRateWeight + avgLocationScore*locationScoreWeight))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Coordinate is a plottable address position keyed by digital id.
type Coordinate struct {
	Lat float64
	Lng float64
}

// HotspotPoint is one plottable address with its merged event counts.
type HotspotPoint struct {
	AddressDigitalID string  `json:"address_digital_id"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	LookupCount      int     `json:"lookup_count"`
	CompletedCount   int     `json:"completed_count"`
	FailedCount      int     `json:"failed_count"`
	SuccessRate      float64 `json:"success_rate"`
	AvgLocationScore float64 `json:"avg_location_score"`
	Intensity        float64 `json:"intensity"`
}

// HotspotSummary is derived by summing/averaging the point list, never
// recomputed independently, so it always agrees with the points.
type HotspotSummary struct {
	TotalLookups     int     `json:"total_lookups"`
	TotalCompleted   int     `json:"total_completed"`
	TotalFailed      int     `json:"total_failed"`
	AvgSuccessRate   float64 `json:"avg_success_rate"`
	AvgLocationScore float64 `json:"avg_location_score"`
	UniqueAddresses  int     `json:"unique_addresses"`
}

// Hotspots merges three independent event sources keyed by address digital
// id: lookup counts (driver access attempts), feedback location scores, and
// terminal delivery outcomes. Addresses without stored coordinates cannot be
// plotted and are dropped before intensity normalization.
func Hotspots(
	lookups []deliveryModel.ShipmentLookup,
	feedback []deliveryModel.DriverFeedback,
	outcomes []deliveryModel.DeliveryOutcome,
	coords map[string]Coordinate,
) ([]HotspotPoint, HotspotSummary) {
	type bucket struct {
		lookupCount int
		completed   int
		failed      int
		scoreSum    int
		scoreCount  int
	}

	buckets := make(map[string]*bucket)
	get := func(digitalID string) *bucket {
		b := buckets[digitalID]
		if b == nil {
			b = &bucket{}
			buckets[digitalID] = b
		}
		return b
	}

	for _, lk := range lookups {
		get(lk.AddressDigitalID).lookupCount++
	}
	for _, fb := range feedback {
		if fb.LocationScore != nil {
			b := get(fb.AddressDigitalID)
			b.scoreSum += *fb.LocationScore
			b.scoreCount++
		}
	}
	for _, out := range outcomes {
		b := get(out.AddressDigitalID)
		if out.Status.IsSuccess() {
			b.completed++
		} else {
			b.failed++
		}
	}

	points := make([]HotspotPoint, 0, len(buckets))
	maxLookups := 0
	for digitalID, b := range buckets {
		coord, ok := coords[digitalID]
		if !ok {
			continue
		}
		p := HotspotPoint{
			AddressDigitalID: digitalID,
			Lat:              coord.Lat,
			Lng:              coord.Lng,
			LookupCount:      b.lookupCount,
			CompletedCount:   b.completed,
			FailedCount:      b.failed,
		}
		if terminal := b.completed + b.failed; terminal > 0 {
			p.SuccessRate = round2(float64(b.completed) / float64(terminal) * 100)
		}
		if b.scoreCount > 0 {
			p.AvgLocationScore = round2(float64(b.scoreSum) / float64(b.scoreCount))
		}
		points = append(points, p)
		if b.lookupCount > maxLookups {
			maxLookups = b.lookupCount
		}
	}

	if maxLookups < 1 {
		maxLookups = 1
	}
	for i := range points {
		points[i].Intensity = round2(float64(points[i].LookupCount) / float64(maxLookups))
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].LookupCount > points[j].LookupCount
	})

	return points, summarize(points)
}

func summarize(points []HotspotPoint) HotspotSummary {
	summary := HotspotSummary{UniqueAddresses: len(points)}
	if len(points) == 0 {
		return summary
	}

	var successSum, scoreSum float64
	for _, p := range points {
		summary.TotalLookups += p.LookupCount
		summary.TotalCompleted += p.CompletedCount
		summary.TotalFailed += p.FailedCount
		successSum += p.SuccessRate
		scoreSum += p.AvgLocationScore
	}
	summary.AvgSuccessRate = round2(successSum / float64(len(points)))
	summary.AvgLocationScore = round2(scoreSum / float64(len(points)))
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
