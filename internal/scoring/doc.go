// Package scoring computes multi-factor recommendation scores for candidate
// events with calibration support.
//
// The standard formula blends five factors, each in [0, 1]:
//
//	final = (geo * wGeo) + (interest * wInterest) + (interaction * wInteraction) +
//	        (popularity * wPopularity) + (recency * wRecency)
//
// clamped to [0, 1]. Users without interaction history ("cold start") are
// scored with a reduced formula that leans on proximity and popularity:
//
//	no declared interests:   geo 0.60, popularity 0.30, recency 0.10
//	with declared interests: geo 0.50, interest 0.20, popularity 0.20, recency 0.10
//
// Two derivative formulas serve the trending and similar-events views:
//
//	trending: (popularity * 0.7) + (recency * 0.3)
//	similar:  (geo-to-target * 0.6) + (popularity * 0.4)
//
// All scoring functions are pure: identical inputs produce identical
// breakdowns. The reference time is always passed in by the caller.
package scoring
