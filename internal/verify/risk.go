package verify

import "slotguard/internal/monitor"

// Risk weights. Weaker finality, degraded network health, and thin source
// agreement each push the score up.
const (
	riskFinalityUltraSafe = 0.01
	riskFinalitySafe      = 0.05
	riskFinalityFast      = 0.15

	riskHealthForked = 0.3
	riskHealthHalted = 0.5

	riskConsensusWeight = 0.2
)

// RiskScore maps verification facts to a scalar in [0, 1]; 0 is no risk.
func RiskScore(finality FinalityLevel, health monitor.NetworkHealth, consensusRatio float64) float64 {
	risk := 0.0

	switch finality {
	case UltraSafe:
		risk += riskFinalityUltraSafe
	case Safe:
		risk += riskFinalitySafe
	default:
		risk += riskFinalityFast
	}

	switch health {
	case monitor.Forked:
		risk += riskHealthForked
	case monitor.Halted:
		risk += riskHealthHalted
	}

	risk += (1.0 - consensusRatio) * riskConsensusWeight

	return clamp01(risk)
}

// IsAcceptableRisk reports whether a score passes the caller's threshold.
func IsAcceptableRisk(risk, threshold float64) bool {
	return risk <= threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
