package verify

import (
	"testing"

	"slotguard/internal/monitor"
)

func TestRiskUltraSafeHealthyFullConsensus(t *testing.T) {
	risk := RiskScore(UltraSafe, monitor.Healthy, 1.0)
	if risk >= 0.1 {
		t.Fatalf("best case must score below 0.1, got %v", risk)
	}
}

func TestRiskFastForkedPartialConsensus(t *testing.T) {
	risk := RiskScore(Fast, monitor.Forked, 0.75)
	if risk <= 0.3 {
		t.Fatalf("forked network must score above 0.3, got %v", risk)
	}
}

func TestRiskHaltedWeight(t *testing.T) {
	halted := RiskScore(Safe, monitor.Halted, 1.0)
	healthy := RiskScore(Safe, monitor.Healthy, 1.0)
	if halted-healthy != 0.5 {
		t.Fatalf("halt weight must add 0.5, got %v", halted-healthy)
	}
}

func TestRiskClampedForOutOfRangeRatio(t *testing.T) {
	if risk := RiskScore(Fast, monitor.Halted, -5.0); risk != 1.0 {
		t.Fatalf("risk must clamp to 1, got %v", risk)
	}
	if risk := RiskScore(UltraSafe, monitor.Healthy, 10.0); risk != 0.0 {
		t.Fatalf("risk must clamp to 0, got %v", risk)
	}
}

func TestIsAcceptableRisk(t *testing.T) {
	if !IsAcceptableRisk(0.1, 0.2) {
		t.Fatal("0.1 must be acceptable under threshold 0.2")
	}
	if IsAcceptableRisk(0.3, 0.2) {
		t.Fatal("0.3 must not be acceptable under threshold 0.2")
	}
	if !IsAcceptableRisk(0.2, 0.2) {
		t.Fatal("threshold is inclusive")
	}
}
