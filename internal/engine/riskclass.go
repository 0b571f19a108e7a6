package engine

import "github.com/nexoratech/riskvault/internal/models"

// moderateRPNBoundary is the fixed lower edge of the moderate band. It is a
// constant of the methodology, independent of configuration.
const moderateRPNBoundary = 100

// RiskClassifier maps an RPN to its discrete risk level. Pure function of the
// RPN; the only tunable is the critical threshold.
type RiskClassifier struct {
	criticalThreshold int
}

// NewRiskClassifier constructs a classifier. Thresholds below the moderate
// boundary would collapse the moderate band entirely, so they are lifted to
// the boundary; config validation rejects them before this point in normal
// operation.
func NewRiskClassifier(criticalThreshold int) *RiskClassifier {
	if criticalThreshold < moderateRPNBoundary {
		criticalThreshold = moderateRPNBoundary
	}
	return &RiskClassifier{criticalThreshold: criticalThreshold}
}

// Level classifies an RPN. An RPN exactly at the critical threshold stays
// moderate: critical requires strictly greater.
func (c *RiskClassifier) Level(rpn int) models.RiskLevel {
	switch {
	case rpn > c.criticalThreshold:
		return models.RiskCritical
	case rpn >= moderateRPNBoundary:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}
