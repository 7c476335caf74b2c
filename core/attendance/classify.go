package attendance

import (
	"math"

	"github.com/trezcool/mahudhurio/core"
)

// Tier is the classification bucket of an attendance percentage.
type Tier string

// Tiers
const (
	TierGood    Tier = "good"
	TierAverage Tier = "average"
	TierPoor    Tier = "poor"
)

// Classifier buckets attendance percentages: >= Good is good, >= Average is average, anything lower is poor.
type Classifier struct {
	Good    int
	Average int
}

func DefaultClassifier() Classifier {
	return Classifier{Good: 90, Average: 75}
}

func NewClassifier(conf core.AttendanceConfig) Classifier {
	c := DefaultClassifier()
	if conf.GoodThreshold > 0 {
		c.Good = conf.GoodThreshold
	}
	if conf.AverageThreshold > 0 {
		c.Average = conf.AverageThreshold
	}
	return c
}

func (c Classifier) Classify(pct int) Tier {
	switch {
	case pct >= c.Good:
		return TierGood
	case pct >= c.Average:
		return TierAverage
	default:
		return TierPoor
	}
}

// Percentage returns round(part/total*100), or 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
