package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
)

func TestClassifier_Classify(t *testing.T) {
	c := DefaultClassifier()
	tests := []struct {
		pct  int
		want Tier
	}{
		{pct: 100, want: TierGood},
		{pct: 92, want: TierGood},
		{pct: 90, want: TierGood},
		{pct: 89, want: TierAverage},
		{pct: 80, want: TierAverage},
		{pct: 75, want: TierAverage},
		{pct: 74, want: TierPoor},
		{pct: 60, want: TierPoor},
		{pct: 0, want: TierPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.pct), "Classify(%d)", tt.pct)
	}
}

func TestNewClassifier(t *testing.T) {
	assert.Equal(t, DefaultClassifier(), NewClassifier(core.AttendanceConfig{}))

	c := NewClassifier(core.AttendanceConfig{GoodThreshold: 80, AverageThreshold: 50})
	assert.Equal(t, TierGood, c.Classify(80))
	assert.Equal(t, TierAverage, c.Classify(50))
	assert.Equal(t, TierPoor, c.Classify(49))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 80, Percentage(20, 25))
	assert.Equal(t, 100, Percentage(25, 25))
	assert.Equal(t, 92, Percentage(23, 25))
}
