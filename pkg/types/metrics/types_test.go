package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirection_IsValid(t *testing.T) {
	assert.True(t, DirectionBackward.IsValid())
	assert.True(t, DirectionForward.IsValid())
	assert.False(t, Direction("sideways").IsValid())
}

func TestQualityWeight(t *testing.T) {
	tests := []struct {
		quality  MatchQuality
		expected float64
	}{
		{QualityHigh, 1.0},
		{QualityMedium, 0.7},
		{QualityLow, 0.4},
		{QualityPoor, 0.1},
		{MatchQuality("bogus"), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, QualityWeight(tt.quality))
	}
}

func TestClassifyMatchRate(t *testing.T) {
	tests := []struct {
		rate     float64
		expected MatchQuality
	}{
		{100, QualityHigh},
		{75.1, QualityHigh},
		{75, QualityMedium},
		{50.5, QualityMedium},
		{50, QualityLow},
		{25.5, QualityLow},
		{25, QualityPoor},
		{0, QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyMatchRate(tt.rate), "rate=%v", tt.rate)
	}
}

func TestFirmYearRecord_Key(t *testing.T) {
	r := FirmYearRecord{Company: "Acme", Year: 2015}
	assert.Equal(t, "Acme:2015", r.Key())
}

func TestBatchSummary_FailedCompanies(t *testing.T) {
	s := BatchSummary{
		Succeeded: []string{"Acme"},
		Failed: []CompanyResult{
			{Company: "Globex", Error: "roster missing"},
			{Company: "Initech", Error: "schema violation"},
		},
	}
	assert.Equal(t, []string{"Globex", "Initech"}, s.FailedCompanies())
}
