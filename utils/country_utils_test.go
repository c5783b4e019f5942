package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "nigeria", NormalizeName("  Nigeria "))
	assert.Equal(t, "united states of america", NormalizeName("United States of America"))
	assert.Equal(t, "", NormalizeName("   "))
}

// The GDP multiplier is deliberately random; only its bounds are asserted.
func TestRandomGDPMultiplierStaysInRange(t *testing.T) {
	seenMin, seenMax := MaxGDPMultiplier, MinGDPMultiplier
	for i := 0; i < 5000; i++ {
		m := RandomGDPMultiplier()
		assert.GreaterOrEqual(t, m, MinGDPMultiplier)
		assert.LessOrEqual(t, m, MaxGDPMultiplier)
		seenMin = min(seenMin, m)
		seenMax = max(seenMax, m)
	}
	assert.Less(t, seenMin, seenMax, "multiplier should vary between draws")
}

func TestEstimateGDP(t *testing.T) {
	rate := func(f float64) *float64 { return &f }

	tests := []struct {
		name       string
		population int64
		rate       *float64
		multiplier int
		wantGDP    float64
		wantRate   *float64
	}{
		{name: "With rate", population: 1000, rate: rate(2), multiplier: 1500, wantGDP: 750000, wantRate: rate(2)},
		{name: "Nil rate", population: 1000, rate: nil, multiplier: 1500, wantGDP: 0, wantRate: nil},
		{name: "Zero rate", population: 1000, rate: rate(0), multiplier: 1500, wantGDP: 0, wantRate: nil},
		{name: "Zero population", population: 0, rate: rate(4), multiplier: 1000, wantGDP: 0, wantRate: rate(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdp, gotRate := EstimateGDP(tt.population, tt.rate, tt.multiplier)
			assert.InDelta(t, tt.wantGDP, gdp, 1e-9)
			assert.Equal(t, tt.wantRate, gotRate)
		})
	}
}

func TestLookupRate(t *testing.T) {
	rates := map[string]float64{"NGN": 1600.5, "ZZZ": 0}

	got := LookupRate(rates, "NGN")
	if assert.NotNil(t, got) {
		assert.Equal(t, 1600.5, *got)
	}
	assert.Nil(t, LookupRate(rates, "EUR"))
	assert.Nil(t, LookupRate(rates, ""))
	assert.NotNil(t, LookupRate(rates, "ZZZ"), "a listed zero rate is returned and rejected by EstimateGDP")
}
