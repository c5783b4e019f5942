package utils

import (
	"math/rand"
	"strings"
)

const (
	MinGDPMultiplier = 1000
	MaxGDPMultiplier = 2000
)

// NormalizeName returns the uniqueness key for a country name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RandomGDPMultiplier draws uniformly from [MinGDPMultiplier, MaxGDPMultiplier].
// The resulting GDP is a synthetic placeholder, not an economic figure.
func RandomGDPMultiplier() int {
	return MinGDPMultiplier + rand.Intn(MaxGDPMultiplier-MinGDPMultiplier+1)
}

// EstimateGDP computes population * multiplier / rate. A missing or zero rate
// yields a GDP of 0 and a nil rate.
func EstimateGDP(population int64, rate *float64, multiplier int) (float64, *float64) {
	if rate == nil || *rate == 0 {
		return 0, nil
	}
	r := *rate
	return float64(population) * float64(multiplier) / r, &r
}

// LookupRate resolves the exchange rate for code, if the upstream listed one.
func LookupRate(rates map[string]float64, code string) *float64 {
	if code == "" {
		return nil
	}
	rate, ok := rates[code]
	if !ok {
		return nil
	}
	return &rate
}
