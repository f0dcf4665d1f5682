package campaign

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// Tier selects how many dimensions of the experiment matrix vary.
type Tier string

const (
	TierNarrow Tier = "narrow"
	TierMedium Tier = "medium"
	TierWide   Tier = "wide"
)

const (
	defaultNumRounds = 10
	defaultAlpha     = 0.5
	numSeeds         = 5
)

func Tiers() []Tier {
	return []Tier{TierNarrow, TierMedium, TierWide}
}

func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToLower(value)) {
	case TierNarrow:
		return TierNarrow, nil
	case TierMedium:
		return TierMedium, nil
	case TierWide:
		return TierWide, nil
	}
	return "", errors.Errorf("unknown campaign tier %q (want narrow, medium or wide)", value)
}

// Matrix enumerates the cross-product of run configurations for a tier.
// The order is deterministic so a resume index identifies the same
// configuration across invocations: network profile is the outermost
// dimension, then security level, split mode, client count and seed.
func Matrix(tier Tier) ([]domain.RunConfig, error) {
	var profiles []domain.NetworkProfile
	var clientCounts []int
	switch tier {
	case TierNarrow:
		profiles = []domain.NetworkProfile{domain.NET0, domain.NET2}
		clientCounts = []int{5}
	case TierMedium:
		profiles = []domain.NetworkProfile{domain.NET0, domain.NET2, domain.NET4}
		clientCounts = []int{5, 10}
	case TierWide:
		profiles = []domain.NetworkProfile{
			domain.NET0, domain.NET1, domain.NET2, domain.NET3, domain.NET4, domain.NET5,
		}
		clientCounts = []int{5, 10}
	default:
		return nil, errors.Errorf("unknown campaign tier %q", tier)
	}

	configs := []domain.RunConfig{}
	for _, profile := range profiles {
		for _, level := range domain.SecurityLevels() {
			for _, iid := range []bool{true, false} {
				for _, numClients := range clientCounts {
					for seed := 0; seed < numSeeds; seed++ {
						config := domain.RunConfig{
							SecurityLevel:  level,
							NetworkProfile: profile,
							NumClients:     numClients,
							NumRounds:      defaultNumRounds,
							IID:            iid,
							DataSeed:       seed,
						}
						if !iid {
							config.Alpha = defaultAlpha
						}
						configs = append(configs, config)
					}
				}
			}
		}
	}
	return configs, nil
}
