package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// SecurityLevel selects which zero-trust controls are active for a run.
type SecurityLevel string

const (
	// SEC0 is the insecure baseline: no NetworkPolicy, no mTLS.
	SEC0 SecurityLevel = "SEC0"
	// SEC1 adds NetworkPolicy segmentation.
	SEC1 SecurityLevel = "SEC1"
	// SEC2 adds mTLS between server and clients.
	SEC2 SecurityLevel = "SEC2"
	// SEC3 combines NetworkPolicy and mTLS.
	SEC3 SecurityLevel = "SEC3"
)

// NetworkProfile selects the emulated network characteristics for a run.
// NET0 is the unimpaired baseline; NET1..NET5 are progressively degraded.
type NetworkProfile string

const (
	NET0 NetworkProfile = "NET0"
	NET1 NetworkProfile = "NET1"
	NET2 NetworkProfile = "NET2"
	NET3 NetworkProfile = "NET3"
	NET4 NetworkProfile = "NET4"
	NET5 NetworkProfile = "NET5"
)

func SecurityLevels() []SecurityLevel {
	return []SecurityLevel{SEC0, SEC1, SEC2, SEC3}
}

func NetworkProfiles() []NetworkProfile {
	return []NetworkProfile{NET0, NET1, NET2, NET3, NET4, NET5}
}

func ParseSecurityLevel(s string) (SecurityLevel, error) {
	for _, level := range SecurityLevels() {
		if s == string(level) {
			return level, nil
		}
	}
	return "", errors.Errorf("unknown security level %q (expected one of SEC0..SEC3)", s)
}

func ParseNetworkProfile(s string) (NetworkProfile, error) {
	for _, profile := range NetworkProfiles() {
		if s == string(profile) {
			return profile, nil
		}
	}
	return "", errors.Errorf("unknown network profile %q (expected one of NET0..NET5)", s)
}

// IsBaseline reports whether the profile carries no network impairment.
func (p NetworkProfile) IsBaseline() bool {
	return p == NET0
}

// RunConfig identifies exactly one benchmark trial. Instances are values and
// are never mutated after creation.
type RunConfig struct {
	SecurityLevel  SecurityLevel
	NetworkProfile NetworkProfile
	NumClients     int
	NumRounds      int
	IID            bool
	Alpha          float64
	DataSeed       int
}

// SplitMode returns the short name of the data distribution used by the run.
func (c RunConfig) SplitMode() string {
	if c.IID {
		return "iid"
	}
	return "noniid"
}

func (c RunConfig) String() string {
	return fmt.Sprintf("%s %s %s %dc %dr seed=%d",
		c.SecurityLevel, c.NetworkProfile, c.SplitMode(), c.NumClients, c.NumRounds, c.DataSeed)
}
