package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Run ids scope every Kubernetes resource and log artifact belonging to one
// run, so they must be valid RFC 1123 label values: lowercase alphanumerics
// and hyphens, alphanumeric first and last characters, at most 63 characters.
var resourceNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

const maxResourceNameLength = 63

// NewRunId returns a globally unique run identifier of the form
// sec2-net3-1693390000-9bc61ad4. The structured prefix lets the log parser
// recover the security level and network profile without any side channel.
func NewRunId(level SecurityLevel, profile NetworkProfile) string {
	return NewRunIdAtTime(level, profile, time.Now())
}

func NewRunIdAtTime(level SecurityLevel, profile NetworkProfile, t time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s-%d-%s",
		strings.ToLower(string(level)), strings.ToLower(string(profile)), t.Unix(), suffix)
}

// ParseRunId recovers the security level and network profile from the
// structured prefix of a run id.
func ParseRunId(runId string) (SecurityLevel, NetworkProfile, error) {
	parts := strings.SplitN(runId, "-", 3)
	if len(parts) < 3 {
		return "", "", errors.Errorf("malformed run id %q", runId)
	}
	level, err := ParseSecurityLevel(strings.ToUpper(parts[0]))
	if err != nil {
		return "", "", errors.Wrapf(err, "malformed run id %q", runId)
	}
	profile, err := ParseNetworkProfile(strings.ToUpper(parts[1]))
	if err != nil {
		return "", "", errors.Wrapf(err, "malformed run id %q", runId)
	}
	return level, profile, nil
}

// IsValidResourceName reports whether s can be used as a Kubernetes label
// value and resource name component.
func IsValidResourceName(s string) bool {
	if len(s) == 0 || len(s) > maxResourceNameLength {
		return false
	}
	return resourceNamePattern.MatchString(s)
}
