package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

// Placeholder tokens understood by the deployment templates. RunIdPlaceholder
// must occur at least once; the argument tokens are quoted command-line
// defaults that overrides substitute in place.
const (
	RunIdPlaceholder = "RUN_ID_PLACEHOLDER"

	numRoundsToken  = `"--num-rounds", "10"`
	minClientsToken = `"--min-clients", "5"`
	splitModeToken  = `"--split-mode", "iid"`
	alphaToken      = `"--alpha", "0.5"`
	dataSeedToken   = `"--data-seed", "42"`
)

// Overrides are the per-run parameters injected into the template. Zero
// values keep the template defaults.
type Overrides struct {
	NumRounds  int
	NumClients int
	SplitMode  string
	Alpha      float64
	DataSeed   *int
}

func OverridesFromRunConfig(config domain.RunConfig) Overrides {
	seed := config.DataSeed
	return Overrides{
		NumRounds:  config.NumRounds,
		NumClients: config.NumClients,
		SplitMode:  config.SplitMode(),
		Alpha:      config.Alpha,
		DataSeed:   &seed,
	}
}

// TemplatePathForSecurityLevel maps a security level to its manifest
// template below manifestDir.
func TemplatePathForSecurityLevel(manifestDir string, level domain.SecurityLevel) string {
	dirs := map[domain.SecurityLevel]string{
		domain.SEC0: "sec0-baseline",
		domain.SEC1: "sec1-networkpolicy",
		domain.SEC2: "sec2-mtls",
		domain.SEC3: "sec3-combined",
	}
	return filepath.Join(manifestDir, dirs[level], "fl-deployment.yaml")
}

// Instantiate renders the template at templatePath for the given run:
// every occurrence of the run id placeholder is replaced and every override
// is substituted into its argument token. The rendered manifest is written
// to a temp file scoped by run id. The returned cleanup removes that file
// and must be called on every exit path.
func Instantiate(templatePath string, runId string, overrides Overrides) (string, func(), error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return "", nil, errors.Wrapf(err, "manifest template %s", templatePath)
	}

	content := string(raw)
	if !strings.Contains(content, RunIdPlaceholder) {
		return "", nil, errors.Errorf("manifest template %s contains no %s token", templatePath, RunIdPlaceholder)
	}
	content = strings.ReplaceAll(content, RunIdPlaceholder, runId)
	content = substituteOverrides(content, overrides)

	outputPath := filepath.Join(os.TempDir(), fmt.Sprintf("fl-deployment-%s.yaml", runId))
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return "", nil, errors.Wrapf(err, "writing manifest for run %s", runId)
	}

	log.WithFields(log.Fields{
		"source": templatePath,
		"output": outputPath,
		"runId":  runId,
	}).Info("manifest prepared")

	cleanup := func() {
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warnf("failed to remove temp manifest %s", outputPath)
		}
	}
	return outputPath, cleanup, nil
}

func substituteOverrides(content string, overrides Overrides) string {
	if overrides.NumRounds > 0 {
		content = strings.ReplaceAll(content, numRoundsToken,
			fmt.Sprintf(`"--num-rounds", "%d"`, overrides.NumRounds))
	}
	if overrides.NumClients > 0 {
		content = strings.ReplaceAll(content, minClientsToken,
			fmt.Sprintf(`"--min-clients", "%d"`, overrides.NumClients))
	}
	if overrides.SplitMode != "" {
		content = strings.ReplaceAll(content, splitModeToken,
			fmt.Sprintf(`"--split-mode", "%s"`, overrides.SplitMode))
	}
	if overrides.Alpha > 0 {
		content = strings.ReplaceAll(content, alphaToken,
			fmt.Sprintf(`"--alpha", "%g"`, overrides.Alpha))
	}
	if overrides.DataSeed != nil {
		content = strings.ReplaceAll(content, dataSeedToken,
			fmt.Sprintf(`"--data-seed", "%d"`, *overrides.DataSeed))
	}
	return content
}
