package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

const testTemplate = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: fl-server-RUN_ID_PLACEHOLDER
  labels:
    app: fl-server
    run-id: "RUN_ID_PLACEHOLDER"
spec:
  replicas: 1
  selector:
    matchLabels:
      app: fl-server
      run-id: "RUN_ID_PLACEHOLDER"
  template:
    metadata:
      labels:
        app: fl-server
        run-id: "RUN_ID_PLACEHOLDER"
    spec:
      containers:
        - name: fl-server
          image: flbench/fl-server:latest
          args: ["--num-rounds", "10", "--min-clients", "5", "--split-mode", "iid", "--alpha", "0.5", "--data-seed", "42"]
`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fl-deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInstantiate_ReplacesEveryPlaceholderOccurrence(t *testing.T) {
	path := writeTemplate(t, testTemplate)

	rendered, cleanup, err := Instantiate(path, "sec0-net0-1693390000-abcd1234", Overrides{})
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(rendered)
	require.NoError(t, err)
	assert.NotContains(t, string(content), RunIdPlaceholder)
	assert.Equal(t, 4, strings.Count(string(content), "sec0-net0-1693390000-abcd1234"))
}

func TestInstantiate_SubstitutesOverrides(t *testing.T) {
	path := writeTemplate(t, testTemplate)
	seed := 7

	rendered, cleanup, err := Instantiate(path, "sec1-net2-1693390000-abcd1234", Overrides{
		NumRounds:  50,
		NumClients: 10,
		SplitMode:  "noniid",
		Alpha:      0.1,
		DataSeed:   &seed,
	})
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(rendered)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"--num-rounds", "50"`)
	assert.Contains(t, string(content), `"--min-clients", "10"`)
	assert.Contains(t, string(content), `"--split-mode", "noniid"`)
	assert.Contains(t, string(content), `"--alpha", "0.1"`)
	assert.Contains(t, string(content), `"--data-seed", "7"`)
}

func TestInstantiate_KeepsTemplateDefaultsWithoutOverrides(t *testing.T) {
	path := writeTemplate(t, testTemplate)

	rendered, cleanup, err := Instantiate(path, "sec0-net0-1693390000-abcd1234", Overrides{})
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(rendered)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"--num-rounds", "10"`)
	assert.Contains(t, string(content), `"--min-clients", "5"`)
	assert.Contains(t, string(content), `"--data-seed", "42"`)
}

func TestInstantiate_MissingTemplateIsFatal(t *testing.T) {
	_, _, err := Instantiate("/nonexistent/fl-deployment.yaml", "sec0-net0-1-ab", Overrides{})
	assert.Error(t, err)
}

func TestInstantiate_TemplateWithoutPlaceholderIsRejected(t *testing.T) {
	path := writeTemplate(t, "apiVersion: v1\nkind: Service\nmetadata:\n  name: static\n")
	_, _, err := Instantiate(path, "sec0-net0-1-ab", Overrides{})
	assert.Error(t, err)
}

func TestInstantiate_CleanupRemovesTempManifest(t *testing.T) {
	path := writeTemplate(t, testTemplate)

	rendered, cleanup, err := Instantiate(path, "sec0-net0-1693390000-abcd1234", Overrides{})
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(rendered)
	assert.True(t, os.IsNotExist(err))
}

func TestTemplatePathForSecurityLevel(t *testing.T) {
	assert.Equal(t, filepath.Join("manifests", "sec2-mtls", "fl-deployment.yaml"),
		TemplatePathForSecurityLevel("manifests", domain.SEC2))
}

func TestDecodeObjects_DecodesRenderedTemplate(t *testing.T) {
	path := writeTemplate(t, testTemplate)

	rendered, cleanup, err := Instantiate(path, "sec0-net0-1693390000-abcd1234", Overrides{})
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(rendered)
	require.NoError(t, err)

	objects, err := DecodeObjects(content)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestDecodeObjects_RejectsGarbage(t *testing.T) {
	_, err := DecodeObjects([]byte("kind: NoSuchKind\napiVersion: v1\n"))
	assert.Error(t, err)
}
