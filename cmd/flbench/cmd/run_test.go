package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/domain"
)

func TestRunCmd_FlagDefaultsMatchManifestTemplates(t *testing.T) {
	flags := runCmd().Flags()

	assert.Equal(t, "42", flags.Lookup("data-seed").DefValue)
	assert.Equal(t, "10", flags.Lookup("num-rounds").DefValue)
	assert.Equal(t, "5", flags.Lookup("num-clients").DefValue)
	assert.Equal(t, "0.5", flags.Lookup("alpha").DefValue)
	assert.Equal(t, "true", flags.Lookup("iid").DefValue)
}

func TestRunConfigFromFlags_UsesDefaults(t *testing.T) {
	cmd := runCmd()
	require.NoError(t, cmd.Flags().Set("sec-level", "SEC1"))
	require.NoError(t, cmd.Flags().Set("net-profile", "NET0"))

	runConfig, err := runConfigFromFlags(cmd)
	require.NoError(t, err)

	assert.Equal(t, domain.SEC1, runConfig.SecurityLevel)
	assert.Equal(t, domain.NET0, runConfig.NetworkProfile)
	assert.Equal(t, 42, runConfig.DataSeed)
	assert.Equal(t, 10, runConfig.NumRounds)
	assert.True(t, runConfig.IID)
}
