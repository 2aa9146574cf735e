package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmanprz/pipedrive-client/cmd/pipedrive/commands"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)
	assert.Equal(t, "Manage CLI configuration", cmd.Short)

	// Check subcommands are added
	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 3)

	commandNames := make([]string, 0, len(subcommands))
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "get")
	assert.Contains(t, commandNames, "set")
	assert.Contains(t, commandNames, "set-token")
}

func TestConfigSetCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewConfigCommand()
	cmd := findSubcommand(root, "set")
	assert.Equal(t, "set KEY VALUE", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Args)
}

// useConfigFile points the CLI at a config file under a temp directory
// and restores the default lookup afterwards. Tests using it must not
// run in parallel because the location is process-global.
func useConfigFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	viper.Set("config", path)
	t.Cleanup(func() { viper.Set("config", "") })

	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	_ = useConfigFile(t)

	config, err := commands.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &commands.Config{}, config)
}

func TestLoadConfig(t *testing.T) {
	path := useConfigFile(t)

	contents := "api_token: abc123\nbase_url: https://acme.pipedrive.com\noutput: json\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	config, err := commands.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "abc123", config.APIToken)
	assert.Equal(t, "https://acme.pipedrive.com", config.BaseURL)
	assert.Equal(t, "json", config.Output)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := useConfigFile(t)

	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	_, err := commands.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
