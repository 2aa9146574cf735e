package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jmanprz/pipedrive-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration stored in the config file. The API
// token is only ever written by 'config set-token'.
type Config struct {
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`
	BaseURL  string `json:"base_url,omitempty"  yaml:"base_url,omitempty"`
	Output   string `json:"output,omitempty"    yaml:"output,omitempty"`
}

// configFilePath resolves the config file location, honoring --config.
func configFilePath() (string, error) {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		return cfgFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}

	return filepath.Join(home, ".pipedrive", "config.yml"), nil
}

// LoadConfig reads the CLI configuration. A missing file yields an
// empty configuration.
func LoadConfig() (*Config, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// saveConfig writes the configuration with owner-only file permissions,
// creating the config directory when needed.
func saveConfig(config *Config) (string, error) {
	path, err := configFilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "View and modify the configuration stored in ~/.pipedrive/config.yml",
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [KEY]",
		Short: "Show configuration",
		Long:  "Show the whole configuration or a single key. The token is never printed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) > 0 {
				key = args[0]
			}

			return runConfigGetCommand(key)
		},
	}
}

func runConfigGetCommand(key string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	if key != "" {
		value, err := configValue(config, key)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(os.Stdout, value)

		return nil
	}

	return outputConfig(config)
}

func configValue(config *Config, key string) (string, error) {
	switch key {
	case "api_token":
		if config.APIToken == "" {
			return constants.NotAvailable, nil
		}

		return constants.MaskedSecret, nil
	case "base_url":
		return config.BaseURL, nil
	case "output":
		return config.Output, nil
	default:
		return "", fmt.Errorf("%w: %q (valid keys: api_token, base_url, output)", ErrUnknownConfigKey, key)
	}
}

func outputConfig(config *Config) error {
	redacted := *config
	if redacted.APIToken != "" {
		redacted.APIToken = constants.MaskedSecret
	}

	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(redacted)
	case constants.FormatYAML:
		return StandardYAMLRenderer(redacted)
	default:
		return renderConfigTable(config)
	}
}

func renderConfigTable(config *Config) error {
	token := constants.NotAvailable
	if config.APIToken != "" {
		token = constants.MaskedSecret
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	format := config.Output
	if format == "" {
		format = constants.FormatTable
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append([]string{"api_token", token})
	_ = table.Append([]string{"base_url", baseURL})
	_ = table.Append([]string{"output", format})

	_ = table.Render()

	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set base_url or output. The API token is stored with
'config set-token' so it never shows up in shell history.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetCommand(args[0], args[1])
		},
	}
}

func runConfigSetCommand(key, value string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "base_url":
		config.BaseURL = value
	case "output":
		if value != constants.FormatTable && value != constants.FormatJSON && value != constants.FormatYAML {
			return fmt.Errorf("%w: %q (valid formats: table, json, yaml)", ErrUnknownOutputFormat, value)
		}

		config.Output = value
	case "api_token":
		return ErrTokenViaSetToken
	default:
		return fmt.Errorf("%w: %q (valid keys: base_url, output)", ErrUnknownConfigKey, key)
	}

	path, err := saveConfig(config)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Set %s in %s\n", key, path)

	return nil
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store the API token",
		Long: `Prompt for the API token and store it in the config file with
owner-only permissions. The token is read without echo so it never
lands in shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetTokenCommand()
		},
	}
}

func runConfigSetTokenCommand() error {
	token, err := readToken()
	if err != nil {
		return err
	}

	if token == "" {
		return ErrEmptyToken
	}

	config, err := LoadConfig()
	if err != nil {
		return err
	}

	config.APIToken = token

	path, err := saveConfig(config)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Token saved to %s\n", path)

	return nil
}

// readToken reads the token without echo when attached to a terminal,
// and from standard input otherwise.
func readToken() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("API token: ")

		raw, err := term.ReadPassword(int(syscall.Stdin))

		fmt.Println()

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return strings.TrimSpace(line), nil
}
