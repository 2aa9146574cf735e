package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmanprz/pipedrive-client/internal/constants"
	"github.com/jmanprz/pipedrive-client/pkg/pdclient"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	Yes = "yes"
	No  = "no"
)

// Common static errors used throughout the commands package.
var (
	ErrNoAPIToken          = errors.New("no API token configured")
	ErrNoFieldsGiven       = errors.New("no fields given, pass at least one field flag or --set")
	ErrInvalidAssignment   = errors.New("invalid field assignment, expected name=value")
	ErrSomeDeletesFailed   = errors.New("some records were not deleted")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrTokenViaSetToken    = errors.New("the API token is stored with 'pipedrive config set-token'")
	ErrEmptyToken          = errors.New("token must not be empty")
)

// CreateClient builds an API client from flags, the config file, and
// the environment. An explicit --token wins, then the stored token,
// then the PIPEDRIVE_API_TOKEN environment variable.
func CreateClient(ctx context.Context) (pipedrive.Client, error) {
	baseURL := viper.GetString("api")
	token := viper.GetString("token")

	stored, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if baseURL == "" {
		baseURL = stored.BaseURL
	}

	if token == "" {
		token = stored.APIToken
	}

	if token == "" {
		client, err := pdclient.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: pass --token, run 'pipedrive config set-token', or set %s",
				ErrNoAPIToken, constants.EnvAPIToken)
		}

		return client, nil
	}

	config := &pipedrive.Config{
		BaseURL:  baseURL,
		APIToken: token,
	}

	if viper.GetBool("verbose") {
		config.Debug = true
		config.Logger = &stderrLogger{}
	}

	client, err := pdclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// stderrLogger writes log lines to standard error for --verbose runs.
type stderrLogger struct{}

func (l *stderrLogger) log(level, msg string, fields map[string]interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "[%s] %s %v\n", level, msg, fields)
}

func (l *stderrLogger) Debug(msg string, fields map[string]interface{}) { l.log("debug", msg, fields) }

func (l *stderrLogger) Info(msg string, fields map[string]interface{}) { l.log("info", msg, fields) }

func (l *stderrLogger) Warn(msg string, fields map[string]interface{}) { l.log("warn", msg, fields) }

func (l *stderrLogger) Error(msg string, fields map[string]interface{}) { l.log("error", msg, fields) }

// StandardJSONRenderer encodes data as indented JSON on stdout.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer encodes data as YAML on stdout.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// entityRecords converts typed wrappers to portable records for
// structured output.
func entityRecords[M pipedrive.Model](items []M) []pipedrive.Record {
	records := make([]pipedrive.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.Base().ToRecord())
	}

	return records
}

// listFlags is the shared flag set of the list commands, mapping onto
// the query parameters every collection accepts.
type listFlags struct {
	all       bool
	limit     int
	sort      string
	direction string
	filterID  int64
	ownerID   int64
	ids       []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (server default is "+strconv.Itoa(constants.DefaultPageLimit)+")")
	cmd.Flags().StringVar(&f.sort, "sort", "", "field to sort by")
	cmd.Flags().StringVar(&f.direction, "direction", "", "sort direction (asc, desc)")
	cmd.Flags().Int64Var(&f.filterID, "filter", 0, "saved filter ID to apply")
	cmd.Flags().Int64Var(&f.ownerID, "owner", 0, "only records owned by this user ID")
	cmd.Flags().StringSliceVar(&f.ids, "ids", nil, "only these record IDs")
}

func (f *listFlags) params() *pipedrive.ListParams {
	params := pipedrive.NewListParams()
	params.Limit = f.limit
	params.Sort = f.sort
	params.SortDirection = f.direction
	params.FilterID = f.filterID
	params.OwnerID = f.ownerID
	params.IDs = f.ids

	return params
}

// parseAssignments splits repeated --set values into name/value pairs.
func parseAssignments(pairs []string) (map[string]string, error) {
	assignments := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, pair)
		}

		assignments[name] = value
	}

	return assignments, nil
}

// applyAssignments coerces raw --set values to the schema's field kinds
// and assigns them. Unknown names are passed through so the assignment
// error names the field.
func applyAssignments(entity *pipedrive.Entity, assignments map[string]string) error {
	for name, raw := range assignments {
		value := any(raw)

		if field, ok := entity.Schema().Field(name); ok {
			parsed, err := parseFieldValue(field, raw)
			if err != nil {
				return err
			}

			value = parsed
		}

		if err := entity.Set(name, value); err != nil {
			return fmt.Errorf("failed to set %q: %w", name, err)
		}
	}

	return nil
}

// parseFieldValue coerces a flag string to the field's kind. Dates,
// times, and durations stay strings; assignment validates their layout.
func parseFieldValue(field pipedrive.FieldSpec, raw string) (any, error) {
	switch field.Kind {
	case pipedrive.KindInteger, pipedrive.KindReference:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q wants an integer: %w", field.RemoteName, err)
		}

		return n, nil
	case pipedrive.KindFloat:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q wants a number: %w", field.RemoteName, err)
		}

		return x, nil
	case pipedrive.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q wants a boolean: %w", field.RemoteName, err)
		}

		return b, nil
	case pipedrive.KindCollection:
		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("field %q wants a JSON array: %w", field.RemoteName, err)
		}

		return list, nil
	case pipedrive.KindObject:
		var object map[string]any
		if err := json.Unmarshal([]byte(raw), &object); err != nil {
			return nil, fmt.Errorf("field %q wants a JSON object: %w", field.RemoteName, err)
		}

		return object, nil
	default:
		return raw, nil
	}
}

// outputEntity shows one record in the selected format.
func outputEntity(title string, entity *pipedrive.Entity) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(entity.ToRecord())
	case constants.FormatYAML:
		return StandardYAMLRenderer(entity.ToRecord())
	default:
		return renderEntityDetails(title, entity)
	}
}

// renderEntityDetails prints every set field as a property table, in
// declaration order and wire encoding.
func renderEntityDetails(title string, entity *pipedrive.Entity) error {
	record := entity.ToRecord()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	_ = table.Append("id", record.ID)

	for _, name := range entity.Schema().FieldNames() {
		value, set := record.Fields[name]
		if !set {
			continue
		}

		_ = table.Append(name, formatFieldValue(value))
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s:\n\n", title)

	_ = table.Render()

	return nil
}

// formatFieldValue renders one wire value for a table cell. Structured
// values are shown as compact JSON.
func formatFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return v
	case bool:
		if v {
			return Yes
		}

		return No
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatTimestamp renders a timestamp for a table cell.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return t.Format("2006-01-02 15:04")
}

// primaryLabeledValue picks the primary entry out of a labeled contact
// list such as emails or phones, falling back to the first one.
func primaryLabeledValue(items []any) string {
	var first string

	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		value, _ := entry["value"].(string)
		if first == "" {
			first = value
		}

		if primary, _ := entry["primary"].(bool); primary {
			return value
		}
	}

	if first == "" {
		return constants.NotAvailable
	}

	return first
}

// labeledValues builds the wire form of a labeled contact list from
// plain flag values. The first entry becomes the primary one.
func labeledValues(values []string, label string) []any {
	items := make([]any, 0, len(values))
	for i, value := range values {
		items = append(items, map[string]any{
			"value":   value,
			"label":   label,
			"primary": i == 0,
		})
	}

	return items
}

// outputWriteResult reports a create or update in the selected format.
func outputWriteResult(entityType string, entity *pipedrive.Entity, result *pipedrive.SaveResult) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(entity.ToRecord())
	case constants.FormatYAML:
		return StandardYAMLRenderer(entity.ToRecord())
	default:
		switch {
		case result.Created:
			_, _ = fmt.Fprintf(os.Stdout, "Created %s %s\n", entityType, result.ID)
		case result.Updated:
			_, _ = fmt.Fprintf(os.Stdout, "Updated %s %s (%s)\n",
				entityType, result.ID, strings.Join(result.FieldNames, ", "))
		default:
			_, _ = fmt.Fprintf(os.Stdout, "Nothing to update for %s %s\n", entityType, result.ID)
		}

		return nil
	}
}

// DeleteConfig describes one entity kind's delete command.
type DeleteConfig struct {
	Use        string
	Short      string
	Long       string
	EntityType string
	Schema     *pipedrive.Schema
}

// createDeleteCommand creates a generic delete command over the batch
// delete operation, so several identifiers go out in one request.
func createDeleteCommand(config DeleteConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   config.Use,
		Short: config.Short,
		Long:  config.Long,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprintf(os.Stdout, "Really delete %s %s? (y/N): ",
					config.EntityType, strings.Join(args, ", "))

				var response string

				_, _ = fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					_, _ = os.Stdout.WriteString("Cancelled\n")

					return nil
				}
			}

			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			result, err := client.BatchDelete(ctx, config.Schema, args...)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", config.EntityType, err)
			}

			return outputDeleteResult(config.EntityType, result)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

func outputDeleteResult(entityType string, result *pipedrive.BatchDeleteResult) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(result)
	case constants.FormatYAML:
		return StandardYAMLRenderer(result)
	default:
		for _, outcome := range result.Outcomes {
			if outcome.Deleted {
				_, _ = fmt.Fprintf(os.Stdout, "Deleted %s %s\n", entityType, outcome.ID)
			} else if outcome.Reason != "" {
				_, _ = fmt.Fprintf(os.Stdout, "Failed to delete %s %s: %s\n", entityType, outcome.ID, outcome.Reason)
			} else {
				_, _ = fmt.Fprintf(os.Stdout, "Failed to delete %s %s\n", entityType, outcome.ID)
			}
		}

		if failed := result.FailedIDs(); len(failed) > 0 {
			return fmt.Errorf("%w: %s", ErrSomeDeletesFailed, strings.Join(failed, ", "))
		}

		return nil
	}
}
