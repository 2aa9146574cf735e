package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jmanprz/pipedrive-client/internal/constants"
	"github.com/jmanprz/pipedrive-client/pkg/models"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewActivityTypesCommand creates the activity types command group.
func NewActivityTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activity-types",
		Aliases: []string{"activity-type"},
		Short:   "Inspect activity types",
		Long:    "List the activity types configured for the company",
	}

	cmd.AddCommand(newActivityTypesListCommand())

	return cmd
}

func newActivityTypesListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activity types",
		Long:  "List one page of activity types, or every page with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivityTypesListCommand(flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runActivityTypesListCommand(flags *listFlags) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	if flags.all {
		types, err := models.ListActivityTypes(ctx, client, flags.params())
		if err != nil {
			return fmt.Errorf("failed to list activity types: %w", err)
		}

		return outputActivityTypes(types, false)
	}

	page, err := client.ListPage(ctx, models.ActivityTypeSchema, flags.params(), pipedrive.PageToken{})
	if err != nil {
		return fmt.Errorf("failed to list activity types: %w", err)
	}

	types := make([]*models.ActivityType, 0, len(page.Entities))
	for _, entity := range page.Entities {
		types = append(types, &models.ActivityType{Entity: entity})
	}

	return outputActivityTypes(types, page.More)
}

func outputActivityTypes(types []*models.ActivityType, more bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(entityRecords(types))
	case constants.FormatYAML:
		return StandardYAMLRenderer(entityRecords(types))
	default:
		return renderActivityTypesTable(types, more)
	}
}

func renderActivityTypesTable(types []*models.ActivityType, more bool) error {
	if len(types) == 0 {
		_, _ = os.Stdout.WriteString("No activity types found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Key", "Icon", "Active", "Order")

	for _, activityType := range types {
		active := No
		if activityType.ActiveFlag() {
			active = Yes
		}

		_ = table.Append(activityType.ID(), activityType.Name(),
			activityType.KeyString(), activityType.IconKey(), active,
			strconv.FormatInt(activityType.OrderNr(), 10))
	}

	_ = table.Render()

	if more {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}

	return nil
}
