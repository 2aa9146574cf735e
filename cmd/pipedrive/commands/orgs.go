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

// NewOrgsCommand creates the organizations command group.
func NewOrgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations", "org"},
		Short:   "Manage organizations",
		Long:    "List, create, update, and delete organizations",
	}

	cmd.AddCommand(newOrgsListCommand())
	cmd.AddCommand(newOrgsGetCommand())
	cmd.AddCommand(newOrgsCreateCommand())
	cmd.AddCommand(newOrgsUpdateCommand())
	cmd.AddCommand(newOrgsDeleteCommand())

	return cmd
}

func newOrgsListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Long:  "List one page of organizations, or every page with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsListCommand(flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runOrgsListCommand(flags *listFlags) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	if flags.all {
		orgs, err := models.ListOrganizations(ctx, client, flags.params())
		if err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}

		return outputOrganizations(orgs, false)
	}

	page, err := client.ListPage(ctx, models.OrganizationSchema, flags.params(), pipedrive.PageToken{})
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	orgs := make([]*models.Organization, 0, len(page.Entities))
	for _, entity := range page.Entities {
		orgs = append(orgs, &models.Organization{Entity: entity})
	}

	return outputOrganizations(orgs, page.More)
}

func outputOrganizations(orgs []*models.Organization, more bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(entityRecords(orgs))
	case constants.FormatYAML:
		return StandardYAMLRenderer(entityRecords(orgs))
	default:
		return renderOrganizationsTable(orgs, more)
	}
}

func renderOrganizationsTable(orgs []*models.Organization, more bool) error {
	if len(orgs) == 0 {
		_, _ = os.Stdout.WriteString("No organizations found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Owner", "Updated")

	for _, org := range orgs {
		_ = table.Append(org.ID(), org.Name(),
			strconv.FormatInt(org.OwnerID(), 10),
			formatTimestamp(org.UpdateTime()))
	}

	_ = table.Render()

	if more {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}

	return nil
}

func newOrgsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_ID",
		Short: "Get organization details",
		Long:  "Display every set field of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsGetCommand(args[0])
		},
	}
}

func runOrgsGetCommand(id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	org, err := models.FetchOrganization(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get organization: %w", err)
	}

	return outputEntity("Organization details", org.Entity)
}

// orgFlags carries the field flags shared by create and update.
type orgFlags struct {
	name      string
	ownerID   int64
	visibleTo int64
	sets      []string
}

func (f *orgFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "organization name")
	cmd.Flags().Int64Var(&f.ownerID, "owner", 0, "owner user ID")
	cmd.Flags().Int64Var(&f.visibleTo, "visible-to", 0, "visibility group ID")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field assignment as name=value (repeatable)")
}

// apply assigns the flags the caller actually passed.
func (f *orgFlags) apply(cmd *cobra.Command, org *models.Organization) error {
	flags := cmd.Flags()

	if flags.Changed("name") {
		if err := org.SetName(f.name); err != nil {
			return err
		}
	}

	if flags.Changed("owner") {
		if err := org.SetOwnerID(f.ownerID); err != nil {
			return err
		}
	}

	if flags.Changed("visible-to") {
		if err := org.SetVisibleTo(f.visibleTo); err != nil {
			return err
		}
	}

	assignments, err := parseAssignments(f.sets)
	if err != nil {
		return err
	}

	return applyAssignments(org.Entity, assignments)
}

func newOrgsCreateCommand() *cobra.Command {
	flags := &orgFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new organization",
		Long:  "Create a new organization from the given field flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsCreateCommand(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runOrgsCreateCommand(cmd *cobra.Command, flags *orgFlags) error {
	org := models.NewOrganization()

	if err := flags.apply(cmd, org); err != nil {
		return err
	}

	if !org.IsDirty() {
		return ErrNoFieldsGiven
	}

	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	result, err := client.Save(ctx, org)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return outputWriteResult("organization", org.Entity, result)
}

func newOrgsUpdateCommand() *cobra.Command {
	flags := &orgFlags{}

	cmd := &cobra.Command{
		Use:   "update ORG_ID",
		Short: "Update an organization",
		Long:  "Update an organization. Only the fields you assign are sent to the API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsUpdateCommand(cmd, flags, args[0])
		},
	}

	flags.register(cmd)

	return cmd
}

func runOrgsUpdateCommand(cmd *cobra.Command, flags *orgFlags, id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	org, err := models.FetchOrganization(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get organization: %w", err)
	}

	if err := flags.apply(cmd, org); err != nil {
		return err
	}

	result, err := client.Save(ctx, org)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	return outputWriteResult("organization", org.Entity, result)
}

func newOrgsDeleteCommand() *cobra.Command {
	return createDeleteCommand(DeleteConfig{
		Use:        "delete ORG_ID [ORG_ID...]",
		Short:      "Delete organizations",
		Long:       "Delete one or more organizations in a single request",
		EntityType: "organization",
		Schema:     models.OrganizationSchema,
	})
}
