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

// NewDealsCommand creates the deals command group.
func NewDealsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deals",
		Aliases: []string{"deal"},
		Short:   "Manage deals",
		Long:    "List, create, update, and delete deals",
	}

	cmd.AddCommand(newDealsListCommand())
	cmd.AddCommand(newDealsGetCommand())
	cmd.AddCommand(newDealsCreateCommand())
	cmd.AddCommand(newDealsUpdateCommand())
	cmd.AddCommand(newDealsDeleteCommand())

	return cmd
}

func newDealsListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		Long:  "List one page of deals, or every page with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDealsListCommand(flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runDealsListCommand(flags *listFlags) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	if flags.all {
		deals, err := models.ListDeals(ctx, client, flags.params())
		if err != nil {
			return fmt.Errorf("failed to list deals: %w", err)
		}

		return outputDeals(deals, false)
	}

	page, err := client.ListPage(ctx, models.DealSchema, flags.params(), pipedrive.PageToken{})
	if err != nil {
		return fmt.Errorf("failed to list deals: %w", err)
	}

	deals := make([]*models.Deal, 0, len(page.Entities))
	for _, entity := range page.Entities {
		deals = append(deals, &models.Deal{Entity: entity})
	}

	return outputDeals(deals, page.More)
}

func outputDeals(deals []*models.Deal, more bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(entityRecords(deals))
	case constants.FormatYAML:
		return StandardYAMLRenderer(entityRecords(deals))
	default:
		return renderDealsTable(deals, more)
	}
}

func renderDealsTable(deals []*models.Deal, more bool) error {
	if len(deals) == 0 {
		_, _ = os.Stdout.WriteString("No deals found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Title", "Value", "Currency", "Status", "Updated")

	for _, deal := range deals {
		_ = table.Append(deal.ID(), deal.Title(),
			strconv.FormatFloat(deal.Value(), 'f', -1, 64),
			deal.Currency(), deal.Status(),
			formatTimestamp(deal.UpdateTime()))
	}

	_ = table.Render()

	if more {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}

	return nil
}

func newDealsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEAL_ID",
		Short: "Get deal details",
		Long:  "Display every set field of a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDealsGetCommand(args[0])
		},
	}
}

func runDealsGetCommand(id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	deal, err := models.FetchDeal(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get deal: %w", err)
	}

	return outputEntity("Deal details", deal.Entity)
}

// dealFlags carries the field flags shared by create and update.
type dealFlags struct {
	title      string
	value      float64
	currency   string
	status     string
	stageID    int64
	pipelineID int64
	ownerID    int64
	orgID      int64
	personID   int64
	sets       []string
}

func (f *dealFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "deal title")
	cmd.Flags().Float64Var(&f.value, "value", 0, "monetary value")
	cmd.Flags().StringVar(&f.currency, "currency", "", "ISO currency code")
	cmd.Flags().StringVar(&f.status, "status", "", "deal status (open, won, lost)")
	cmd.Flags().Int64Var(&f.stageID, "stage", 0, "pipeline stage ID")
	cmd.Flags().Int64Var(&f.pipelineID, "pipeline", 0, "pipeline ID")
	cmd.Flags().Int64Var(&f.ownerID, "owner", 0, "owner user ID")
	cmd.Flags().Int64Var(&f.orgID, "org", 0, "linked organization ID")
	cmd.Flags().Int64Var(&f.personID, "person", 0, "linked person ID")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field assignment as name=value (repeatable)")
}

// apply assigns the flags the caller actually passed.
func (f *dealFlags) apply(cmd *cobra.Command, deal *models.Deal) error {
	flags := cmd.Flags()

	if flags.Changed("title") {
		if err := deal.SetTitle(f.title); err != nil {
			return err
		}
	}

	if flags.Changed("value") {
		if err := deal.SetValue(f.value); err != nil {
			return err
		}
	}

	if flags.Changed("currency") {
		if err := deal.SetCurrency(f.currency); err != nil {
			return err
		}
	}

	if flags.Changed("status") {
		if err := deal.SetStatus(f.status); err != nil {
			return err
		}
	}

	if flags.Changed("stage") {
		if err := deal.SetStageID(f.stageID); err != nil {
			return err
		}
	}

	if flags.Changed("pipeline") {
		if err := deal.SetPipelineID(f.pipelineID); err != nil {
			return err
		}
	}

	if flags.Changed("owner") {
		if err := deal.SetOwnerID(f.ownerID); err != nil {
			return err
		}
	}

	if flags.Changed("org") {
		if err := deal.SetOrgID(f.orgID); err != nil {
			return err
		}
	}

	if flags.Changed("person") {
		if err := deal.SetPersonID(f.personID); err != nil {
			return err
		}
	}

	assignments, err := parseAssignments(f.sets)
	if err != nil {
		return err
	}

	return applyAssignments(deal.Entity, assignments)
}

func newDealsCreateCommand() *cobra.Command {
	flags := &dealFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new deal",
		Long:  "Create a new deal from the given field flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDealsCreateCommand(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runDealsCreateCommand(cmd *cobra.Command, flags *dealFlags) error {
	deal := models.NewDeal()

	if err := flags.apply(cmd, deal); err != nil {
		return err
	}

	if !deal.IsDirty() {
		return ErrNoFieldsGiven
	}

	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	result, err := client.Save(ctx, deal)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	return outputWriteResult("deal", deal.Entity, result)
}

func newDealsUpdateCommand() *cobra.Command {
	flags := &dealFlags{}

	cmd := &cobra.Command{
		Use:   "update DEAL_ID",
		Short: "Update a deal",
		Long:  "Update a deal. Only the fields you assign are sent to the API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDealsUpdateCommand(cmd, flags, args[0])
		},
	}

	flags.register(cmd)

	return cmd
}

func runDealsUpdateCommand(cmd *cobra.Command, flags *dealFlags, id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	deal, err := models.FetchDeal(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get deal: %w", err)
	}

	if err := flags.apply(cmd, deal); err != nil {
		return err
	}

	result, err := client.Save(ctx, deal)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	return outputWriteResult("deal", deal.Entity, result)
}

func newDealsDeleteCommand() *cobra.Command {
	return createDeleteCommand(DeleteConfig{
		Use:        "delete DEAL_ID [DEAL_ID...]",
		Short:      "Delete deals",
		Long:       "Delete one or more deals in a single request",
		EntityType: "deal",
		Schema:     models.DealSchema,
	})
}
