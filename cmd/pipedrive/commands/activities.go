package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jmanprz/pipedrive-client/internal/constants"
	"github.com/jmanprz/pipedrive-client/pkg/models"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewActivitiesCommand creates the activities command group.
func NewActivitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "Manage activities",
		Long:    "List, create, update, and delete calendar activities",
	}

	cmd.AddCommand(newActivitiesListCommand())
	cmd.AddCommand(newActivitiesGetCommand())
	cmd.AddCommand(newActivitiesCreateCommand())
	cmd.AddCommand(newActivitiesUpdateCommand())
	cmd.AddCommand(newActivitiesDeleteCommand())

	return cmd
}

func newActivitiesListCommand() *cobra.Command {
	flags := &listFlags{}

	var done bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		Long:  "List one page of activities, or every page with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := flags.params()
			if cmd.Flags().Changed("done") {
				params.Extra["done"] = []string{fmt.Sprintf("%t", done)}
			}

			return runActivitiesListCommand(flags.all, params)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&done, "done", false, "only done (or with --done=false, only pending) activities")

	return cmd
}

func runActivitiesListCommand(allPages bool, params *pipedrive.ListParams) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	if allPages {
		activities, err := models.ListActivities(ctx, client, params)
		if err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}

		return outputActivities(activities, false)
	}

	page, err := client.ListPage(ctx, models.ActivitySchema, params, pipedrive.PageToken{})
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	activities := make([]*models.Activity, 0, len(page.Entities))
	for _, entity := range page.Entities {
		activities = append(activities, &models.Activity{Entity: entity})
	}

	return outputActivities(activities, page.More)
}

func outputActivities(activities []*models.Activity, more bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(entityRecords(activities))
	case constants.FormatYAML:
		return StandardYAMLRenderer(entityRecords(activities))
	default:
		return renderActivitiesTable(activities, more)
	}
}

func renderActivitiesTable(activities []*models.Activity, more bool) error {
	if len(activities) == 0 {
		_, _ = os.Stdout.WriteString("No activities found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Subject", "Type", "Due", "Done", "Updated")

	for _, activity := range activities {
		due := constants.NotAvailable
		if !activity.DueDate().IsZero() {
			due = activity.DueDate().Format(constants.DateFormat)
			if activity.DueTime() != "" {
				due += " " + activity.DueTime()
			}
		}

		done := No
		if activity.Done() {
			done = Yes
		}

		_ = table.Append(activity.ID(), activity.Subject(), activity.Type(),
			due, done, formatTimestamp(activity.UpdateTime()))
	}

	_ = table.Render()

	if more {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}

	return nil
}

func newActivitiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ACTIVITY_ID",
		Short: "Get activity details",
		Long:  "Display every set field of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivitiesGetCommand(args[0])
		},
	}
}

func runActivitiesGetCommand(id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	activity, err := models.FetchActivity(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	return outputEntity("Activity details", activity.Entity)
}

// activityFlags carries the field flags shared by create and update.
// Date, time, and duration values stay strings; assignment validates
// their layout.
type activityFlags struct {
	subject      string
	activityType string
	ownerID      int64
	dealID       int64
	personID     int64
	orgID        int64
	dueDate      string
	dueTime      string
	duration     string
	done         bool
	note         string
	sets         []string
}

func (f *activityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.subject, "subject", "", "activity subject")
	cmd.Flags().StringVar(&f.activityType, "type", "", "activity type key, e.g. call or meeting")
	cmd.Flags().Int64Var(&f.ownerID, "owner", 0, "owner user ID")
	cmd.Flags().Int64Var(&f.dealID, "deal", 0, "linked deal ID")
	cmd.Flags().Int64Var(&f.personID, "person", 0, "linked person ID")
	cmd.Flags().Int64Var(&f.orgID, "org", 0, "linked organization ID")
	cmd.Flags().StringVar(&f.dueDate, "due-date", "", "due date (2006-01-02)")
	cmd.Flags().StringVar(&f.dueTime, "due-time", "", "due time of day (15:04)")
	cmd.Flags().StringVar(&f.duration, "duration", "", "duration (HH:MM)")
	cmd.Flags().BoolVar(&f.done, "done", false, "mark the activity done")
	cmd.Flags().StringVar(&f.note, "note", "", "activity note")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field assignment as name=value (repeatable)")
}

// apply assigns the flags the caller actually passed.
func (f *activityFlags) apply(cmd *cobra.Command, activity *models.Activity) error {
	flags := cmd.Flags()

	if flags.Changed("subject") {
		if err := activity.SetSubject(f.subject); err != nil {
			return err
		}
	}

	if flags.Changed("type") {
		if err := activity.SetType(f.activityType); err != nil {
			return err
		}
	}

	if flags.Changed("owner") {
		if err := activity.SetOwnerID(f.ownerID); err != nil {
			return err
		}
	}

	if flags.Changed("deal") {
		if err := activity.SetDealID(f.dealID); err != nil {
			return err
		}
	}

	if flags.Changed("person") {
		if err := activity.SetPersonID(f.personID); err != nil {
			return err
		}
	}

	if flags.Changed("org") {
		if err := activity.SetOrgID(f.orgID); err != nil {
			return err
		}
	}

	if flags.Changed("due-date") {
		if err := activity.Set("due_date", f.dueDate); err != nil {
			return err
		}
	}

	if flags.Changed("due-time") {
		if err := activity.SetDueTime(f.dueTime); err != nil {
			return err
		}
	}

	if flags.Changed("duration") {
		if err := activity.Set("duration", f.duration); err != nil {
			return err
		}
	}

	if flags.Changed("done") {
		if err := activity.SetDone(f.done); err != nil {
			return err
		}
	}

	if flags.Changed("note") {
		if err := activity.SetNote(f.note); err != nil {
			return err
		}
	}

	assignments, err := parseAssignments(f.sets)
	if err != nil {
		return err
	}

	return applyAssignments(activity.Entity, assignments)
}

func newActivitiesCreateCommand() *cobra.Command {
	flags := &activityFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new activity",
		Long:  "Create a new activity from the given field flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivitiesCreateCommand(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runActivitiesCreateCommand(cmd *cobra.Command, flags *activityFlags) error {
	activity := models.NewActivity()

	if err := flags.apply(cmd, activity); err != nil {
		return err
	}

	if !activity.IsDirty() {
		return ErrNoFieldsGiven
	}

	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	result, err := client.Save(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return outputWriteResult("activity", activity.Entity, result)
}

func newActivitiesUpdateCommand() *cobra.Command {
	flags := &activityFlags{}

	cmd := &cobra.Command{
		Use:   "update ACTIVITY_ID",
		Short: "Update an activity",
		Long:  "Update an activity. Only the fields you assign are sent to the API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivitiesUpdateCommand(cmd, flags, args[0])
		},
	}

	flags.register(cmd)

	return cmd
}

func runActivitiesUpdateCommand(cmd *cobra.Command, flags *activityFlags, id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	activity, err := models.FetchActivity(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	if err := flags.apply(cmd, activity); err != nil {
		return err
	}

	result, err := client.Save(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	return outputWriteResult("activity", activity.Entity, result)
}

func newActivitiesDeleteCommand() *cobra.Command {
	return createDeleteCommand(DeleteConfig{
		Use:        "delete ACTIVITY_ID [ACTIVITY_ID...]",
		Short:      "Delete activities",
		Long:       "Delete one or more activities in a single request",
		EntityType: "activity",
		Schema:     models.ActivitySchema,
	})
}
