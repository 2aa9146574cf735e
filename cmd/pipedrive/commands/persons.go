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

// NewPersonsCommand creates the persons command group.
func NewPersonsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persons",
		Aliases: []string{"person", "people"},
		Short:   "Manage persons",
		Long:    "List, create, update, and delete persons",
	}

	cmd.AddCommand(newPersonsListCommand())
	cmd.AddCommand(newPersonsGetCommand())
	cmd.AddCommand(newPersonsCreateCommand())
	cmd.AddCommand(newPersonsUpdateCommand())
	cmd.AddCommand(newPersonsDeleteCommand())

	return cmd
}

func newPersonsListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons",
		Long:  "List one page of persons, or every page with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsListCommand(flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonsListCommand(flags *listFlags) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	if flags.all {
		persons, err := models.ListPersons(ctx, client, flags.params())
		if err != nil {
			return fmt.Errorf("failed to list persons: %w", err)
		}

		return outputPersons(persons, false)
	}

	page, err := client.ListPage(ctx, models.PersonSchema, flags.params(), pipedrive.PageToken{})
	if err != nil {
		return fmt.Errorf("failed to list persons: %w", err)
	}

	persons := make([]*models.Person, 0, len(page.Entities))
	for _, entity := range page.Entities {
		persons = append(persons, &models.Person{Entity: entity})
	}

	return outputPersons(persons, page.More)
}

func outputPersons(persons []*models.Person, more bool) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(entityRecords(persons))
	case constants.FormatYAML:
		return StandardYAMLRenderer(entityRecords(persons))
	default:
		return renderPersonsTable(persons, more)
	}
}

func renderPersonsTable(persons []*models.Person, more bool) error {
	if len(persons) == 0 {
		_, _ = os.Stdout.WriteString("No persons found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Email", "Phone", "Job Title", "Updated")

	for _, person := range persons {
		_ = table.Append(person.ID(), person.Name(),
			primaryLabeledValue(person.Emails()),
			primaryLabeledValue(person.Phones()),
			person.JobTitle(),
			formatTimestamp(person.UpdateTime()))
	}

	_ = table.Render()

	if more {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}

	return nil
}

func newPersonsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PERSON_ID",
		Short: "Get person details",
		Long:  "Display every set field of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsGetCommand(args[0])
		},
	}
}

func runPersonsGetCommand(id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	person, err := models.FetchPerson(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get person: %w", err)
	}

	return outputEntity("Person details", person.Entity)
}

// personFlags carries the field flags shared by create and update.
type personFlags struct {
	name     string
	emails   []string
	phones   []string
	jobTitle string
	sets     []string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "person name")
	cmd.Flags().StringArrayVar(&f.emails, "email", nil, "email address (repeatable, first one is primary)")
	cmd.Flags().StringArrayVar(&f.phones, "phone", nil, "phone number (repeatable, first one is primary)")
	cmd.Flags().StringVar(&f.jobTitle, "job-title", "", "job title")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field assignment as name=value (repeatable)")
}

// apply assigns the flags the caller actually passed. Plain --email and
// --phone values are wrapped into the labeled objects the API expects.
func (f *personFlags) apply(cmd *cobra.Command, person *models.Person) error {
	flags := cmd.Flags()

	if flags.Changed("name") {
		if err := person.SetName(f.name); err != nil {
			return err
		}
	}

	if flags.Changed("email") {
		if err := person.SetEmails(labeledValues(f.emails, "work")); err != nil {
			return err
		}
	}

	if flags.Changed("phone") {
		if err := person.SetPhones(labeledValues(f.phones, "work")); err != nil {
			return err
		}
	}

	if flags.Changed("job-title") {
		if err := person.SetJobTitle(f.jobTitle); err != nil {
			return err
		}
	}

	assignments, err := parseAssignments(f.sets)
	if err != nil {
		return err
	}

	return applyAssignments(person.Entity, assignments)
}

func newPersonsCreateCommand() *cobra.Command {
	flags := &personFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new person",
		Long:  "Create a new person from the given field flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsCreateCommand(cmd, flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonsCreateCommand(cmd *cobra.Command, flags *personFlags) error {
	person := models.NewPerson()

	if err := flags.apply(cmd, person); err != nil {
		return err
	}

	if !person.IsDirty() {
		return ErrNoFieldsGiven
	}

	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	result, err := client.Save(ctx, person)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	return outputWriteResult("person", person.Entity, result)
}

func newPersonsUpdateCommand() *cobra.Command {
	flags := &personFlags{}

	cmd := &cobra.Command{
		Use:   "update PERSON_ID",
		Short: "Update a person",
		Long:  "Update a person. Only the fields you assign are sent to the API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsUpdateCommand(cmd, flags, args[0])
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonsUpdateCommand(cmd *cobra.Command, flags *personFlags, id string) error {
	ctx := context.Background()

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	person, err := models.FetchPerson(ctx, client, id)
	if err != nil {
		return fmt.Errorf("failed to get person: %w", err)
	}

	if err := flags.apply(cmd, person); err != nil {
		return err
	}

	result, err := client.Save(ctx, person)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}

	return outputWriteResult("person", person.Entity, result)
}

func newPersonsDeleteCommand() *cobra.Command {
	return createDeleteCommand(DeleteConfig{
		Use:        "delete PERSON_ID [PERSON_ID...]",
		Short:      "Delete persons",
		Long:       "Delete one or more persons in a single request",
		EntityType: "person",
		Schema:     models.PersonSchema,
	})
}
