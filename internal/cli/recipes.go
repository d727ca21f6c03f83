package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pantrycore/pkg/domain"
)

func parseRecipeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recipe id %q", arg)
	}
	return id, nil
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var recipe domain.Recipe

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Store a new recipe",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()
			created, err := svc.CreateRecipe(cmd.Context(), recipe)
			if err != nil {
				return err
			}
			return printRecipe(cmd.OutOrStdout(), rootOpts.Format, created)
		},
	}

	cmd.Flags().StringVar(&recipe.Label, "label", "", "recipe label (required)")
	cmd.Flags().StringVar(&recipe.Ingredients, "ingredients", "", "ingredient list")
	cmd.Flags().StringVar(&recipe.Instructions, "instructions", "", "preparation steps")
	cmd.Flags().IntVar(&recipe.Calories, "calories", 0, "calories per serving")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Print a recipe by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, _, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()
			recipe, ok, err := svc.GetRecipe(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityRecipe, ID: id}
			}
			return printRecipe(cmd.OutOrStdout(), rootOpts.Format, recipe)
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Print all recipes ordered by id",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()
			recipes, err := svc.ListRecipes(cmd.Context())
			if err != nil {
				return err
			}
			return printRecipes(cmd.OutOrStdout(), rootOpts.Format, recipes)
		},
	}
}

// NewUpdateCommand creates the update command. Only flags that were set on
// the command line are applied to the stored recipe.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		label        string
		ingredients  string
		instructions string
		calories     int
	)

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Modify fields of a stored recipe",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, _, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()
			updated, err := svc.UpdateRecipe(cmd.Context(), id, func(r *domain.Recipe) error {
				if cmd.Flags().Changed("label") {
					r.Label = label
				}
				if cmd.Flags().Changed("ingredients") {
					r.Ingredients = ingredients
				}
				if cmd.Flags().Changed("instructions") {
					r.Instructions = instructions
				}
				if cmd.Flags().Changed("calories") {
					r.Calories = calories
				}
				return nil
			})
			if err != nil {
				return err
			}
			return printRecipe(cmd.OutOrStdout(), rootOpts.Format, updated)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&ingredients, "ingredients", "", "new ingredient list")
	cmd.Flags().StringVar(&instructions, "instructions", "", "new preparation steps")
	cmd.Flags().IntVar(&calories, "calories", 0, "new calories per serving")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a recipe",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, _, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := svc.DeleteRecipe(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted recipe %d\n", id)
			return err
		},
	}
}
