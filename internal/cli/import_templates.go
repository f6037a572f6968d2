package cli

import (
	"fmt"

	"alcyxob/fittrack/internal/service"
	"alcyxob/fittrack/internal/templates"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportTemplatesCmd(open func() (*Runtime, error)) *cobra.Command {
	var userHex string

	cmd := &cobra.Command{
		Use:   "import-templates <file.toml>",
		Short: "Create workout templates for a user from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(userHex)
			if err != nil {
				return err
			}
			defs, err := templates.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			rt, err := open()
			if err != nil {
				return err
			}
			defer rt.Repos.Close()

			workouts := service.NewWorkoutService(rt.Repos.Workouts, rt.Clock, nil)
			created, err := workouts.ImportTemplates(cmd.Context(), userID, defs)
			if err != nil {
				return fmt.Errorf("import failed, nothing was saved: %w", err)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen, color.Bold).SprintFunc()
			for _, w := range created {
				fmt.Fprintf(out, "%s %s (%d exercises, %d sets) id=%s\n",
					green("✔"), w.Name, len(w.Exercises), w.TotalSets(), w.ID.Hex())
			}
			fmt.Fprintf(out, "Imported %d templates.\n", len(created))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userHex, "user", "u", "", "Owner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
