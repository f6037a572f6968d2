package cli

import (
	"fmt"
	"time"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDailyTotalsCmd(open func() (*Runtime, error)) *cobra.Command {
	var userHex, date string

	cmd := &cobra.Command{
		Use:   "daily-totals",
		Short: "Print a user's nutrition totals for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseUserID(userHex)
			if err != nil {
				return err
			}

			rt, err := open()
			if err != nil {
				return err
			}
			defer rt.Repos.Close()

			settings, err := service.NewNutritionSettings(rt.Config.Nutrition)
			if err != nil {
				return err
			}
			day := rt.Clock.Now().In(settings.Location)
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, settings.Location); err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
			}

			// Lookup and photo storage are not needed for summaries.
			nutrition := service.NewNutritionService(rt.Repos.Entries, nil, nil, rt.Clock, nil, settings)
			summary, err := nutrition.DailySummary(cmd.Context(), userID, day)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userHex, "user", "u", "", "User id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Day as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printSummary(cmd *cobra.Command, s *service.DailySummary) {
	out := cmd.OutOrStdout()
	printBoxedHeader(out, "NUTRITION "+s.Date)

	yellowBold := color.New(color.FgYellow, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, m := range s.Tracked {
		value := fmt.Sprintf("%.1f / %.0f %s", m.Consumed, m.DailyTarget, m.Unit)
		over := m.Consumed > m.DailyTarget
		switch {
		case m.Polarity == domain.LowerIsBetter && over:
			value = red(value + " (over)")
		case m.Polarity == domain.HigherIsBetter && !over:
			value += fmt.Sprintf(", %.1f %s to go", m.Remaining, m.Unit)
		default:
			value = green(value)
		}
		fmt.Fprintf(out, "  %s: %s\n", yellowBold(m.Name), value)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s: %d\n", yellowBold("Entries"), s.EntryCount)
	if s.NeedsVerification > 0 {
		fmt.Fprintf(out, "  %s: %s\n", yellowBold("Needs verification"), red(s.NeedsVerification))
	}
}
