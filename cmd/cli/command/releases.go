package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mangaalert/internal/app"
	"mangaalert/internal/models"
	"mangaalert/internal/repository"
)

var upcomingDays int

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Release store commands",
}

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List releases dated within the next N days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if upcomingDays < 0 {
			return fmt.Errorf("--days must not be negative")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			today := civilToday(a.Config.Location())
			releases, err := a.Releases.FindBetween(ctx, today, today.AddDate(0, 0, upcomingDays))
			if err != nil {
				return err
			}
			printReleases(cmd, releases, today)
			return nil
		})
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest [title]",
	Short: "Show the most recent release recorded for a manga title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			release, err := a.Releases.LatestForTitle(ctx, title)
			if errors.Is(err, repository.ErrNotFound) {
				fmt.Fprintf(out(cmd), "No releases recorded for %s.\n", title)
				return nil
			}
			if err != nil {
				return err
			}
			printReleases(cmd, []models.Release{*release}, civilToday(a.Config.Location()))
			return nil
		})
	},
}

// civilToday is today's date in loc, as UTC midnight like stored release dates.
func civilToday(loc *time.Location) time.Time {
	y, m, d := time.Now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func printReleases(cmd *cobra.Command, releases []models.Release, today time.Time) {
	if len(releases) == 0 {
		fmt.Fprintln(out(cmd), "No upcoming releases.")
		return
	}
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		days := int(r.ReleaseDate.Sub(today).Hours() / 24)
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.VolumeNumber,
			r.ReleaseDate.Format("02/01/2006"),
			strconv.Itoa(days),
			r.Publisher,
		})
	}
	fmt.Fprintln(out(cmd), renderTable(
		[]string{"ID", "Title", "Volume", "Date", "In days", "Publisher"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func init() {
	upcomingCmd.Flags().IntVar(&upcomingDays, "days", 30, "window size in days, today included")
	releasesCmd.AddCommand(upcomingCmd)
	releasesCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(releasesCmd)
}
