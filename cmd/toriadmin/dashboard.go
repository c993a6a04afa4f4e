package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/models"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show movie and episode totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			dashboard := controllers.NewDashboardController(ctx.client, db, nil, ctx.logger)

			var snapshot *models.StatsSnapshot
			if refresh {
				snapshot, err = dashboard.Refresh(cmd.Context())
			} else {
				snapshot, err = dashboard.Latest()
				if errors.Is(err, models.ErrNoSnapshot) {
					return fmt.Errorf("%w; run with --refresh", err)
				}
			}
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Movies", strconv.Itoa(snapshot.MovieCount)},
				{"Episodes", strconv.Itoa(snapshot.EpisodeCount)},
				{"Premium episodes", strconv.Itoa(snapshot.PremiumEpisodeCount)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]column{textCol("Stat"), numCol("Count")}, rows))
			fmt.Fprintf(out, "Captured %s\n", snapshot.CapturedAt.Local().Format(time.RFC1123))
			if len(snapshot.FailedMovies) > 0 {
				fmt.Fprintf(out, "Episode listings failed for: %s\n", strings.Join(snapshot.FailedMovies, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Recount now instead of showing the last capture")
	return cmd
}
