package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "movies",
		Short: "List movies (the admin listing when logged in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			movies, err := ctx.client.ListMovies(cmd.Context(), ctx.token())
			if err != nil {
				return err
			}
			if len(movies) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No movies found")
				return nil
			}

			rows := lo.Map(movies, func(m toribox.Movie, _ int) []string {
				return []string{m.ID, m.Title, strings.Join(m.GenreTitles(), ", "), strconv.Itoa(len(m.Episodes))}
			})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{textCol("ID"), textCol("Title"), textCol("Genres"), numCol("Episodes")},
				rows,
			))
			return nil
		},
	}
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var premiumOnly bool

	cmd := &cobra.Command{
		Use:   "episodes <movie id or title>",
		Short: "Show the episodes of a movie with their stream URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ctx.token()
			catalog := ctx.newCatalog()

			movie, err := catalog.Resolve(cmd.Context(), token, strings.Join(args, " "))
			if err != nil {
				return err
			}

			reconciler := episodes.NewReconciler(ctx.client, ctx.logger)
			merged, err := reconciler.Reconcile(cmd.Context(), movie.ID, catalog.Lookup(token), token)
			if err != nil {
				return err
			}
			if premiumOnly {
				merged = episodes.FilterPremium(merged)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", movie.Title, movie.ID)
			if len(merged) == 0 {
				fmt.Fprintln(out, "No episodes")
				return nil
			}

			rows := lo.Map(merged, func(ep episodes.MergedEpisode, _ int) []string {
				stream := "-"
				if ep.HasStream() {
					stream = *ep.Stream
				}
				return []string{strconv.Itoa(ep.EpisodeCount), ep.EpisodeID, yesNo(ep.Premium), stream}
			})
			fmt.Fprintln(out, renderTable(
				[]column{numCol("#"), textCol("Episode"), textCol("Premium"), textCol("Stream")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&premiumOnly, "premium", false, "Only show premium episodes")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
