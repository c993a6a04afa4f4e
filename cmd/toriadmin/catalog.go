package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func newCatalogCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newRatingCommand(ctx, "rate", "Add a user's rating of a movie", true),
		newRatingCommand(ctx, "unrate", "Remove a user's rating of a movie", false),
		newSearchQueryCommand(ctx),
		newBunnyCommand(ctx),
	}
}

func newRatingCommand(ctx *commandContext, use, short string, add bool) *cobra.Command {
	var rating toribox.RatingRequest

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if add {
				err = ctx.client.AddRating(cmd.Context(), rating)
			} else {
				err = ctx.client.RemoveRating(cmd.Context(), rating)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Done")
			return nil
		},
	}

	cmd.Flags().StringVar(&rating.UniqueID, "user", "", "Unique ID of the rating user")
	cmd.Flags().StringVar(&rating.MovieID, "movie", "", "Movie ID")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("movie")
	return cmd
}

func newSearchQueryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search-query <query>",
		Short: "Register a search query suggestion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}
			if err := ctx.client.UploadSearchQuery(cmd.Context(), token, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Search query uploaded")
			return nil
		},
	}
}

func newBunnyCommand(ctx *commandContext) *cobra.Command {
	var thumbnails bool

	cmd := &cobra.Command{
		Use:   "bunny",
		Short: "List videos in the Bunny CDN library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, err := ctx.client.ListBunnyVideos(cmd.Context())
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos")
				return nil
			}

			cols, rows := bunnyTable(ctx.client, videos, thumbnails)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(cols, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "Show thumbnail URLs")
	return cmd
}

// bunnyTable lays out Bunny videos. Videos without an MP4 fallback have no
// direct play URL.
func bunnyTable(client *toribox.Client, videos []toribox.BunnyVideo, thumbnails bool) ([]column, [][]string) {
	cols := []column{textCol("Title"), numCol("Seconds"), numCol("Views"), textCol("Play URL")}
	if thumbnails {
		cols = append(cols, textCol("Thumbnail"))
	}

	rows := lo.Map(videos, func(v toribox.BunnyVideo, _ int) []string {
		play := "-"
		if v.HasMP4Fallback {
			play = client.PlayURL(v.GUID)
		}
		row := []string{v.Title, strconv.Itoa(v.Length), strconv.Itoa(v.Views), play}
		if thumbnails {
			row = append(row, client.ThumbnailURL(v.GUID))
		}
		return row
	})

	return cols, rows
}
