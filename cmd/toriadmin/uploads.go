package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func newUploadCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newUploadEpisodeCommand(ctx),
		newUploadMovieCommand(ctx),
		newUploadsCommand(ctx),
	}
}

// openPart opens a file for a multipart upload; an empty path yields an empty part
func openPart(path string) (toribox.FilePart, func(), error) {
	if path == "" {
		return toribox.FilePart{}, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return toribox.FilePart{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return toribox.FilePart{Name: filepath.Base(path), Reader: f}, func() { f.Close() }, nil
}

// newUploadController wires an upload controller for a single command run
func newUploadController(ctx *commandContext, db *models.Database) (*controllers.UploadController, *controllers.Catalog) {
	catalog := ctx.newCatalog()
	episodeCtrl := controllers.NewEpisodeController(episodes.NewReconciler(ctx.client, ctx.logger), catalog, ctx.logger)
	return controllers.NewUploadController(ctx.client, db, catalog, episodeCtrl, nil, ctx.logger), catalog
}

func newUploadEpisodeCommand(ctx *commandContext) *cobra.Command {
	var (
		movie   string
		number  int
		premium bool
		file    string
	)

	cmd := &cobra.Command{
		Use:   "upload-episode",
		Short: "Upload an episode video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}

			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			uploadCtrl, catalog := newUploadController(ctx, db)

			target, err := catalog.Resolve(cmd.Context(), token, movie)
			if err != nil {
				return err
			}

			video, closeVideo, err := openPart(file)
			if err != nil {
				return err
			}
			defer closeVideo()

			err = uploadCtrl.UploadEpisode(cmd.Context(), token, toribox.EpisodeUpload{
				MovieID:       target.ID,
				EpisodeNumber: number,
				Premium:       premium,
				Video:         video,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded episode %d of %s\n", number, target.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&movie, "movie", "", "Movie ID or title")
	cmd.Flags().IntVar(&number, "episode", 0, "Episode number")
	cmd.Flags().BoolVar(&premium, "premium", false, "Mark the episode as premium")
	cmd.Flags().StringVar(&file, "file", "", "Video file")
	cmd.MarkFlagRequired("movie")
	return cmd
}

func newUploadMovieCommand(ctx *commandContext) *cobra.Command {
	var title, description, genres, cover, video string

	cmd := &cobra.Command{
		Use:   "upload-movie",
		Short: "Upload a new movie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}

			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			uploadCtrl, _ := newUploadController(ctx, db)

			coverPart, closeCover, err := openPart(cover)
			if err != nil {
				return err
			}
			defer closeCover()
			videoPart, closeVideo, err := openPart(video)
			if err != nil {
				return err
			}
			defer closeVideo()

			err = uploadCtrl.UploadMovie(cmd.Context(), token, toribox.MovieUpload{
				Title:       title,
				Description: description,
				Genres:      controllers.ParseGenres(genres),
				Cover:       coverPart,
				Video:       videoPart,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Movie title")
	cmd.Flags().StringVar(&description, "description", "", "Movie description")
	cmd.Flags().StringVar(&genres, "genres", "", "Comma separated genres")
	cmd.Flags().StringVar(&cover, "cover", "", "Cover image file")
	cmd.Flags().StringVar(&video, "video", "", "Video file")
	return cmd
}

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		movieID string
	)

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show the local upload history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			var records []*models.UploadRecord
			if movieID != "" {
				records, err = db.GetUploadsByMovieID(movieID, limit)
			} else {
				records, err = db.RecentUploads(limit)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No uploads recorded")
				return nil
			}

			rows := lo.Map(records, func(r *models.UploadRecord, _ int) []string {
				episode := "-"
				if r.Kind == models.UploadKindEpisode {
					episode = strconv.Itoa(r.EpisodeNumber)
				}
				return []string{
					r.CreatedAt.Local().Format(time.DateTime),
					string(r.Kind),
					r.Title,
					episode,
					string(r.Status),
					r.FailureReason,
				}
			})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{textCol("When"), textCol("Kind"), textCol("Title"), numCol("Episode"), textCol("Status"), textCol("Reason")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of uploads to show")
	cmd.Flags().StringVar(&movieID, "movie", "", "Only show uploads for this movie ID")
	return cmd
}
