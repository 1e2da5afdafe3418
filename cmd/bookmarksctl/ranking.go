package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/spf13/cobra"
)

var (
	rankingCmd = &cobra.Command{
		Use:   "ranking",
		Short: "Inspect and repair the image view ranking",
	}

	rankingShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the most viewed images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("top")

			env, err := connect(true)
			if err != nil {
				return err
			}
			defer env.close()

			return showRanking(cmd.Context(), env.reconciler, env.counter, n, cmd.OutOrStdout())
		},
	}

	rankingPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Drop view counters of images that no longer exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect(true)
			if err != nil {
				return err
			}
			defer env.close()

			removed, err := env.reconciler.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d ranking entries\n", removed)
			return nil
		},
	}
)

func init() {
	rankingShowCmd.Flags().IntP("top", "n", 10, "number of images to show")

	rankingCmd.AddCommand(rankingShowCmd)
	rankingCmd.AddCommand(rankingPruneCmd)
}

type topImages interface {
	TopImages(ctx context.Context, n int) ([]*models.Image, error)
}

type viewCounts interface {
	Views(ctx context.Context, imageID uint) (int64, error)
}

func showRanking(ctx context.Context, ranking topImages, views viewCounts, n int, out io.Writer) error {
	images, err := ranking.TopImages(ctx, n)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tID\tVIEWS\tTITLE")
	for i, img := range images {
		count, err := views.Views(ctx, img.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", i+1, img.ID, count, img.Title)
	}
	return w.Flush()
}
