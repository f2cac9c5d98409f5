package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"yelp_advisor/internal/adapters/termchart"
	"yelp_advisor/internal/domain"
)

func addressesCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List businesses with their address decoded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, db, err := initExplore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			views, errs, err := svc.Businesses(cmd.Context(), domain.BusinessQuery{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return printWithErrors(cmd.OutOrStdout(), termchart.BusinessTable(views), errs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum businesses to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "businesses to skip")
	return cmd
}

func amenitiesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "amenities",
		Short: "Flatten business amenities into one row per amenity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, db, err := initExplore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rows, errs, err := svc.Amenities(cmd.Context(), domain.BusinessQuery{Limit: limit})
			if err != nil {
				return err
			}
			return printWithErrors(cmd.OutOrStdout(), termchart.AmenityTable(rows), errs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum businesses to read")
	return cmd
}

func reviewsCmd() *cobra.Command {
	var (
		limit int
		sort  string
	)
	cmd := &cobra.Command{
		Use:   "reviews <business-id>",
		Short: "List the reviews of one business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := initExplore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			reviews, err := svc.Reviews(cmd.Context(), args[0], domain.PageQuery{Limit: limit, Sort: sort})
			if err != nil {
				return fmt.Errorf("reviews of %s: %w", args[0], err)
			}
			return printWithErrors(cmd.OutOrStdout(), termchart.ReviewTable(reviews), nil)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum reviews to list")
	cmd.Flags().StringVar(&sort, "sort", "-date", "order: -date, date, -rating, rating")
	return cmd
}

func missingReviewsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "missing-reviews",
		Short: "List businesses whose review count is unknown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, db, err := initExplore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			views, errs, err := svc.MissingReviewCount(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printWithErrors(cmd.OutOrStdout(), termchart.BusinessTable(views), errs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum businesses to list")
	return cmd
}

// printWithErrors prints the table and a summary of rows that failed to
// decode. Decode failures do not fail the command.
func printWithErrors(w io.Writer, table string, errs []error) error {
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}
	if len(errs) > 0 {
		log.Warn().Int("rows", len(errs)).Msg("some rows could not be decoded")
	}
	return nil
}
