package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"yelp_advisor/internal/adapters/termchart"
	"yelp_advisor/internal/app"
	"yelp_advisor/internal/domain"
)

func recommendCmd() *cobra.Command {
	var (
		endpoint string
		width    int
		noTable  bool
	)
	cmd := &cobra.Command{
		Use:   "recommend [request]",
		Short: "Ask the serving endpoint for recommendations",
		Long: `Send a free-text request to the serving endpoint, then chart the returned
recommendations by rating. Without arguments the example request is used:

  ` + app.DefaultRequest,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := strings.Join(args, " ")
			if strings.TrimSpace(request) == "" {
				request = app.DefaultRequest
			}

			svc, cleanup, err := initRecommender(cmd.Context(), endpoint)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := svc.Recommend(cmd.Context(), request)
			if err != nil {
				if !errors.Is(err, domain.ErrSchemaViolation) || set.Len() == 0 {
					return err
				}
				// show what parsed, then fail
				log.Warn().Err(err).Msg("some recommendations were invalid")
			}
			if rerr := printRecommendations(cmd.Context(), cmd.OutOrStdout(), set, width, noTable); rerr != nil {
				return rerr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "serving endpoint name (default: SERVING_ENDPOINT or the first listed)")
	cmd.Flags().IntVar(&width, "width", termchart.DefaultWidth, "chart bar width")
	cmd.Flags().BoolVar(&noTable, "no-table", false, "print only the chart")
	return cmd
}

func printRecommendations(ctx context.Context, w io.Writer, set domain.RecommendationSet, width int, noTable bool) error {
	if err := app.RenderChart(ctx, termchart.New(w, width), set); err != nil {
		return err
	}
	if !noTable {
		if _, err := fmt.Fprintln(w, termchart.RecommendationTable(app.Ranked(set.Items))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "run %s via %s\n", set.RunID, set.Endpoint)
	return err
}
