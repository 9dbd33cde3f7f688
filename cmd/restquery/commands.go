package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/filter"
	"github.com/MBrOssss/RESTApi/core/schema"
	"github.com/MBrOssss/RESTApi/core/search"
	"github.com/MBrOssss/RESTApi/metrics"
	"github.com/MBrOssss/RESTApi/sqlstore"
	"github.com/MBrOssss/RESTApi/utils"
)

func newCreateTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-table <schema>",
		Short: "Create the table and indexes of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			db, dialect, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlstore.CreateTable(cmd.Context(), db, dialect, def); err != nil {
				return err
			}
			a.logger.Info("Table created", zap.String("table", def.Name), zap.Int("indexes", len(def.Indexes)))
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed <schema>",
		Short: "Insert rows from a JSON array of objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			docs, err := utils.DecodeDocuments(in)
			if err != nil {
				return err
			}

			db, dialect, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := sqlstore.Insert(cmd.Context(), db, dialect, def, docs...)
			if err != nil {
				return err
			}
			a.logger.Info("Rows inserted", zap.String("table", def.Name), zap.Int("rows", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file to read, - for stdin")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		page, perPage int
		sortJSON      string
		filterJSON    string
		showMetrics   bool
	)
	cmd := &cobra.Command{
		Use:   "search <schema>",
		Short: "Search a table and print the result envelope as JSON",
		Long: `Search a table with the prefix-keyed filter language.

Examples:
  restquery search doctors --filter '{"q":"cardio","in_ClinicId":"9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"}'
  restquery search doctors --page 0 --per-page 10 --sort '["Name","ASC"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pagePtr, perPagePtr *int
			if cmd.Flags().Changed("page") {
				pagePtr = &page
			}
			if cmd.Flags().Changed("per-page") {
				perPagePtr = &perPage
			}
			req, err := search.ParseRequest(pagePtr, perPagePtr, sortJSON, filterJSON)
			if err != nil {
				return writeEnvelope(cmd.OutOrStdout(), search.FailedListResponse[schema.Document](err), err)
			}

			def, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}
			db, dialect, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			collection, err := sqlstore.NewCollection(db, dialect, def, a.logger)
			if err != nil {
				return err
			}
			opts := []search.Option{
				search.WithLogger(a.logger),
				search.WithCompilerOptions(filter.WithPlanCacheSize(a.cfg.PlanCacheSize)),
			}
			registry := prometheus.NewRegistry()
			if showMetrics {
				recorder, err := metrics.NewRecorder(registry)
				if err != nil {
					return err
				}
				opts = append(opts, search.WithObserver(recorder.Observe))
			}
			searcher, err := search.NewSearcher(collection.Descriptor(), opts...)
			if err != nil {
				return err
			}

			result, err := searcher.Search(cmd.Context(), collection, req)
			if err != nil {
				return writeEnvelope(cmd.OutOrStdout(), search.FailedListResponse[schema.Document](err), err)
			}
			if err := writeEnvelope(cmd.OutOrStdout(), search.NewListResponse(result), nil); err != nil {
				return err
			}
			if showMetrics {
				return metrics.WriteText(cmd.ErrOrStderr(), registry)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&page, "page", 0, "zero-based page index")
	flags.IntVar(&perPage, "per-page", 0, "page size; paging applies only with --page")
	flags.StringVar(&sortJSON, "sort", "", `sort as a JSON pair, e.g. '["Name","ASC"]'`)
	flags.StringVar(&filterJSON, "filter", "", `filter as a JSON object, e.g. '{"string_Name":"nowak"}'`)
	flags.BoolVar(&showMetrics, "metrics", false, "print search metrics to stderr in Prometheus text format")
	return cmd
}

// writeEnvelope prints the response as indented JSON and returns cause, so
// failed searches still produce an envelope on stdout.
func writeEnvelope[T any](w io.Writer, resp search.ListResponse[T], cause error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	return cause
}
