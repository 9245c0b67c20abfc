package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pricebook-recon/internal/config"
	"pricebook-recon/internal/fileio"
	"pricebook-recon/internal/reconcile/model"
	recSvc "pricebook-recon/internal/reconcile/service"
)

type diffFlags struct {
	oldPath    string
	newPath    string
	headerRow  int
	reviewOnly bool
	types      []string
	noFuzzy    bool

	reviewLevels  []string
	reviewMethods []string
	reviewMaxConf float64
}

func newDiffCmd(configFile *string) *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "diff --old OLD --new NEW",
		Short: "Diff two snapshot files and print the result as JSON",
		Example: `  pricebook-recon diff --old pricebook-2025.xlsx --new pricebook-2026.xlsx
  pricebook-recon diff --old a.json --new b.json --types price_changed,renamed
  pricebook-recon diff --old a.csv --new b.csv --review-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd, *configFile, f)
		},
	}
	cmd.Flags().StringVar(&f.oldPath, "old", "", "old snapshot (json, yaml, csv, xls, xlsx)")
	cmd.Flags().StringVar(&f.newPath, "new", "", "new snapshot (json, yaml, csv, xls, xlsx)")
	cmd.Flags().IntVar(&f.headerRow, "header-row", 1, "header row for csv/xls/xlsx (1-based)")
	cmd.Flags().BoolVar(&f.reviewOnly, "review-only", false, "print only the review queue")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "only these change types, e.g. price_changed,renamed")
	cmd.Flags().BoolVar(&f.noFuzzy, "no-fuzzy", false, "disable fuzzy matching")
	cmd.Flags().StringSliceVar(&f.reviewLevels, "review-levels", nil, "with --review-only: keep these confidence levels, e.g. low,very_low")
	cmd.Flags().StringSliceVar(&f.reviewMethods, "review-methods", nil, "with --review-only: keep these match methods, e.g. fuzzy")
	cmd.Flags().Float64Var(&f.reviewMaxConf, "review-max-confidence", 0, "with --review-only: keep matches below this confidence (0 = no limit)")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func runDiff(cmd *cobra.Command, configFile string, f diffFlags) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	// в stdout только JSON, лог идёт в stderr и файл
	logger := config.SetupLogger(cfg.Log, cmd.ErrOrStderr())

	types := make([]model.ChangeType, 0, len(f.types))
	for _, t := range f.types {
		ct := model.ChangeType(strings.ToLower(strings.TrimSpace(t)))
		if !ct.Valid() {
			return fmt.Errorf("unknown change type %q", t)
		}
		types = append(types, ct)
	}

	filter, err := model.NewReviewFilter(f.reviewLevels, f.reviewMethods, f.reviewMaxConf)
	if err != nil {
		return err
	}

	opt, err := cfg.DiffOptions()
	if err != nil {
		return err
	}
	if f.noFuzzy {
		opt.EnableFuzzyMatching = false
	}

	oldSnap, err := fileio.ReadSnapshotFile(f.oldPath, f.headerRow)
	if err != nil {
		return err
	}
	newSnap, err := fileio.ReadSnapshotFile(f.newPath, f.headerRow)
	if err != nil {
		return err
	}

	res, err := recSvc.CreateDiff(oldSnap, newSnap, opt, recSvc.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info().Msg(res.String())

	var out any = res
	switch {
	case f.reviewOnly:
		out = map[string]any{
			"old_id":           res.OldID,
			"new_id":           res.NewID,
			"review_threshold": res.ReviewThreshold,
			"review_queue":     res.FilterReviewQueue(filter),
		}
	case len(types) > 0:
		res.Changes = res.FilterChanges(types...)
		res.Summary = res.ChangeSummary(types...)
		out = res
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
