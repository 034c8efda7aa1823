package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/sales"
)

var (
	opportunityDiscount    float64
	opportunityTopN        int
	opportunityMaxDiscount float64
	opportunityCity        string
	opportunityOutput      string
	opportunityDB          string
)

var findOpportunitiesCmd = &cobra.Command{
	Use:   "find-opportunities",
	Short: "Rank under-market sale listings across a city's complexes and export a CSV",
	RunE:  findOpportunities,
}

func init() {
	findOpportunitiesCmd.Flags().Float64Var(&opportunityDiscount, "discount", 0.15, "minimum discount vs. bucket mean to qualify as an opportunity")
	findOpportunitiesCmd.Flags().IntVar(&opportunityTopN, "top-n", 50, "maximum rows to keep, highest discount first")
	findOpportunitiesCmd.Flags().Float64Var(&opportunityMaxDiscount, "max-discount", 50, "drop rows whose discount vs. median exceeds this percentage (likely data error)")
	findOpportunitiesCmd.Flags().StringVar(&opportunityCity, "city", "", "city to scan (required)")
	findOpportunitiesCmd.Flags().StringVar(&opportunityOutput, "output", "", "CSV output path (required)")
	findOpportunitiesCmd.Flags().StringVar(&opportunityDB, "db", "", "override store.path from config")
	findOpportunitiesCmd.MarkFlagRequired("city")
	findOpportunitiesCmd.MarkFlagRequired("output")
}

var csvHeader = []string{
	"rank", "flat_id", "residential_complex", "price", "area", "flat_type",
	"floor", "total_floors", "construction_year", "parking",
	"discount_percentage_vs_median", "median_price", "mean_price", "min_price",
	"max_price", "sample_size", "query_date", "url", "description",
}

func findOpportunities(cmd *cobra.Command, args []string) error {
	_, st, err := openStore(opportunityDB)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	dir := newDirectory(st)

	complexes, err := dir.ListExcludingBlacklists(ctx, opportunityCity)
	if err != nil {
		return fmt.Errorf("list complexes: %w", err)
	}

	ignored, err := st.ListIgnoredOpportunities(ctx)
	if err != nil {
		return fmt.Errorf("list ignored opportunities: %w", err)
	}

	var candidates []sales.CandidateOpportunity
	for _, c := range complexes {
		listings, err := st.LatestSalesForComplex(ctx, c.Name, opportunityCity)
		if err != nil {
			return fmt.Errorf("latest sales for %s: %w", c.Name, err)
		}
		market := sales.AnalyzeCurrentMarket(c.Name, listings)
		for _, l := range listings {
			if _, skip := ignored[l.FlatID]; skip {
				continue
			}
			bucket, ok := market.Buckets[l.FlatType]
			if !ok {
				continue
			}
			if sales.IsOpportunity(l, bucket, opportunityDiscount) {
				candidates = append(candidates, sales.CandidateOpportunity{Listing: l, Bucket: bucket, QueryDate: l.QueryDate})
			}
		}
	}

	rows := sales.TopN(candidates, opportunityTopN, opportunityMaxDiscount)

	if err := writeOpportunityCSV(opportunityOutput, rows); err != nil {
		return err
	}

	runTimestamp := time.Now().Format("2006-01-02 15:04:05")
	if err := st.InsertOpportunityBatch(ctx, rows, runTimestamp); err != nil {
		return fmt.Errorf("persist opportunity batch: %w", err)
	}

	logger.Section("Opportunity scan summary")
	logger.Stats("City", opportunityCity)
	logger.Stats("Complexes scanned", len(complexes))
	logger.Stats("Total opportunities", len(rows))
	if len(rows) > 0 {
		logger.Stats("Top discount", fmt.Sprintf("%.1f%%", rows[0].DiscountPercentageVsMedian))
		logger.Stats("Top price", humanize.Comma(rows[0].Price))
	}
	return nil
}

func writeOpportunityCSV(path string, rows []model.OpportunityRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Rank),
			r.FlatID,
			r.ResidentialComplex,
			strconv.FormatInt(r.Price, 10),
			strconv.FormatFloat(r.Area, 'f', -1, 64),
			string(r.FlatType),
			intPtrString(r.Floor),
			intPtrString(r.TotalFloors),
			intPtrString(r.ConstructionYear),
			r.Parking,
			strconv.FormatFloat(r.DiscountPercentageVsMedian, 'f', 2, 64),
			strconv.FormatFloat(r.Bucket.Median, 'f', 2, 64),
			strconv.FormatFloat(r.Bucket.Mean, 'f', 2, 64),
			strconv.FormatFloat(r.Bucket.Min, 'f', 2, 64),
			strconv.FormatFloat(r.Bucket.Max, 'f', 2, 64),
			strconv.Itoa(r.Bucket.Count),
			r.QueryDate,
			r.URL,
			r.Description,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
