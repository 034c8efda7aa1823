package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
)

var (
	ignoreFlatID string
	ignoreDB     string
)

var ignoreOpportunityCmd = &cobra.Command{
	Use:   "ignore-opportunity",
	Short: "Manage the set of flats excluded from future opportunity rankings",
}

var ignoreOpportunityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignored flat IDs",
	RunE:  ignoreOpportunityList,
}

var ignoreOpportunityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Exclude a flat from future opportunity rankings",
	RunE:  ignoreOpportunityAdd,
}

func init() {
	for _, c := range []*cobra.Command{ignoreOpportunityListCmd, ignoreOpportunityAddCmd} {
		c.Flags().StringVar(&ignoreDB, "db", "", "override store.path from config")
	}
	ignoreOpportunityAddCmd.Flags().StringVar(&ignoreFlatID, "flat-id", "", "flat ID to exclude (required)")
	ignoreOpportunityCmd.AddCommand(ignoreOpportunityListCmd, ignoreOpportunityAddCmd)
}

func ignoreOpportunityList(cmd *cobra.Command, args []string) error {
	_, st, err := openStore(ignoreDB)
	if err != nil {
		return err
	}
	defer st.Close()

	ignored, err := st.ListIgnoredOpportunities(context.Background())
	if err != nil {
		return err
	}
	logger.Section("Ignored opportunities")
	for flatID := range ignored {
		logger.Stats(flatID, "excluded from rankings")
	}
	logger.Stats("Total", len(ignored))
	return nil
}

func ignoreOpportunityAdd(cmd *cobra.Command, args []string) error {
	if ignoreFlatID == "" {
		return fmt.Errorf("ignore-opportunity add: --flat-id is required")
	}
	_, st, err := openStore(ignoreDB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AddIgnoredOpportunity(context.Background(), ignoreFlatID); err != nil {
		return err
	}
	logger.Success("ignore-opportunity", fmt.Sprintf("flat %s excluded from future rankings", ignoreFlatID))
	return nil
}
