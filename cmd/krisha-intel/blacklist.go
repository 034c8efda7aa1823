package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/logger"
)

var (
	blacklistName      string
	blacklistComplexID string
	blacklistNotes     string
	blacklistDB        string
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage the blacklisted-complex list",
}

var blacklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blacklisted complexes",
	RunE:  blacklistList,
}

var blacklistAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Blacklist a complex by ID and display name",
	RunE:  blacklistAdd,
}

var blacklistRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a complex from the blacklist",
	RunE:  blacklistRemove,
}

func init() {
	for _, c := range []*cobra.Command{blacklistAddCmd, blacklistRemoveCmd} {
		c.Flags().StringVar(&blacklistName, "name", "", "complex display name")
		c.Flags().StringVar(&blacklistComplexID, "complex-id", "", "complex ID (alias: --jk-id)")
		c.Flags().StringVar(&blacklistComplexID, "jk-id", "", "complex ID (alias: --complex-id)")
	}
	blacklistAddCmd.Flags().StringVar(&blacklistNotes, "notes", "", "free-text reason")
	for _, c := range []*cobra.Command{blacklistListCmd, blacklistAddCmd, blacklistRemoveCmd} {
		c.Flags().StringVar(&blacklistDB, "db", "", "override store.path from config")
	}
	blacklistCmd.AddCommand(blacklistListCmd, blacklistAddCmd, blacklistRemoveCmd)
}

func blacklistList(cmd *cobra.Command, args []string) error {
	_, st, err := openStore(blacklistDB)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListBlacklistedComplexes(context.Background())
	if err != nil {
		return err
	}
	logger.Section("Blacklisted complexes")
	for _, e := range entries {
		logger.Stats(fmt.Sprintf("%s (%s)", e.Name, e.ComplexID), e.Notes)
	}
	logger.Stats("Total", len(entries))
	return nil
}

func blacklistAdd(cmd *cobra.Command, args []string) error {
	if blacklistComplexID == "" {
		return fmt.Errorf("blacklist add: --complex-id (or --jk-id) is required")
	}
	if blacklistName == "" {
		return fmt.Errorf("blacklist add: --name is required")
	}
	_, st, err := openStore(blacklistDB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AddBlacklistedComplex(context.Background(), blacklistComplexID, blacklistName, blacklistNotes); err != nil {
		return err
	}
	logger.Success("blacklist", fmt.Sprintf("blacklisted %s (%s)", blacklistName, blacklistComplexID))
	return nil
}

func blacklistRemove(cmd *cobra.Command, args []string) error {
	if blacklistComplexID == "" {
		return fmt.Errorf("blacklist remove: --complex-id (or --jk-id) is required")
	}
	_, st, err := openStore(blacklistDB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RemoveBlacklistedComplex(context.Background(), blacklistComplexID); err != nil {
		return err
	}
	logger.Success("blacklist", fmt.Sprintf("removed %s from the blacklist", blacklistComplexID))
	return nil
}
