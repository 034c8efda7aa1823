package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/krisha-intel/krisha-intel/internal/config"
	"github.com/krisha-intel/krisha-intel/internal/logger"
	"github.com/krisha-intel/krisha-intel/internal/model"
	"github.com/krisha-intel/krisha-intel/internal/store"
)

var (
	createDBForce      bool
	createDBSampleData bool
	createDBPath       string
)

var createDBCmd = &cobra.Command{
	Use:   "create-db",
	Short: "Create (or recreate) the SQLite database and run migrations",
	RunE:  createDB,
}

func init() {
	createDBCmd.Flags().BoolVar(&createDBForce, "force", false, "delete any existing database file first")
	createDBCmd.Flags().BoolVar(&createDBSampleData, "sample-data", false, "seed a small set of example complexes and listings")
	createDBCmd.Flags().StringVar(&createDBPath, "db", "", "override store.path from config")
}

func createDB(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.Store.Path
	if createDBPath != "" {
		path = createDBPath
	}

	if createDBForce {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove existing database: %w", err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if createDBSampleData {
		if err := seedSampleData(st); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
		logger.Success("create-db", "seeded sample data")
	}

	logger.Success("create-db", fmt.Sprintf("database ready at %s", path))
	return nil
}

func seedSampleData(st *store.Store) error {
	ctx := context.Background()
	now := time.Now().UTC()
	queryDate := now.Format("2006-01-02")

	complex := model.Complex{ComplexID: "sample-1", Name: "Samal Towers", City: "almaty", District: "Medeu"}
	if err := st.UpsertComplex(ctx, complex); err != nil {
		return err
	}

	floor, totalFloors, year := 5, 12, 2019
	sale := model.Listing{
		FlatID: "sample-sale-1", Price: 32000000, Area: 62.5, FlatType: model.TwoBedroom,
		ResidentialComplex: complex.Name, Floor: &floor, TotalFloors: &totalFloors,
		ConstructionYear: &year, City: complex.City, URL: "https://krisha.kz/a/show/sample-sale-1",
		Description: "Sample listing seeded by create-db --sample-data",
	}
	if err := st.UpsertSales(ctx, sale, queryDate); err != nil {
		return err
	}

	rental := sale
	rental.FlatID = "sample-rental-1"
	rental.Price = 220000
	rental.URL = "https://krisha.kz/a/show/sample-rental-1"
	if err := st.UpsertRental(ctx, rental, queryDate); err != nil {
		return err
	}
	return nil
}
