package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/config"
	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/cetler74/dbcars-sub000/internal/platform/database"
	"github.com/cetler74/dbcars-sub000/internal/platform/logger"
	"github.com/cetler74/dbcars-sub000/internal/repository"
)

// runtime is the shared state every command needs.
type runtime struct {
	cfg    *config.ServiceConfig
	logger *zap.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	l, err := logger.NewNamed(cfg.AppEnv, "bookingctl")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &runtime{cfg: cfg, logger: l}, nil
}

func (r *runtime) connect() (*gorm.DB, error) {
	return database.Connect(r.cfg.DBConfig, r.logger)
}

// services builds the read side used by availability and quote.
func (r *runtime) services(db *gorm.DB) (*application.AvailabilityService, *application.PricingService) {
	timeout := r.cfg.BookingConfig.StoreTimeout
	fleetRepo := repository.NewFleetRepository(db)
	availability := application.NewAvailabilityService(fleetRepo, repository.NewBookingRepository(db), timeout, r.logger)
	pricing := application.NewPricingService(
		fleetRepo,
		repository.NewPricingRepository(db),
		repository.NewExtraRepository(db),
		repository.NewGormCouponRepository(db),
		timeout,
		r.logger,
	)
	return availability, pricing
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()
			return database.RunMigrations(rt.cfg.DBConfig.DatabaseURL(), rt.cfg.MigrationsDir, rt.logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()
			return database.RollbackMigration(rt.cfg.DBConfig.DatabaseURL(), rt.cfg.MigrationsDir, rt.logger)
		},
	})

	return cmd
}

// windowFlags are the flags shared by availability and quote.
type windowFlags struct {
	vehicle string
	pickup  string
	dropoff string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vehicle, "vehicle", "", "vehicle id")
	cmd.Flags().StringVar(&f.pickup, "pickup", "", "pickup time, RFC3339")
	cmd.Flags().StringVar(&f.dropoff, "dropoff", "", "dropoff time, RFC3339")
	_ = cmd.MarkFlagRequired("vehicle")
	_ = cmd.MarkFlagRequired("pickup")
	_ = cmd.MarkFlagRequired("dropoff")
}

func (f *windowFlags) parse() (uuid.UUID, domain.Interval, error) {
	vehicleID, err := uuid.Parse(f.vehicle)
	if err != nil {
		return uuid.Nil, domain.Interval{}, fmt.Errorf("invalid --vehicle: %w", err)
	}
	pickup, err := time.Parse(time.RFC3339, f.pickup)
	if err != nil {
		return uuid.Nil, domain.Interval{}, fmt.Errorf("invalid --pickup: %w", err)
	}
	dropoff, err := time.Parse(time.RFC3339, f.dropoff)
	if err != nil {
		return uuid.Nil, domain.Interval{}, fmt.Errorf("invalid --dropoff: %w", err)
	}
	iv, err := domain.NewInterval(pickup, dropoff)
	if err != nil {
		return uuid.Nil, domain.Interval{}, err
	}
	return vehicleID, iv, nil
}

func availabilityCmd() *cobra.Command {
	var flags windowFlags
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List the free subunits of a vehicle for a rental window",
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicleID, iv, err := flags.parse()
			if err != nil {
				return err
			}
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			db, err := rt.connect()
			if err != nil {
				return err
			}
			availability, _ := rt.services(db)

			result, err := availability.CheckAvailability(cmd.Context(), vehicleID, iv)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	return cmd
}

func quoteCmd() *cobra.Command {
	var (
		flags    windowFlags
		location string
		coupon   string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a rental window without booking it",
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicleID, iv, err := flags.parse()
			if err != nil {
				return err
			}
			req := application.QuoteRequest{
				VehicleID:  vehicleID,
				PickupAt:   iv.Start,
				DropoffAt:  iv.End,
				CouponCode: coupon,
			}
			if location != "" {
				id, err := uuid.Parse(location)
				if err != nil {
					return fmt.Errorf("invalid --location: %w", err)
				}
				req.LocationID = &id
			}

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			db, err := rt.connect()
			if err != nil {
				return err
			}
			_, pricing := rt.services(db)

			result, err := pricing.Quote(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&location, "location", "", "pickup location id for location rules")
	cmd.Flags().StringVar(&coupon, "coupon", "", "coupon code")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
