// Package main provides guardianctl, the database maintenance CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"disasterguardian/config"
	"disasterguardian/database"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

const commandTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		mongoURI string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:           "guardianctl",
		Short:         "Disaster Guardian database tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (defaults to MONGO_URI)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(seedCmd(&mongoURI), migrateCmd(&mongoURI))
	return cmd
}

func seedCmd(mongoURI *string) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:       "seed [all|" + strings.Join(database.SeederNames(), "|") + "]...",
		Short:     "Create the admin, test accounts and demo data",
		Long:      "Seeders are idempotent; running them twice creates nothing new.\nWith no arguments every seeder runs.",
		ValidArgs: append([]string{"all"}, database.SeederNames()...),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := seedNames(args)
			if err != nil {
				return err
			}

			return withDatabase(cmd.Context(), *mongoURI, func(ctx context.Context, db *mongo.Database) error {
				return database.RunSeeders(ctx, db, database.SeedOptions{ResetAdmin: reset}, names...)
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete and re-create the admin account")
	return cmd
}

func migrateCmd(mongoURI *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending collection and index migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Connect applies migrations itself
			return withDatabase(cmd.Context(), *mongoURI, func(context.Context, *mongo.Database) error {
				return nil
			})
		},
	}
}

// seedNames maps CLI arguments to seeder names; nil means all of them.
func seedNames(args []string) ([]string, error) {
	known := make(map[string]bool)
	for _, n := range database.SeederNames() {
		known[n] = true
	}

	var names []string
	for _, arg := range args {
		arg = strings.ToLower(strings.TrimSpace(arg))
		if arg == "all" {
			return nil, nil
		}
		if !known[arg] {
			return nil, fmt.Errorf("unknown seeder %q (want all or one of %s)", arg, strings.Join(database.SeederNames(), ", "))
		}
		names = append(names, arg)
	}
	return names, nil
}

func withDatabase(parent context.Context, mongoURI string, fn func(context.Context, *mongo.Database) error) error {
	if mongoURI == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		mongoURI = cfg.DatabaseURL
	}
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	db, err := database.Connect(ctx, mongoURI)
	if err != nil {
		return err
	}
	defer database.Disconnect()

	return fn(ctx, db)
}
