package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fieldkit/curator/internal/audit"
	"github.com/fieldkit/curator/internal/config"
	"github.com/fieldkit/curator/internal/database"
	auditdb "github.com/fieldkit/curator/internal/database/audit"
	curationdb "github.com/fieldkit/curator/internal/database/curations"
	curatordb "github.com/fieldkit/curator/internal/database/curators"
	entitydb "github.com/fieldkit/curator/internal/database/entities"
	"github.com/fieldkit/curator/internal/database/settings"
	"github.com/fieldkit/curator/internal/guard"
	"github.com/fieldkit/curator/internal/migration"
	"github.com/fieldkit/curator/internal/settingsstore"
)

type MigrateCommand struct {
	DatabasePath string
	LegacyPaths  string
	Force        bool
	Verbose      bool
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the curator database file")
	fs.StringVar(&cmd.LegacyPaths, "legacy", config.DefaultLegacyDatabasePaths, "Comma-separated candidate legacy database files, probed in order")
	fs.BoolVar(&cmd.Force, "force", false, "Run even if the migration completion flag is already set")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print progress for every processed batch")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import records from a legacy capture database into the current schema.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s migrate -legacy ./old-captures.db -db ./curator.db\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	settingsStore := settingsstore.New(settings.NewRepository(db.DB))
	if cmd.Force {
		if err := settingsStore.ClearMigrationFlag(); err != nil {
			return fmt.Errorf("failed to clear migration flag: %w", err)
		}
	} else if settingsStore.IsMigrationComplete() {
		fmt.Println("Migration already complete; nothing to do. Use -force to run again.")
		return nil
	}

	var legacyPaths []string
	for _, p := range strings.Split(cmd.LegacyPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			legacyPaths = append(legacyPaths, p)
		}
	}

	var progress migration.ProgressFunc
	if cmd.Verbose {
		progress = func(kind string, processed, total int) {
			fmt.Printf("  %s: %d/%d\n", kind, processed, total)
		}
	}

	engine := migration.NewEngine(
		legacyPaths,
		entitydb.NewRepository(db.DB),
		curationdb.NewRepository(db.DB),
		curatordb.NewRepository(db.DB),
		settingsStore,
		guard.NewGate(),
		audit.NewService(auditdb.NewRepository(db.DB)),
		progress,
	)

	if err := engine.Run(context.Background()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	status := engine.Status()
	fmt.Printf("Migration finished: %d/%d source records migrated, %d errors\n",
		status.MigratedSource, status.TotalSource, len(status.Errors))
	for _, e := range status.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	return nil
}
