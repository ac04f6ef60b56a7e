// cmd/tools/default-lenders/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"msme-lender-platform/internal/bootstrap"
	"msme-lender-platform/internal/common/config"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"
	"msme-lender-platform/pkg/lenderfile"
)

func main() {
	backupCmd := flag.NewFlagSet("backup", flag.ExitOnError)
	restoreCmd := flag.NewFlagSet("restore", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	backupDir := backupCmd.String("dir", "", "Directory for the dated backup (defaults to the defaults file directory)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		path := fileArg(validateCmd, "")
		if path == "" {
			path = defaultsPathFromEnv()
		}
		n, err := validateFile(path)
		if err != nil {
			fmt.Printf("Default lenders validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("File validation passed. Found %d valid default lenders.\n", n)

	case "backup":
		backupCmd.Parse(os.Args[2:])
		withStore(func(ctx context.Context, cfg *config.Config, st store.LenderStore) error {
			dir := *backupDir
			if dir == "" {
				dir = filepath.Dir(cfg.Lenders.DefaultsPath)
			}
			res, err := backup(ctx, st, cfg.Lenders.DefaultsPath, dir, time.Now())
			if err != nil {
				return err
			}
			if res.Count == 0 {
				fmt.Println("No default lenders found in the store, nothing written.")
				return nil
			}
			fmt.Printf("Backed up %d default lenders to %s\n", res.Count, res.BackupPath)
			fmt.Printf("Updated %s\n", cfg.Lenders.DefaultsPath)
			return nil
		})

	case "restore":
		restoreCmd.Parse(os.Args[2:])
		withStore(func(ctx context.Context, cfg *config.Config, st store.LenderStore) error {
			path := fileArg(restoreCmd, cfg.Lenders.DefaultsPath)
			res, err := restore(ctx, st, path)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d existing default lenders\n", res.Removed)
			fmt.Printf("Restored %d default lenders, preserved %d user-added lenders\n", res.Restored, res.Preserved)
			return nil
		})

	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}
}

func fileArg(fs *flag.FlagSet, fallback string) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return fallback
}

// defaultsPathFromEnv lets validate run without a reachable database.
func defaultsPathFromEnv() string {
	cfg, err := config.Load()
	if err != nil {
		return "configs/default-lenders.json"
	}
	return cfg.Lenders.DefaultsPath
}

func withStore(fn func(ctx context.Context, cfg *config.Config, st store.LenderStore) error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	// The tool talks to the primary store directly. Lender cache entries
	// expire on their own TTL.
	cfg.Database.Redis.Enabled = false

	log := logger.NewStructured("warn", "console", "stdout")
	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, log, bootstrap.Retry{Attempts: 3, InitialDelay: time.Second})
	if err != nil {
		fmt.Printf("Error connecting to %s store: %v\n", cfg.Database.Driver, err)
		os.Exit(1)
	}
	defer stores.Close(ctx)

	if err := fn(ctx, cfg, stores.Lenders); err != nil {
		fmt.Printf("Error: %v\n", err)
		stores.Close(ctx)
		os.Exit(1)
	}
}

func validateFile(path string) (int, error) {
	f, err := lenderfile.Load(path)
	if err != nil {
		return 0, err
	}
	if err := lenderfile.Validate(f); err != nil {
		return 0, err
	}
	return len(f.Lenders), nil
}

type backupResult struct {
	Count      int
	BackupPath string
}

// backup writes the store's default lenders to a dated file in dir and
// overwrites the defaults file with the same content.
func backup(ctx context.Context, st store.LenderStore, defaultsPath, dir string, now time.Time) (*backupResult, error) {
	all, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lenders: %w", err)
	}
	var defaults []models.LenderConfig
	for _, l := range all {
		if !l.IsDefault {
			continue
		}
		l.CreatedAt, l.UpdatedAt = time.Time{}, time.Time{}
		defaults = append(defaults, l)
	}
	if len(defaults) == 0 {
		return &backupResult{}, nil
	}
	store.SortLenders(defaults)

	f := lenderfile.NewFile(defaults, now)
	f.BackupDate = f.LastUpdated

	res := &backupResult{Count: len(defaults), BackupPath: filepath.Join(dir, lenderfile.BackupName(now))}
	if err := lenderfile.Save(res.BackupPath, f); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	if err := lenderfile.Save(defaultsPath, f); err != nil {
		return nil, fmt.Errorf("write defaults file: %w", err)
	}
	return res, nil
}

type restoreResult struct {
	Removed   int64
	Restored  int
	Preserved int
}

// restore validates path, then replaces every default lender in the store
// with the file's lenders. User-added lenders are left alone.
func restore(ctx context.Context, st store.LenderStore, path string) (*restoreResult, error) {
	f, err := lenderfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := lenderfile.Validate(f); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	all, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lenders: %w", err)
	}
	preserved := 0
	for _, l := range all {
		if !l.IsDefault {
			preserved++
		}
	}

	now := time.Now().UTC()
	lenders := make([]models.LenderConfig, len(f.Lenders))
	for i, l := range f.Lenders {
		l.CreatedAt, l.UpdatedAt = now, now
		lenders[i] = l
	}
	removed, err := st.ReplaceDefaults(ctx, lenders)
	if err != nil {
		return nil, fmt.Errorf("replace default lenders: %w", err)
	}
	return &restoreResult{Removed: removed, Restored: len(lenders), Preserved: preserved}, nil
}

func help() {
	fmt.Println(`
Usage: default-lenders <command> [flags] [file]

Commands:
  backup    Write the store's default lenders to a dated backup and to the defaults file
  restore   Replace the default lenders in the store with those in file
  validate  Check a default-lenders file without touching the store
  help      Show this help message

Examples:
  default-lenders backup -dir configs/backups
  default-lenders restore configs/default-lenders-backup-2024-01-15.json
  default-lenders validate configs/default-lenders.json

The store is chosen by database.driver in configs/config.yaml.`)
}
