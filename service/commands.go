package service

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quill/app/config"
	"quill/app/repositories"
)

var osExit = os.Exit

// backupDir receives backups when no file is named.
var backupDir = filepath.Join("data", "backups")

// HandleCommand handles db subcommands and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printDbHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "help":
		printDbHelp()
		return 0
	case "migrate", "clean", "backup", "restore":
	default:
		fmt.Printf("Unknown db command: %s\n\n", cmd)
		printDbHelp()
		osExit(1)
		return 1
	}

	fs := flag.NewFlagSet("db "+cmd, flag.ContinueOnError)
	cfg := config.Bind(fs)
	yes := fs.Bool("yes", false, "skip confirmation prompts")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 2
	}
	rest := fs.Args()

	if cmd == "restore" && len(rest) < 1 {
		fmt.Println("Error: backup file path required for restore")
		osExit(1)
		return 1
	}

	logData, err := newLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		return 1
	}
	defer logData.Close()

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logData.Logger)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	switch cmd {
	case "migrate":
		// openStore already migrated
		fmt.Println("Database migrated successfully")
		return 0
	case "clean":
		return clean(ctx, store, *yes)
	case "backup":
		file := ""
		if len(rest) > 0 {
			file = rest[0]
		}
		return backup(store, file)
	default:
		return restore(ctx, store, rest[0], *yes)
	}
}

// printDbHelp prints help for db subcommands.
func printDbHelp() {
	helpText := `Usage: quill db <command> [flags] [file]

Commands:
  migrate                         Create or update the database schema
  clean                           Delete every user, post and comment
  backup [file]                   Back up the database (badger only)
  restore <file>                  Replace the database with a backup (badger only)
  help                            Display this help message

Flags (before the file argument):
  -driver, -dsn, -badger-dir      Select the database, as for serve
  -yes                            Do not ask for confirmation
`
	fmt.Println(helpText)
}

func confirm(question string, yes bool) bool {
	if yes {
		return true
	}
	fmt.Printf("%s [y/N] ", question)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// clean removes all records.
func clean(ctx context.Context, store *repositories.Store, yes bool) int {
	if !confirm("Are you sure you want to clean the database? This cannot be undone.", yes) {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := store.Clean(ctx); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// backup writes a backup of the database to file, or to a timestamped file
// under backupDir when file is empty.
func backup(store *repositories.Store, file string) int {
	if file == "" {
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			fmt.Printf("Failed to create backup directory: %v\n", err)
			return 1
		}
		file = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}

	f, err := os.Create(file)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := store.Backup(f); err != nil {
		f.Close()
		os.Remove(file)
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", file)
	return 0
}

// restore replaces the database contents with a backup.
func restore(ctx context.Context, store *repositories.Store, backupFile string, yes bool) int {
	if store.Driver != repositories.DriverBadger {
		fmt.Printf("Failed to restore database: restore on %s: %v\n", store.Driver, repositories.ErrUnsupported)
		return 1
	}

	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if !confirm("Existing data will be replaced. Continue?", yes) {
		fmt.Println("Operation cancelled")
		return 1
	}

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := store.Clean(ctx); err != nil {
		fmt.Printf("Failed to clear database: %v\n", err)
		return 1
	}

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return store.Restore(f)
	}()
	if err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}
