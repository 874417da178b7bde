package main

import (
	"fmt"
	"os"
	"strings"

	"quill/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args and exits with the command's status.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("quill version %s\n", CliVersion)
	case "serve":
		if code := service.RunAppServer(os.Args[2:]); code != 0 {
			exit(code)
		}
	case "db":
		if code := service.HandleCommand(os.Args[2:]); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: quill <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [flags]                  Run the blog API.
                                 -addr :8080  -driver sqlite|postgres|badger
                                 -dsn <dsn>   -badger-dir <dir>  -log-level info
  db <command> [flags] [file]    Manage the database: migrate, clean, backup, restore.
                                 Run "quill db help" for details.

Flags default to QUILL_* environment variables (QUILL_ADDR, QUILL_DB_DRIVER, ...).
`
	fmt.Println(helpText)
}
