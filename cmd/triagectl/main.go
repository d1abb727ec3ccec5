package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photo-triage/internal/database"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "./data"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}

	db, err := database.Open(ctx, databaseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "status":
		folder, err := folderArg(ctx, db, os.Args[2:])
		if err == nil {
			err = showStatus(ctx, db, folder, os.Stdout)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			ok = false
		}
	case "reset":
		args, yes := parseYes(os.Args[2:])
		folder, err := folderArg(ctx, db, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			ok = false
			break
		}
		if !yes && !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: stdin is not a terminal; pass --yes to reset without confirmation")
			ok = false
			break
		}
		ok = resetFolder(ctx, db, folder, yes, os.Stdin, os.Stdout)
	case "last":
		ok = showLast(ctx, db, os.Stdout)
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - only [a-zA-Z0-9_-] characters pass through sanitizeCommand
		printUsage(os.Stdout)
		ok = false
	}
	if !ok {
		db.Close()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Photo Triage Decision Management")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: triagectl <command> [folder]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  status [folder]        - Show stored decisions for a folder")
	fmt.Fprintln(w, "  reset [--yes] [folder] - Forget stored decisions for a folder")
	fmt.Fprintln(w, "  last                   - Show the most recently loaded folder")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without a folder, the most recently loaded folder is used.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

// parseYes strips --yes or -y from args.
func parseYes(args []string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	yes := false
	for _, a := range args {
		if a == "--yes" || a == "-y" {
			yes = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, yes
}

// folderArg resolves the folder argument, falling back to the last loaded
// folder.
func folderArg(ctx context.Context, db *database.Database, args []string) (string, error) {
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid folder %q: %w", args[0], err)
		}
		return abs, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	last, err := db.LastFolder(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last folder: %w", err)
	}
	if last == "" {
		return "", fmt.Errorf("no folder given and none loaded before")
	}
	return last, nil
}

func showStatus(ctx context.Context, db *database.Database, folder string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	summary, err := db.FolderSummary(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to summarise %s: %w", folder, err)
	}

	fmt.Fprintf(w, "Folder:  %s\n", summary.Folder)
	fmt.Fprintf(w, "Stored:  %d\n", summary.Total())
	fmt.Fprintf(w, "Keep:    %d\n", summary.Keep)
	fmt.Fprintf(w, "Reject:  %d\n", summary.Reject)
	fmt.Fprintf(w, "Pending: %d\n", summary.Pending)
	fmt.Fprintf(w, "Rated:   %d\n", summary.Rated)
	return nil
}

// resetFolder deletes the stored decisions under folder after confirmation
// read from in, unless yes is set.
func resetFolder(ctx context.Context, db *database.Database, folder string, yes bool, in io.Reader, out io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if !yes {
		fmt.Fprintf(out, "Forget every stored decision under %s? [y/N]: ", folder)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(os.Stderr, "Error reading confirmation: %v\n", err)
			return false
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return false
		}
	}

	n, err := db.ResetFolder(ctx, folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reset %s: %v\n", folder, err)
		return false
	}
	fmt.Fprintf(out, "Removed %d stored decisions.\n", n)
	return true
}

func showLast(ctx context.Context, db *database.Database, w io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	last, err := db.LastFolder(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	if last == "" {
		fmt.Fprintln(w, "No folder loaded yet")
		return true
	}
	fmt.Fprintln(w, last)
	return true
}
