// Command resetpw resets the editor password from a terminal, for when
// the password is lost and the web setup flow is already claimed.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"clipforge/internal/database"
)

const defaultDataDir = "/data"

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "clipforge.db")

	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database at %s: %v\n", dbPath, err)
		fmt.Fprintln(os.Stderr, "Make sure DATA_DIR is set correctly")
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if !db.HasUsers() {
		fmt.Println("No account exists yet; use the web setup flow instead.")
		os.Exit(1)
	}

	password, err := promptPassword("New password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "Error: password must be at least 8 characters")
		os.Exit(1)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Error: passwords do not match")
		os.Exit(1)
	}

	if err := db.UpdatePassword(password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to update password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Password updated; all existing sessions were invalidated.")
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
