package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. Variables already set in the
// process environment are never overridden.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load environment variables from %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", path)
	}
}
