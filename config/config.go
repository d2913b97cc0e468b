// Package config reads process configuration from the environment,
// optionally seeded from a local .env file during development.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv seeds the environment from .env when one exists. Deployed
// processes carry real environment variables and ship no .env file, so
// a missing file is only worth a note.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the process environment")
	}
}

// GetEnv returns the value of key, or fallback when the variable is unset.
// An empty-but-set variable is returned as-is.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
