// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env
// struct tags. Validates required fields and email backend settings.
// env.example at the repository root documents the full contract.
package config
