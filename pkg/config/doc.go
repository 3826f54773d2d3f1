// Package config loads typed configuration structs from environment
// variables (caarlos0/env tags) with optional .env support via godotenv.
// Every component declares its own Config struct next to its code and the
// entrypoint loads them with config.MustLoad.
package config
