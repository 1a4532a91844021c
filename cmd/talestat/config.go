package main

import (
	"errors"
	"fmt"
)

// Config holds the command-line settings.
type Config struct {
	BooksDir   string
	ConfigPath string
	PagesPath  string
	DBPath     string
	Workers    int // -1 keeps the configuration file value
	LogLevel   string
	LogFile    string
	Watch      bool
	JSON       bool
	Similar    string
}

func (c Config) Validate() error {
	if c.BooksDir == "" {
		return errors.New("missing -books")
	}
	if c.Workers < -1 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Similar != "" && c.DBPath == "" {
		return errors.New("-similar needs -db")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Workers:  -1,
		LogLevel: "info",
	}
}
