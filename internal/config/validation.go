package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, ok := c.Monitor.AssetByID(c.Monitor.ReportAsset); !ok {
		return fmt.Errorf("monitor.report_asset %q is not one of monitor.assets", c.Monitor.ReportAsset)
	}

	seen := make(map[string]bool, len(c.Monitor.Assets))
	for _, a := range c.Monitor.Assets {
		if seen[a.ID] {
			return fmt.Errorf("monitor.assets: duplicate asset id %q", a.ID)
		}
		seen[a.ID] = true
	}

	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}

	return nil
}

// Location returns the configured scheduler time zone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Scheduler.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
