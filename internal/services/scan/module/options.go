package module

import (
	"slices"
	"strings"
	"time"

	"codefill/internal/platform/config"
	"codefill/internal/services/scan/service"
)

// Options holds scanner settings
type Options struct {
	FallbackInterval time.Duration
	InputTypes       []string
}

// FromConfig reads CODEFILL_SCAN_* values
// inputs without a type attribute are always scanned
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("CODEFILL_SCAN_")
	types := slices.Clone(sc.MayCSV("INPUT_TYPES", service.DefaultInputTypes))
	for i, t := range types {
		types[i] = strings.ToLower(t)
	}
	if !slices.Contains(types, "") {
		types = append([]string{""}, types...)
	}
	return Options{
		FallbackInterval: sc.MayPositiveDuration("FALLBACK_INTERVAL", 2*time.Second),
		InputTypes:       types,
	}
}

func (o Options) service() service.Config {
	return service.Config{FallbackInterval: o.FallbackInterval, InputTypes: o.InputTypes}
}
