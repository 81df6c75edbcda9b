package module

import (
	"time"

	"codefill/internal/platform/config"
	"codefill/internal/services/watch/service"
)

// Options holds the watch cadence
type Options struct {
	PollInterval   time.Duration
	SuggestTimeout time.Duration
	RescanDelay    time.Duration
	FindTimeout    time.Duration
	AuthTimeout    time.Duration
}

// FromConfig reads CODEFILL_WATCH_* values
func FromConfig(cfg config.Conf) Options {
	def := service.DefaultConfig()
	wc := cfg.Prefix("CODEFILL_WATCH_")
	return Options{
		PollInterval:   wc.MayPositiveDuration("POLL_INTERVAL", def.PollInterval),
		SuggestTimeout: wc.MayPositiveDuration("SUGGEST_TIMEOUT", def.SuggestTimeout),
		RescanDelay:    wc.MayPositiveDuration("RESCAN_DELAY", def.RescanDelay),
		FindTimeout:    wc.MayPositiveDuration("FIND_TIMEOUT", def.FindTimeout),
		AuthTimeout:    wc.MayPositiveDuration("AUTH_TIMEOUT", def.AuthTimeout),
	}
}

func (o Options) service() service.Config {
	return service.Config{
		PollInterval:   o.PollInterval,
		SuggestTimeout: o.SuggestTimeout,
		RescanDelay:    o.RescanDelay,
		FindTimeout:    o.FindTimeout,
		AuthTimeout:    o.AuthTimeout,
	}
}
