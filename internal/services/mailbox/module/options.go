package module

import (
	"time"

	"codefill/internal/platform/config"
	"codefill/internal/services/mailbox/service"
)

// Options holds the Gmail search settings
type Options struct {
	Window       time.Duration
	RPS          float64
	Burst        int
	User         string
	Timeout      time.Duration
	HTMLFallback bool
	Endpoint     string
}

// FromConfig reads CODEFILL_GMAIL_* values
func FromConfig(cfg config.Conf) Options {
	def := service.DefaultConfig()
	gc := cfg.Prefix("CODEFILL_GMAIL_")
	return Options{
		Window:       gc.MayPositiveDuration("WINDOW", def.Window),
		RPS:          gc.MayFloat64("RPS", def.RPS),
		Burst:        gc.MayInt("BURST", def.Burst),
		User:         gc.MayString("USER", "me"),
		Timeout:      gc.MayPositiveDuration("TIMEOUT", def.Timeout),
		HTMLFallback: gc.MayBool("HTML_FALLBACK", false),
		Endpoint:     gc.MayURL("ENDPOINT", ""),
	}
}

func (o Options) service() service.Config {
	return service.Config{Window: o.Window, RPS: o.RPS, Burst: o.Burst, Timeout: o.Timeout}
}
