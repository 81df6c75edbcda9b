package module

import (
	"os"
	"path/filepath"

	"codefill/internal/platform/config"
)

// Options holds the OAuth client settings
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenFile    string
}

// FromConfig reads CODEFILL_AUTH_* values
// The token file defaults to codefill/token.json under the user config dir
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("CODEFILL_AUTH_")
	return Options{
		ClientID:     ac.MayString("CLIENT_ID", ""),
		ClientSecret: ac.MayString("CLIENT_SECRET", ""),
		RedirectURL:  ac.MayURL("REDIRECT_URL", "http://127.0.0.1:4000/api/v1/auth/callback"),
		TokenFile:    ac.MayString("TOKEN_FILE", defaultTokenFile()),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codefill", "token.json")
}
