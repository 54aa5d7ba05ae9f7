package config

import (
	"os"
	"os/user"

	"github.com/ferrite-labs/ferrite/internal/branding"
)

// getenvAny returns the first non-empty value among the named variables.
func getenvAny(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ProxyFor returns the proxy override for a URL scheme, honoring the usual
// upper- and lowercase environment spellings. Empty when no override is set.
func ProxyFor(scheme string) string {
	switch scheme {
	case "https":
		return getenvAny("HTTPS_PROXY", "https_proxy")
	case "ftp":
		return getenvAny("FTP_PROXY", "ftp_proxy")
	default:
		return getenvAny("HTTP_PROXY", "http_proxy")
	}
}

// NoProxy reports whether a "no proxy / transparent proxy" override is set.
func NoProxy() bool {
	return getenvAny("NO_PROXY", "no_proxy") != ""
}

// TempDir returns the scratch directory, honoring FERRITE_TMPDIR over the
// system default.
func TempDir() string {
	if v := os.Getenv(branding.EnvVar("TMPDIR")); v != "" {
		return v
	}
	return os.TempDir()
}

// CurrentUser returns the invoking user's name, preferring the USER
// environment override over the account database.
func CurrentUser() string {
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
