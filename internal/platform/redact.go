package platform

import (
	"net/url"
	"strings"
)

// redactCommand renders a command line for the audit log with any
// credential-bearing URL argument scrubbed.
func redactCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, redactArg(name))
	for _, arg := range args {
		parts = append(parts, redactArg(arg))
	}
	return strings.Join(parts, " ")
}

// redactArg replaces the password of a URL userinfo segment. Non-URL
// arguments pass through unchanged.
func redactArg(arg string) string {
	u, err := url.Parse(arg)
	if err != nil || u.Scheme == "" || u.Host == "" || u.User == nil {
		return arg
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
