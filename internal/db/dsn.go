package db

import (
	"net/url"
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

func isURLDSN(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// NormalizeDSN cleans a DATABASE_DSN value. URL forms are returned as-is;
// key=value lists get their whitespace collapsed and sslmode=disable added
// when missing. Anything else is returned unchanged for the driver to reject.
func NormalizeDSN(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	if s == "" || isURLDSN(s) || !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if _, ok := parseKV(cleaned)["sslmode"]; !ok {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// ToURLDSN converts a key=value DSN to postgres:// form. Inputs missing
// host, user or dbname are returned unchanged.
func ToURLDSN(kvDSN string) string {
	if kvDSN == "" || isURLDSN(kvDSN) {
		return kvDSN
	}
	m := parseKV(kvDSN)
	if m["host"] == "" || m["user"] == "" || m["dbname"] == "" {
		return kvDSN
	}
	u := &url.URL{Scheme: "postgres", Host: m["host"], Path: "/" + m["dbname"]}
	if port := m["port"]; port != "" {
		u.Host += ":" + port
	}
	if pass := m["password"]; pass != "" {
		u.User = url.UserPassword(m["user"], pass)
	} else {
		u.User = url.User(m["user"])
	}
	if sslmode, ok := m["sslmode"]; ok {
		u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	}
	return u.String()
}

func parseKV(s string) map[string]string {
	m := map[string]string{}
	for _, part := range strings.Fields(s) {
		if k, v, ok := strings.Cut(part, "="); ok {
			m[strings.ToLower(k)] = v
		}
	}
	return m
}
