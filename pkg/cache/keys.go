package cache

import "strings"

// Key builds a colon-delimited cache key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Cache key namespaces used by the fetch pipeline.
const (
	NSRegistry     = "registry"
	NSFundamentals = "fundamentals"
	NSNews         = "news"
	NSMarkets      = "markets"
	NSScanLock     = "scan:lock"
)
