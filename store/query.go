package store

import "regexp"

// regexQuote escapes a user-supplied search term before it is embedded in a
// $regex filter.
func regexQuote(s string) string {
	return regexp.QuoteMeta(s)
}
