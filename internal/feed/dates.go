package feed

import (
	"time"

	"github.com/araddon/dateparse"
)

// parseDate parses a publish-date string permissively, accepting whatever
// common layout dateparse recognizes, mirroring dateutil.parser.parse's
// tolerance in the original tool. Returns an error if the string can't be
// interpreted as a date at all.
func parseDate(s string) (time.Time, error) {
	return dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
}
