package store

import (
	"database/sql"
	"fmt"
	"time"
)

// writeLayout keeps the fractional seconds fixed-width so stored
// timestamps sort correctly as strings in ORDER BY clauses.
const writeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(writeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// Older rows may carry second precision.
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
		}
	}
	return t.UTC(), nil
}

func parseNullTime(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
