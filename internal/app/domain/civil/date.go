// Package civil holds a calendar date without time of day. The zero Date is
// treated as absent: it encodes to JSON null and binds as SQL NULL.
package civil

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	gocivil "github.com/golang-sql/civil"
)

// Date is a calendar date.
type Date struct {
	gocivil.Date
}

// New returns the date y-m-d.
func New(year int, month time.Month, day int) Date {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of truncates t to its calendar date.
func Of(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{gocivil.DateOf(t)}
}

// Today returns the current UTC date.
func Today() Date { return Of(time.Now().UTC()) }

// Parse accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func Parse(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	if d, err := gocivil.ParseDate(s); err == nil {
		return Date{d}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return Of(t), nil
}

func (d Date) Before(o Date) bool { return d.Date.Before(o.Date) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Date.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Of(v)
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into civil.Date", src)
	}
	return nil
}
