package rpc

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date はJSON入力の日付。"2006-01-02" とRFC3339の両方を受け付ける。
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// UnmarshalJSON は文字列表現の日付をパースする。
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date: %q", s)
}

// Ptr はnil許容の日付を*time.Timeに変換する。
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
