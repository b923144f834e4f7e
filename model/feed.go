package model

import "time"

// Feed holds the feed-level fields. Updated is the latest modification time
// over every recognized file and is zero when the directory had none.
type Feed struct {
	Title   string
	Author  string
	ID      string
	Self    string
	Updated time.Time
}

// Touch records a file modification time, keeping the latest one.
func (f *Feed) Touch(t time.Time) {
	if t.After(f.Updated) {
		f.Updated = t
	}
}
