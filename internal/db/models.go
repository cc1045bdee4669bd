package db

import "time"

// Workday maps date -> (start, end?). Date is the unique key; End is
// nullable in storage, but WorkdayRepo.UpsertStart fills it with the start
// time when it creates the row.
type Workday struct {
	Date  string // YYYY-MM-DD, local zone
	Start time.Time
	End   *time.Time
}

// Pause maps id -> (start, end?, duration?).
type Pause struct {
	ID       int64
	Date     string // derived from Start
	Start    time.Time
	End      *time.Time
	Duration *int64 // seconds; nil until End is set
}

// Task is auxiliary to the core: the aggregator reads tasks dated to the
// same day as a workday for reporting. Full CRUD lives in the excluded CLI
// layer; the core only needs to read rows back.
type Task struct {
	ID                 int64
	Timestamp          time.Time
	Name               string
	Comment            *string
	Completeness       int // 0-100
	TaskID             *string
	ExcludedFromSearch bool
}

// Tag is a name/color pair, unique by name.
type Tag struct {
	ID    int64
	Name  string
	Color *string
}

// Template is a reusable task skeleton.
type Template struct {
	ID                  int64
	Name                string
	TaskName            string
	Comment             *string
	DefaultCompleteness int
}

// Migration records one applied schema change.
type Migration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}
