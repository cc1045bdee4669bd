package db

// migration is one entry of the ordered migration list. Only up-steps are
// defined; each must be idempotent — re-applying is a no-op — because
// Store tracks applied migrations by version, not by content hash.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the full, monotonically versioned schema history. Append
// new entries here; never edit or remove one that has shipped.
var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
CREATE TABLE IF NOT EXISTS workdays (
	date  TEXT PRIMARY KEY,
	start TEXT NOT NULL,
	end   TEXT
);

CREATE TABLE IF NOT EXISTS pauses (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT NOT NULL,
	start    TEXT NOT NULL,
	end      TEXT,
	duration INTEGER
);
CREATE INDEX IF NOT EXISTS idx_pauses_date ON pauses(date);

CREATE TABLE IF NOT EXISTS tasks (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp            TEXT NOT NULL,
	name                 TEXT NOT NULL,
	comment              TEXT,
	completeness         INTEGER NOT NULL DEFAULT 0 CHECK(completeness BETWEEN 0 AND 100),
	task_id              TEXT,
	excluded_from_search INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_timestamp ON tasks(timestamp);

CREATE TABLE IF NOT EXISTS tags (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE,
	color TEXT
);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE TABLE IF NOT EXISTS templates (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	name                 TEXT NOT NULL UNIQUE,
	task_name            TEXT NOT NULL,
	comment              TEXT,
	default_completeness INTEGER NOT NULL DEFAULT 0 CHECK(default_completeness BETWEEN 0 AND 100)
);
`,
	},
}
