package db

import (
	"context"
	"database/sql"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// TaskRepo is deliberately thin: full task/tag/template CRUD is out of
// scope here. The aggregator only needs to read tasks back by date.
type TaskRepo struct{ s *Store }

func (s *Store) Tasks() *TaskRepo { return &TaskRepo{s} }

// ListByDate returns every task timestamped on date, for inclusion in a
// DailyReport.
func (r *TaskRepo) ListByDate(ctx context.Context, date string) ([]Task, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT id, timestamp, name, comment, completeness, task_id, excluded_from_search
		FROM tasks WHERE strftime('%Y-%m-%d', timestamp, 'localtime') = ? ORDER BY timestamp`, date)
	if err != nil {
		return nil, kaslerr.New("TaskRepo.ListByDate", kaslerr.StorageError, err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var ts string
		var comment, taskID sql.NullString
		var excluded int
		if err := rows.Scan(&t.ID, &ts, &t.Name, &comment, &t.Completeness, &taskID, &excluded); err != nil {
			return nil, kaslerr.New("TaskRepo.ListByDate", kaslerr.StorageError, err)
		}
		parsed, err := parseTime(ts)
		if err != nil {
			return nil, kaslerr.New("TaskRepo.ListByDate", kaslerr.StorageError, err)
		}
		t.Timestamp = parsed
		if comment.Valid {
			t.Comment = &comment.String
		}
		if taskID.Valid {
			t.TaskID = &taskID.String
		}
		t.ExcludedFromSearch = excluded != 0
		out = append(out, t)
	}
	return out, rows.Err()
}
