package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paysheet/internal/model"
)

// CreateRun 记录一次开始处理的上传
func (s *Store) CreateRun(run *model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.RunStatusProcessing
	}
	_, err := s.db.NamedExec(`
		INSERT INTO runs (id, kind, filename, sheet_name, output_path, row_count, unresolved_count, status, error_message, created_at)
		VALUES (:id, :kind, :filename, :sheet_name, :output_path, :row_count, :unresolved_count, :status, :error_message, :created_at)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun 标记成功
func (s *Store) CompleteRun(id, sheetName, outputPath string, rowCount, unresolvedCount int) error {
	return s.finishRun(id, model.RunStatusDone, sheetName, outputPath, rowCount, unresolvedCount, "")
}

// FailRun 标记失败
func (s *Store) FailRun(id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finishRun(id, model.RunStatusFailed, "", "", 0, 0, msg)
}

func (s *Store) finishRun(id string, status model.RunStatus, sheetName, outputPath string, rowCount, unresolvedCount int, errMsg string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?,
			sheet_name = CASE WHEN ? = '' THEN sheet_name ELSE ? END,
			output_path = CASE WHEN ? = '' THEN output_path ELSE ? END,
			row_count = ?,
			unresolved_count = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, status, sheetName, sheetName, outputPath, outputPath, rowCount, unresolvedCount, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun 按 id 查询
func (s *Store) GetRun(id string) (*model.Run, error) {
	var run model.Run
	err := s.db.Get(&run, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// RunQuery 列表查询条件
type RunQuery struct {
	Kind   model.RunKind
	Status model.RunStatus
	Limit  int
	Offset int
}

// ListRuns 按创建时间倒序
func (s *Store) ListRuns(q RunQuery) ([]*model.Run, error) {
	query := `SELECT * FROM runs WHERE 1=1`
	var args []any
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, q.Kind)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, q.Status)
	}
	query += ` ORDER BY created_at DESC, id`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	runs := []*model.Run{}
	if err := s.db.Select(&runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// CountRuns 记录总数
func (s *Store) CountRuns() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM runs`); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}
