package store

import (
	"fmt"
	"strings"
	"time"
)

// ListAliases 运行期追加的职位别名
func (s *Store) ListAliases() (map[string]string, error) {
	rows, err := s.db.Queryx(`SELECT raw, canonical FROM designation_aliases`)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var raw, canonical string
		if err := rows.Scan(&raw, &canonical); err != nil {
			return nil, err
		}
		aliases[raw] = canonical
	}
	return aliases, rows.Err()
}

// SetAlias 新增或覆盖一条别名
func (s *Store) SetAlias(raw, canonical string) error {
	raw = strings.TrimSpace(raw)
	canonical = strings.TrimSpace(canonical)
	if raw == "" || canonical == "" {
		return fmt.Errorf("alias requires both raw and canonical designation")
	}
	_, err := s.db.Exec(`
		INSERT INTO designation_aliases (raw, canonical, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(raw) DO UPDATE SET canonical = excluded.canonical, updated_at = excluded.updated_at
	`, raw, canonical, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set alias %q: %w", raw, err)
	}
	return nil
}

// DeleteAlias 删除别名，不存在时返回 ErrNotFound
func (s *Store) DeleteAlias(raw string) error {
	res, err := s.db.Exec(`DELETE FROM designation_aliases WHERE raw = ?`, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("failed to delete alias %q: %w", raw, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alias %q: %w", raw, ErrNotFound)
	}
	return nil
}
