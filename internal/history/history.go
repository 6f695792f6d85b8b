// Package history persists captured serial lines to a SQLite database so
// a capture session can be inspected after the fact.
package history

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Entry is one persisted serial line
type Entry struct {
	ID    int64
	Port  string
	Level string
	Text  string
	At    string
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS lines (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        port TEXT NOT NULL,
        level TEXT NOT NULL DEFAULT 'plain',
        text TEXT,
        at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Append records one line for a port
func (s *Store) Append(port, level, text string) error {
	_, err := s.db.Exec(`INSERT INTO lines(port, level, text) VALUES (?, ?, ?)`, port, level, text)
	return err
}

// Lines returns every stored line for a port in arrival order. An empty
// port selects all ports.
func (s *Store) Lines(port string) ([]Entry, error) {
	query := `SELECT id, port, level, text, at FROM lines ORDER BY id`
	args := []any{}
	if port != "" {
		query = `SELECT id, port, level, text, at FROM lines WHERE port = ? ORDER BY id`
		args = append(args, port)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Port, &e.Level, &e.Text, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ports returns the distinct ports with stored lines
func (s *Store) Ports() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT port FROM lines ORDER BY port`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ports []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
