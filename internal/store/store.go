package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quizfeed/internal/core"
	"quizfeed/internal/dedup"
)

// ErrProfileNotFound aliases the shared sentinel so callers can check
// against either package.
var ErrProfileNotFound = core.ErrProfileNotFound

// Store is the SQLite-backed implementation of both the profile store and
// the content repository.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance with SQLite database
func NewStore(dataDir string) (*Store, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "quizfeed.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the tables if they do not exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		answers TEXT NOT NULL,
		topic TEXT NOT NULL,
		subtopic TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		fingerprint TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadProfile returns the persisted profile for a user, or
// ErrProfileNotFound. Called at most once per session, at startup.
func (s *Store) LoadProfile(ctx context.Context, userID string) (*core.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile core.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return &profile, nil
}

// SaveProfile upserts a user's profile.
func (s *Store) SaveProfile(ctx context.Context, profile *core.Profile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("profile must have a user id")
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		profile.UserID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ExistsFingerprint reports whether a question with this fingerprint is
// already persisted.
func (s *Store) ExistsFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE fingerprint = ?`, fingerprint).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return true, nil
}

// Insert persists a candidate item. The fingerprint is computed here so the
// stored index always matches the dedup engine's canonicalization.
func (s *Store) Insert(ctx context.Context, item core.CandidateItem) error {
	answers, err := json.Marshal(item.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, text, answers, topic, subtopic, branch, tags, difficulty, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Text, string(answers), item.Topic, item.Subtopic, item.Branch,
		string(tags), item.Difficulty, dedup.Fingerprint(item.Text, item.Tags), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// RecentQuestionTexts returns the texts of the most recently stored
// questions, newest first. Passed to the generator as avoid-list context.
func (s *Store) RecentQuestionTexts(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM questions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent questions: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan question text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// ListQuestions returns all stored questions, oldest first. Used by the
// corpus audit command.
func (s *Store) ListQuestions(ctx context.Context) ([]core.CandidateItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, answers, topic, subtopic, branch, tags, difficulty
		FROM questions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var items []core.CandidateItem
	for rows.Next() {
		var item core.CandidateItem
		var answers, tags string
		if err := rows.Scan(&item.ID, &item.Text, &answers, &item.Topic, &item.Subtopic,
			&item.Branch, &tags, &item.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &item.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
