package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

// StoryRepository persists recorded stories.
type StoryRepository struct {
	db *sql.DB
}

// NewStoryRepository creates a new StoryRepository with the given database connection
func NewStoryRepository(db *sql.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create inserts a new story. The ID is generated here when the caller has
// not assigned one.
func (r *StoryRepository) Create(story *models.Story) error {
	if story.ID == "" {
		story.ID = shared.GenerateID()
	}
	if story.Date.IsZero() {
		story.Date = time.Now()
	}

	if err := story.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO stories (
			id, title, date, prompt, duration, file_path,
			is_shared, transcription, is_transcribed
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var transcription any
	if story.Transcription != "" {
		transcription = story.Transcription
	}

	_, err := r.db.Exec(query,
		story.ID,
		story.Title,
		story.Date,
		story.Prompt,
		story.Duration,
		story.FilePath,
		story.IsShared,
		transcription,
		story.IsTranscribed,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert story: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Get retrieves a story by ID.
func (r *StoryRepository) Get(id string) (*models.Story, error) {
	query := `
		SELECT id, title, date, prompt, duration, file_path,
		       is_shared, transcription, is_transcribed
		FROM stories
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// List retrieves all stories ordered newest-first.
func (r *StoryRepository) List() ([]*models.Story, error) {
	query := `
		SELECT id, title, date, prompt, duration, file_path,
		       is_shared, transcription, is_transcribed
		FROM stories
		ORDER BY date DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query stories: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		story, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}

	return stories, rows.Err()
}

// ListUntranscribed retrieves stories that have no transcription yet, oldest-first.
func (r *StoryRepository) ListUntranscribed() ([]*models.Story, error) {
	query := `
		SELECT id, title, date, prompt, duration, file_path,
		       is_shared, transcription, is_transcribed
		FROM stories
		WHERE is_transcribed = 0
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query stories: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		story, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}

	return stories, rows.Err()
}

// SetTranscription writes the transcription text and flips is_transcribed in
// one statement so the pair can never be observed apart.
func (r *StoryRepository) SetTranscription(id, text string) error {
	if text == "" {
		return fmt.Errorf("%w: transcription text is empty", shared.ErrInvalidInput)
	}

	res, err := r.db.Exec(
		"UPDATE stories SET transcription = ?, is_transcribed = 1 WHERE id = ?",
		text, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update transcription: %v", shared.ErrPersistence, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check update result: %v", shared.ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("story %s not found", id)
	}

	return nil
}

// MarkShared flips the informational is_shared flag.
func (r *StoryRepository) MarkShared(id string) error {
	_, err := r.db.Exec("UPDATE stories SET is_shared = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to mark story shared: %v", shared.ErrPersistence, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *StoryRepository) scanOne(row *sql.Row) (*models.Story, error) {
	story, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("story not found")
	}
	return story, err
}

func (r *StoryRepository) scanRow(row rowScanner) (*models.Story, error) {
	var story models.Story
	var transcription sql.NullString

	err := row.Scan(
		&story.ID,
		&story.Title,
		&story.Date,
		&story.Prompt,
		&story.Duration,
		&story.FilePath,
		&story.IsShared,
		&transcription,
		&story.IsTranscribed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to scan story: %v", shared.ErrPersistence, err)
	}

	story.Transcription = transcription.String
	return &story, nil
}
