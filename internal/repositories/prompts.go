package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

// builtinCatalog is the prompt catalog seeded into a fresh store.
var builtinCatalog = map[string][]string{
	"Childhood": {
		"Tell us about your first home",
		"Who inspired you as a child?",
		"What games did you play growing up?",
	},
	"Family": {
		"Describe a favorite family tradition",
		"Tell a story about a family gathering you still laugh about",
	},
	"Career": {
		"What was your first job?",
		"Describe a mentor who changed how you work",
	},
	"Holidays": {
		"Share a memorable holiday experience",
		"What meal do you associate with celebration?",
	},
	"Life Lessons": {
		"What advice would you give your younger self?",
		"Tell us about a risk that paid off",
	},
}

// PromptRepository persists the prompt catalog and its categories.
type PromptRepository struct {
	db *sql.DB
}

// NewPromptRepository creates a new PromptRepository with the given database connection
func NewPromptRepository(db *sql.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// Create inserts a new prompt, lazily creating its category the first time
// the category name appears.
func (r *PromptRepository) Create(prompt *models.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = shared.GenerateID()
	}
	if prompt.IsUserCreated && prompt.DateAdded.IsZero() {
		prompt.DateAdded = time.Now()
	}

	if err := prompt.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.ensureCategory(prompt.Category); err != nil {
		return err
	}

	var dateAdded any
	if !prompt.DateAdded.IsZero() {
		dateAdded = prompt.DateAdded
	}

	_, err := r.db.Exec(
		"INSERT INTO prompts (id, text, category, is_user_created, date_added) VALUES (?, ?, ?, ?, ?)",
		prompt.ID, prompt.Text, prompt.Category, prompt.IsUserCreated, dateAdded,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert prompt: %v", shared.ErrPersistence, err)
	}

	return nil
}

// List retrieves all catalog prompts, built-in first, then user-created by age.
func (r *PromptRepository) List() ([]*models.Prompt, error) {
	rows, err := r.db.Query(`
		SELECT id, text, category, is_user_created, date_added
		FROM prompts
		ORDER BY is_user_created ASC, date_added ASC, text ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query prompts: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var prompts []*models.Prompt
	for rows.Next() {
		var prompt models.Prompt
		var dateAdded sql.NullTime

		err := rows.Scan(&prompt.ID, &prompt.Text, &prompt.Category, &prompt.IsUserCreated, &dateAdded)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan prompt: %v", shared.ErrPersistence, err)
		}

		prompt.DateAdded = dateAdded.Time
		prompts = append(prompts, &prompt)
	}

	return prompts, rows.Err()
}

// Texts retrieves just the prompt texts, the shape the supply service pools.
func (r *PromptRepository) Texts() ([]string, error) {
	rows, err := r.db.Query("SELECT text FROM prompts ORDER BY text ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query prompt texts: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: failed to scan prompt text: %v", shared.ErrPersistence, err)
		}
		texts = append(texts, text)
	}

	return texts, rows.Err()
}

// Categories retrieves all categories sorted by name.
func (r *PromptRepository) Categories() ([]*models.PromptCategory, error) {
	rows, err := r.db.Query("SELECT id, name FROM prompt_categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query categories: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var categories []*models.PromptCategory
	for rows.Next() {
		var category models.PromptCategory
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan category: %v", shared.ErrPersistence, err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// Seed inserts the built-in catalog into an empty prompts table. A table that
// already has rows is left untouched, so Seed is safe to run on every start.
func (r *PromptRepository) Seed() error {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM prompts").Scan(&count); err != nil {
		return fmt.Errorf("%w: failed to count prompts: %v", shared.ErrPersistence, err)
	}
	if count > 0 {
		return nil
	}

	for category, texts := range builtinCatalog {
		for _, text := range texts {
			prompt := &models.Prompt{Text: text, Category: category}
			if err := r.Create(prompt); err != nil {
				return fmt.Errorf("failed to seed prompt %q: %w", text, err)
			}
		}
	}

	return nil
}

// ensureCategory inserts the category row if the name is new.
func (r *PromptRepository) ensureCategory(name string) error {
	_, err := r.db.Exec(
		"INSERT INTO prompt_categories (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		shared.GenerateID(), name,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to ensure category: %v", shared.ErrPersistence, err)
	}
	return nil
}
