package postgres

import (
	"context"
	"database/sql"
	"time"

	"norgeskole/internal/domain"
)

const dailyWordColumns = `id, norwegian, date, theme, approved, classroom_id, created_by, image_url, image_alt, created_at`

// DailyWordRepo implements repository.DailyWordRepository
type DailyWordRepo struct {
	db *sql.DB
}

// NewDailyWordRepo creates a new daily word repository
func NewDailyWordRepo(db *sql.DB) *DailyWordRepo {
	return &DailyWordRepo{db: db}
}

func scanDailyWord(row rowScanner) (domain.DailyWord, error) {
	var w domain.DailyWord
	var theme, createdBy, imageURL, imageAlt sql.NullString
	err := row.Scan(&w.ID, &w.Norwegian, &w.Date, &theme, &w.Approved, &w.ClassroomID, &createdBy, &imageURL, &imageAlt, &w.CreatedAt)
	if err != nil {
		return domain.DailyWord{}, err
	}
	w.Theme = stringPtr(theme)
	w.CreatedBy = stringPtr(createdBy)
	w.ImageURL = stringPtr(imageURL)
	w.ImageAlt = stringPtr(imageAlt)
	return w, nil
}

// CreateDailyWord stores an unapproved word
func (r *DailyWordRepo) CreateDailyWord(ctx context.Context, word domain.DailyWord) (domain.DailyWord, error) {
	query := `
		INSERT INTO daily_words (norwegian, date, theme, approved, classroom_id, created_by, image_url, image_alt)
		VALUES ($1, $2, $3, FALSE, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		word.Norwegian, word.Date, word.Theme, word.ClassroomID, word.CreatedBy, word.ImageURL, word.ImageAlt,
	).Scan(&word.ID, &word.CreatedAt)
	if err != nil {
		return domain.DailyWord{}, err
	}
	word.Approved = false
	return word, nil
}

// ApproveDailyWord publishes a word to learners
func (r *DailyWordRepo) ApproveDailyWord(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE daily_words SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDailyWord loads a word with its level texts, translations, pronunciations and tasks.
// It returns nil when the word does not exist.
func (r *DailyWordRepo) GetDailyWord(ctx context.Context, id string) (*domain.DailyWord, error) {
	w, err := scanDailyWord(r.db.QueryRowContext(ctx, `SELECT `+dailyWordColumns+` FROM daily_words WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if w.LevelTexts, err = r.levelTexts(ctx, id); err != nil {
		return nil, err
	}
	if w.Translations, err = r.translations(ctx, id); err != nil {
		return nil, err
	}
	if w.Pronunciations, err = r.pronunciations(ctx, id); err != nil {
		return nil, err
	}
	if w.Tasks, err = r.tasks(ctx, `SELECT id, daily_word_id, type, level, prompt, answer, data FROM tasks WHERE daily_word_id = $1 ORDER BY level`, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListDailyWords returns a classroom's words, newest date first
func (r *DailyWordRepo) ListDailyWords(ctx context.Context, classroomID string, onlyApproved bool, limit int) ([]domain.DailyWord, error) {
	query := `
		SELECT ` + dailyWordColumns + `
		FROM daily_words
		WHERE classroom_id = $1 AND (approved OR NOT $2)
		ORDER BY date DESC, created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, classroomID, onlyApproved, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []domain.DailyWord
	for rows.Next() {
		w, err := scanDailyWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// CountDailyWordsSince counts a classroom's words dated on or after since
func (r *DailyWordRepo) CountDailyWordsSince(ctx context.Context, classroomID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM daily_words WHERE classroom_id = $1 AND date >= $2`
	err := r.db.QueryRowContext(ctx, query, classroomID, since).Scan(&count)
	return count, err
}

// AddLevelText attaches a text for one difficulty level
func (r *DailyWordRepo) AddLevelText(ctx context.Context, lt domain.LevelText) (domain.LevelText, error) {
	query := `
		INSERT INTO level_texts (daily_word_id, level, text, image_url, image_alt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, lt.DailyWordID, lt.Level, lt.Text, lt.ImageURL, lt.ImageAlt).Scan(&lt.ID)
	return lt, err
}

// AddTranslation attaches a translation
func (r *DailyWordRepo) AddTranslation(ctx context.Context, tr domain.Translation) (domain.Translation, error) {
	query := `
		INSERT INTO translations (daily_word_id, language_code, text)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, tr.DailyWordID, tr.LanguageCode, tr.Text).Scan(&tr.ID)
	return tr, err
}

// AddPronunciation attaches an audio clip
func (r *DailyWordRepo) AddPronunciation(ctx context.Context, p domain.Pronunciation) (domain.Pronunciation, error) {
	query := `
		INSERT INTO pronunciations (daily_word_id, language_code, audio_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, p.DailyWordID, p.LanguageCode, p.AudioURL).Scan(&p.ID)
	return p, err
}

// AddTask attaches an exercise
func (r *DailyWordRepo) AddTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	query := `
		INSERT INTO tasks (daily_word_id, type, level, prompt, answer, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		task.DailyWordID, task.Type, task.Level, task.Prompt, jsonArg(task.Answer), jsonArg(task.Data),
	).Scan(&task.ID)
	return task, err
}

// ListTasksSince returns the tasks of a classroom created on or after since
func (r *DailyWordRepo) ListTasksSince(ctx context.Context, classroomID string, since time.Time) ([]domain.Task, error) {
	query := `
		SELECT t.id, t.daily_word_id, t.type, t.level, t.prompt, t.answer, t.data
		FROM tasks t
		JOIN daily_words w ON w.id = t.daily_word_id
		WHERE w.classroom_id = $1 AND t.created_at >= $2
		ORDER BY t.created_at DESC
	`
	return r.tasks(ctx, query, classroomID, since)
}

func (r *DailyWordRepo) levelTexts(ctx context.Context, wordID string) ([]domain.LevelText, error) {
	query := `SELECT id, daily_word_id, level, text, image_url, image_alt FROM level_texts WHERE daily_word_id = $1 ORDER BY level`
	rows, err := r.db.QueryContext(ctx, query, wordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []domain.LevelText
	for rows.Next() {
		var lt domain.LevelText
		var imageURL, imageAlt sql.NullString
		if err := rows.Scan(&lt.ID, &lt.DailyWordID, &lt.Level, &lt.Text, &imageURL, &imageAlt); err != nil {
			return nil, err
		}
		lt.ImageURL = stringPtr(imageURL)
		lt.ImageAlt = stringPtr(imageAlt)
		texts = append(texts, lt)
	}
	return texts, rows.Err()
}

func (r *DailyWordRepo) translations(ctx context.Context, wordID string) ([]domain.Translation, error) {
	query := `SELECT id, daily_word_id, language_code, text FROM translations WHERE daily_word_id = $1`
	rows, err := r.db.QueryContext(ctx, query, wordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var translations []domain.Translation
	for rows.Next() {
		var tr domain.Translation
		if err := rows.Scan(&tr.ID, &tr.DailyWordID, &tr.LanguageCode, &tr.Text); err != nil {
			return nil, err
		}
		translations = append(translations, tr)
	}
	return translations, rows.Err()
}

func (r *DailyWordRepo) pronunciations(ctx context.Context, wordID string) ([]domain.Pronunciation, error) {
	query := `SELECT id, daily_word_id, language_code, audio_url FROM pronunciations WHERE daily_word_id = $1`
	rows, err := r.db.QueryContext(ctx, query, wordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pronunciations []domain.Pronunciation
	for rows.Next() {
		var p domain.Pronunciation
		if err := rows.Scan(&p.ID, &p.DailyWordID, &p.LanguageCode, &p.AudioURL); err != nil {
			return nil, err
		}
		pronunciations = append(pronunciations, p)
	}
	return pronunciations, rows.Err()
}

func (r *DailyWordRepo) tasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		var prompt sql.NullString
		var answer, data []byte
		if err := rows.Scan(&task.ID, &task.DailyWordID, &task.Type, &task.Level, &prompt, &answer, &data); err != nil {
			return nil, err
		}
		task.Prompt = stringPtr(prompt)
		task.Answer = answer
		task.Data = data
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
