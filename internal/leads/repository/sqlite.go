package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/db"
)

const sqliteTimeLayout = time.RFC3339Nano

const leadColumns = `id, company_name, sector, district, address, phone, email, website, status, score,
	missing_fields, last_contact_date, enriched_at, notes, social_profile, draft_response, score_details, source,
	created_at, updated_at`

const taskColumns = `id, lead_id, company_name, description, priority, due_date, status, created_at`

// LocalRepository stores leads in a local SQLite file.
type LocalRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewLocal wraps an open SQLite connection.
func NewLocal(conn *sql.DB) *LocalRepository {
	return &LocalRepository{db: conn, now: time.Now}
}

// Migrate applies the embedded SQLite schema.
func (r *LocalRepository) Migrate() error {
	return db.RunMigrations(r.db, db.DialectSQLite, migrationsFS, sqliteMigrationsDir)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LocalRepository) GetLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *LocalRepository) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *LocalRepository) CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead = prepareCreate(lead, r.now())
	cols, err := encodeNested(lead)
	if err != nil {
		return domain.Lead{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.CompanyName, lead.Sector, lead.District, lead.Address, lead.Phone, lead.Email, lead.Website,
		string(lead.Status), lead.Score, string(cols.missingFields), formatDate(lead.LastContactDate), formatTime(lead.EnrichedAt), lead.Notes,
		nullableText(cols.social), nullableText(cols.draft), string(cols.scoreDetails), lead.Source,
		lead.CreatedAt.UTC().Format(sqliteTimeLayout), lead.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (r *LocalRepository) UpdateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.Score = domain.ClampScore(lead.Score)
	lead.UpdatedAt = r.now()
	cols, err := encodeNested(lead)
	if err != nil {
		return domain.Lead{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE leads SET
			company_name = ?, sector = ?, district = ?, address = ?, phone = ?, email = ?, website = ?,
			status = ?, score = ?, missing_fields = ?, last_contact_date = ?, enriched_at = ?, notes = ?,
			social_profile = ?, draft_response = ?, score_details = ?, source = ?, updated_at = ?
		WHERE id = ?`,
		lead.CompanyName, lead.Sector, lead.District, lead.Address, lead.Phone, lead.Email, lead.Website,
		string(lead.Status), lead.Score, string(cols.missingFields), formatDate(lead.LastContactDate), formatTime(lead.EnrichedAt), lead.Notes,
		nullableText(cols.social), nullableText(cols.draft), string(cols.scoreDetails), lead.Source,
		lead.UpdatedAt.UTC().Format(sqliteTimeLayout), lead.ID,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Lead{}, ErrNotFound
	}
	return lead, nil
}

func (r *LocalRepository) GetTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *LocalRepository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanSQLiteTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *LocalRepository) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task = prepareTask(task, r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.LeadID, task.CompanyName, task.Description, string(task.Priority),
		task.DueDate.UTC().Format(sqliteTimeLayout), string(task.Status), task.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (r *LocalRepository) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET company_name = ?, description = ?, priority = ?, due_date = ?, status = ?
		WHERE id = ?`,
		task.CompanyName, task.Description, string(task.Priority),
		task.DueDate.UTC().Format(sqliteTimeLayout), string(task.Status), task.ID,
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (r *LocalRepository) LogAction(ctx context.Context, action, detail string, severity domain.Severity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_log (action, detail, severity, created_at) VALUES (?, ?, ?, ?)`,
		action, detail, string(severity), r.now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

func (r *LocalRepository) ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, detail, severity, created_at FROM action_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query action log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ActionLogEntry, 0)
	for rows.Next() {
		var entry domain.ActionLogEntry
		var severity, createdAt string
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Detail, &severity, &createdAt); err != nil {
			return nil, err
		}
		entry.Severity = domain.Severity(severity)
		entry.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanSQLiteLead(row rowScanner) (domain.Lead, error) {
	var lead domain.Lead
	var status, missing, details, createdAt, updatedAt string
	var lastContact, enrichedAt, social, draft sql.NullString

	err := row.Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.District, &lead.Address, &lead.Phone, &lead.Email,
		&lead.Website, &status, &lead.Score, &missing, &lastContact, &enrichedAt, &lead.Notes, &social, &draft, &details,
		&lead.Source, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Status = domain.LeadStatus(status)
	cols := nestedColumns{missingFields: []byte(missing), scoreDetails: []byte(details)}
	if social.Valid {
		cols.social = []byte(social.String)
	}
	if draft.Valid {
		cols.draft = []byte(draft.String)
	}
	if err := decodeNested(cols, &lead); err != nil {
		return domain.Lead{}, err
	}
	if lastContact.Valid && lastContact.String != "" {
		day, err := time.Parse(domain.DateLayout, lastContact.String)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("parse last contact date: %w", err)
		}
		lead.LastContactDate = &day
	}
	if enrichedAt.Valid && enrichedAt.String != "" {
		at, err := time.Parse(sqliteTimeLayout, enrichedAt.String)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("parse enriched at: %w", err)
		}
		lead.EnrichedAt = &at
	}
	lead.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	lead.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
	return lead, nil
}

func scanSQLiteTask(row rowScanner) (domain.Task, error) {
	var task domain.Task
	var priority, status, due, createdAt string
	if err := row.Scan(&task.ID, &task.LeadID, &task.CompanyName, &task.Description, &priority, &due, &status, &createdAt); err != nil {
		return domain.Task{}, err
	}
	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	task.DueDate, _ = time.Parse(sqliteTimeLayout, due)
	task.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	return task, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
