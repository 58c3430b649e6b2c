package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// RemoteRepository stores leads in a shared Postgres database.
type RemoteRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRemote wraps a pgx pool.
func NewRemote(pool *pgxpool.Pool) *RemoteRepository {
	return &RemoteRepository{pool: pool, now: time.Now}
}

// Migrate applies the embedded Postgres schema through a database/sql view of the pool.
func (r *RemoteRepository) Migrate() error {
	conn := stdlib.OpenDBFromPool(r.pool)
	defer conn.Close()
	return db.RunMigrations(conn, db.DialectPostgres, migrationsFS, postgresMigrationsDir)
}

func (r *RemoteRepository) GetLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanPostgresLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *RemoteRepository) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	lead, err := scanPostgresLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *RemoteRepository) CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead = prepareCreate(lead, r.now())
	cols, err := encodeNested(lead)
	if err != nil {
		return domain.Lead{}, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		lead.ID, lead.CompanyName, lead.Sector, lead.District, lead.Address, lead.Phone, lead.Email, lead.Website,
		string(lead.Status), lead.Score, cols.missingFields, lead.LastContactDate, lead.EnrichedAt, lead.Notes,
		cols.social, cols.draft, cols.scoreDetails, lead.Source, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (r *RemoteRepository) UpdateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.Score = domain.ClampScore(lead.Score)
	lead.UpdatedAt = r.now()
	cols, err := encodeNested(lead)
	if err != nil {
		return domain.Lead{}, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			company_name = $2, sector = $3, district = $4, address = $5, phone = $6, email = $7, website = $8,
			status = $9, score = $10, missing_fields = $11, last_contact_date = $12, enriched_at = $13, notes = $14,
			social_profile = $15, draft_response = $16, score_details = $17, source = $18, updated_at = $19
		WHERE id = $1`,
		lead.ID, lead.CompanyName, lead.Sector, lead.District, lead.Address, lead.Phone, lead.Email, lead.Website,
		string(lead.Status), lead.Score, cols.missingFields, lead.LastContactDate, lead.EnrichedAt, lead.Notes,
		cols.social, cols.draft, cols.scoreDetails, lead.Source, lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Lead{}, ErrNotFound
	}
	return lead, nil
}

func (r *RemoteRepository) GetTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tasks, nil
}

func (r *RemoteRepository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	task, err := scanPostgresTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *RemoteRepository) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task = prepareTask(task, r.now())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.LeadID, task.CompanyName, task.Description, string(task.Priority),
		task.DueDate, string(task.Status), task.CreatedAt,
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (r *RemoteRepository) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET company_name = $2, description = $3, priority = $4, due_date = $5, status = $6
		WHERE id = $1`,
		task.ID, task.CompanyName, task.Description, string(task.Priority), task.DueDate, string(task.Status),
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (r *RemoteRepository) LogAction(ctx context.Context, action, detail string, severity domain.Severity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO action_log (action, detail, severity, created_at) VALUES ($1, $2, $3, $4)`,
		action, detail, string(severity), r.now(),
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

func (r *RemoteRepository) ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, detail, severity, created_at FROM action_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query action log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ActionLogEntry, 0)
	for rows.Next() {
		var entry domain.ActionLogEntry
		var severity string
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Detail, &severity, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Severity = domain.Severity(severity)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanPostgresLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var status string
	var cols nestedColumns

	err := row.Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.District, &lead.Address, &lead.Phone, &lead.Email,
		&lead.Website, &status, &lead.Score, &cols.missingFields, &lead.LastContactDate, &lead.EnrichedAt, &lead.Notes,
		&cols.social, &cols.draft, &cols.scoreDetails, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.LeadStatus(status)
	if err := decodeNested(cols, &lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func scanPostgresTask(row pgx.Row) (domain.Task, error) {
	var task domain.Task
	var priority, status string
	if err := row.Scan(&task.ID, &task.LeadID, &task.CompanyName, &task.Description, &priority, &task.DueDate, &status, &task.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	return task, nil
}
