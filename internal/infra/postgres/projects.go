package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moneystack/moneystack-go/internal/domain"
)

const projectColumns = `id, user_id, account_id, name, target_amount, saved_amount, deadline, status,
       created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var (
		p        domain.Project
		deadline sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.AccountID,
		&p.Name,
		&p.TargetAmount,
		&p.SavedAmount,
		&deadline,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		p.Deadline = &deadline.Time
	}
	return &p, nil
}

func (l *Ledger) CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	query := `
        INSERT INTO projects (id, user_id, account_id, name, target_amount, saved_amount, deadline,
                              status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := l.q.ExecContext(ctx, query,
		project.ID, project.UserID, project.AccountID, project.Name, project.TargetAmount,
		project.SavedAmount, project.Deadline, project.Status, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (l *Ledger) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1 ORDER BY created_at`
	rows, err := l.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (l *Ledger) GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND user_id = $2`
	p, err := scanProject(l.q.QueryRowContext(ctx, query, projectID, userID))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (l *Ledger) UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	query := `
        UPDATE projects
        SET name = $1, target_amount = $2, saved_amount = $3, deadline = $4, status = $5, updated_at = NOW()
        WHERE id = $6 AND user_id = $7
    `
	res, err := l.q.ExecContext(ctx, query,
		project.Name, project.TargetAmount, project.SavedAmount, project.Deadline, project.Status,
		project.ID, project.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "project", ID: project.ID}
	}
	return project, nil
}

func (l *Ledger) DeleteProject(ctx context.Context, userID, projectID string) error {
	res, err := l.q.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "project", ID: projectID}
	}
	return nil
}
