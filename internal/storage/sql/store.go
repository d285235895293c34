// Package sql implements the storage interface on a relational database.
package sql

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clearops/tagwarden/internal/domain"
	"github.com/clearops/tagwarden/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db *sqlx.DB
}

// Ensure Store implements the storage interface.
var _ storage.Storage = (*Store)(nil)

// New creates a new SQL store and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// templateRow is the row shape of a tag template.
type templateRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	TagsJSON    string    `db:"tags_json"`
	Version     int       `db:"version"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *templateRow) toDomain() (*domain.TagTemplate, error) {
	t := &domain.TagTemplate{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Version:     r.Version,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.TagsJSON), &t.Tags); err != nil {
		return nil, fmt.Errorf("decoding template tags: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, t *domain.TagTemplate) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tag_templates (id, name, description, category, tags_json, version, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Description, t.Category, string(tags), t.Version, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*domain.TagTemplate, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, description, category, tags_json, version, created_by, created_at, updated_at
		 FROM tag_templates WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *Store) ListTemplates(ctx context.Context, category string) ([]*domain.TagTemplate, error) {
	query := `SELECT id, name, description, category, tags_json, version, created_by, created_at, updated_at
		 FROM tag_templates`
	args := []any{}
	if category != "" {
		query += ` WHERE LOWER(category) = LOWER($1)`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*domain.TagTemplate, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *domain.TagTemplate) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tag_templates
		 SET name = $1, description = $2, category = $3, tags_json = $4, version = version + 1, updated_at = $5
		 WHERE id = $6 AND version = $7`,
		t.Name, t.Description, t.Category, string(tags), t.UpdatedAt, t.ID, t.Version)
	if err != nil {
		return wrapUniqueError(err)
	}
	if err := s.checkUpdated(ctx, res, `SELECT COUNT(*) FROM tag_templates WHERE id = $1`, t.ID); err != nil {
		return err
	}
	t.Version++
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tag_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkDeleted(res)
}

// policyRow is the row shape of a tag policy.
type policyRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	Scope            string    `db:"scope"`
	ScopeID          string    `db:"scope_id"`
	RequiredTagsJSON string    `db:"required_tags_json"`
	Enabled          bool      `db:"enabled"`
	Version          int       `db:"version"`
	CreatedBy        string    `db:"created_by"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *policyRow) toDomain() (*domain.TagPolicy, error) {
	p := &domain.TagPolicy{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Scope:       domain.PolicyScope(r.Scope),
		ScopeID:     r.ScopeID,
		Enabled:     r.Enabled,
		Version:     r.Version,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.RequiredTagsJSON), &p.RequiredTags); err != nil {
		return nil, fmt.Errorf("decoding policy required tags: %w", err)
	}
	return p, nil
}

func (s *Store) CreatePolicy(ctx context.Context, p *domain.TagPolicy) error {
	rt, err := json.Marshal(p.RequiredTags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tag_policies (id, name, description, scope, scope_id, required_tags_json, enabled, version, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, string(p.Scope), p.ScopeID, string(rt), p.Enabled, p.Version, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*domain.TagPolicy, error) {
	var row policyRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, description, scope, scope_id, required_tags_json, enabled, version, created_by, created_at, updated_at
		 FROM tag_policies WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *Store) ListPolicies(ctx context.Context, filter storage.PolicyFilter) ([]*domain.TagPolicy, error) {
	query := `SELECT id, name, description, scope, scope_id, required_tags_json, enabled, version, created_by, created_at, updated_at
		 FROM tag_policies WHERE 1 = 1`
	args := []any{}
	if filter.Scope != "" {
		args = append(args, string(filter.Scope))
		query += fmt.Sprintf(` AND scope = $%d`, len(args))
	}
	if filter.Enabled != nil {
		args = append(args, *filter.Enabled)
		query += fmt.Sprintf(` AND enabled = $%d`, len(args))
	}
	query += ` ORDER BY name`

	var rows []policyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*domain.TagPolicy, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p *domain.TagPolicy) error {
	rt, err := json.Marshal(p.RequiredTags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tag_policies
		 SET name = $1, description = $2, scope = $3, scope_id = $4, required_tags_json = $5, enabled = $6, version = version + 1, updated_at = $7
		 WHERE id = $8 AND version = $9`,
		p.Name, p.Description, string(p.Scope), p.ScopeID, string(rt), p.Enabled, p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return wrapUniqueError(err)
	}
	if err := s.checkUpdated(ctx, res, `SELECT COUNT(*) FROM tag_policies WHERE id = $1`, p.ID); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tag_policies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkDeleted(res)
}

// alertRow is the row shape of an alert rule.
type alertRow struct {
	ID             string       `db:"id"`
	Name           string       `db:"name"`
	Description    string       `db:"description"`
	Enabled        bool         `db:"enabled"`
	Frequency      string       `db:"frequency"`
	ConditionsJSON string       `db:"conditions_json"`
	RecipientsJSON string       `db:"recipients_json"`
	ScopeJSON      string       `db:"scope_json"`
	LastTriggered  sql.NullTime `db:"last_triggered"`
	Version        int          `db:"version"`
	CreatedBy      string       `db:"created_by"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r *alertRow) toDomain() (*domain.AlertRule, error) {
	a := &domain.AlertRule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Enabled:     r.Enabled,
		Frequency:   domain.AlertFrequency(r.Frequency),
		Version:     r.Version,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.LastTriggered.Valid {
		t := r.LastTriggered.Time
		a.LastTriggered = &t
	}
	if err := json.Unmarshal([]byte(r.ConditionsJSON), &a.Conditions); err != nil {
		return nil, fmt.Errorf("decoding alert conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(r.RecipientsJSON), &a.Recipients); err != nil {
		return nil, fmt.Errorf("decoding alert recipients: %w", err)
	}
	if err := json.Unmarshal([]byte(r.ScopeJSON), &a.Scope); err != nil {
		return nil, fmt.Errorf("decoding alert scope: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAlert(ctx context.Context, a *domain.AlertRule) error {
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return err
	}
	recipients, err := json.Marshal(a.Recipients)
	if err != nil {
		return err
	}
	scope, err := json.Marshal(a.Scope)
	if err != nil {
		return err
	}
	var last sql.NullTime
	if a.LastTriggered != nil {
		last = sql.NullTime{Time: *a.LastTriggered, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alert_rules (id, name, description, enabled, frequency, conditions_json, recipients_json, scope_json, last_triggered, version, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Name, a.Description, a.Enabled, string(a.Frequency), string(conditions), string(recipients), string(scope), last, a.Version, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetAlert(ctx context.Context, id string) (*domain.AlertRule, error) {
	var row alertRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, description, enabled, frequency, conditions_json, recipients_json, scope_json, last_triggered, version, created_by, created_at, updated_at
		 FROM alert_rules WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *Store) ListAlerts(ctx context.Context, filter storage.AlertFilter) ([]*domain.AlertRule, error) {
	query := `SELECT id, name, description, enabled, frequency, conditions_json, recipients_json, scope_json, last_triggered, version, created_by, created_at, updated_at
		 FROM alert_rules WHERE 1 = 1`
	args := []any{}
	if filter.Enabled != nil {
		args = append(args, *filter.Enabled)
		query += fmt.Sprintf(` AND enabled = $%d`, len(args))
	}
	if filter.Frequency != "" {
		args = append(args, string(filter.Frequency))
		query += fmt.Sprintf(` AND frequency = $%d`, len(args))
	}
	query += ` ORDER BY name`

	var rows []alertRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*domain.AlertRule, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) UpdateAlert(ctx context.Context, a *domain.AlertRule) error {
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return err
	}
	recipients, err := json.Marshal(a.Recipients)
	if err != nil {
		return err
	}
	scope, err := json.Marshal(a.Scope)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE alert_rules
		 SET name = $1, description = $2, enabled = $3, frequency = $4, conditions_json = $5, recipients_json = $6, scope_json = $7, version = version + 1, updated_at = $8
		 WHERE id = $9 AND version = $10`,
		a.Name, a.Description, a.Enabled, string(a.Frequency), string(conditions), string(recipients), string(scope), a.UpdatedAt, a.ID, a.Version)
	if err != nil {
		return wrapUniqueError(err)
	}
	if err := s.checkUpdated(ctx, res, `SELECT COUNT(*) FROM alert_rules WHERE id = $1`, a.ID); err != nil {
		return err
	}
	a.Version++
	return nil
}

func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkDeleted(res)
}

func (s *Store) TouchAlertLastTriggered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alert_rules SET last_triggered = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkDeleted(res)
}

// checkUpdated distinguishes "row gone" from "version mismatch" after a
// guarded UPDATE matched nothing.
func (s *Store) checkUpdated(ctx context.Context, res sql.Result, countQuery, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var count int
	if err := s.db.GetContext(ctx, &count, countQuery, id); err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}

// checkDeleted maps a zero-row DELETE/UPDATE to domain.ErrNotFound.
func checkDeleted(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
