package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type stepRecordRow struct {
	bun.BaseModel `bun:"table:agent_step_records,alias:sr"`

	ID         int64                `bun:"id,pk,autoincrement"`
	Kind       string               `bun:"kind,notnull"`
	RunID      string               `bun:"run_id"`
	Record     contractx.StepRecord `bun:"record,type:jsonb,notnull"`
	RecordedAt time.Time            `bun:"recorded_at,notnull"`
}

type leadRow struct {
	bun.BaseModel `bun:"table:agent_leads,alias:l"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	Name               string    `bun:"name"`
	Company            string    `bun:"company"`
	Role               string    `bun:"role"`
	Email              string    `bun:"email"`
	CompanyDescription string    `bun:"company_description"`
	FoundAt            time.Time `bun:"found_at"`
	Source             string    `bun:"source"`
	RecordedAt         time.Time `bun:"recorded_at,notnull"`
}

type emailRow struct {
	bun.BaseModel `bun:"table:agent_emails,alias:e"`

	ID         int64          `bun:"id,pk,autoincrement"`
	ToAddress  string         `bun:"to_address,notnull"`
	Subject    string         `bun:"subject"`
	Body       string         `bun:"body"`
	Lead       contractx.Lead `bun:"lead,type:jsonb"`
	RecordedAt time.Time      `bun:"recorded_at,notnull"`
}

type PostgresOption func(*PostgresStore)

func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if now != nil {
			s.now = now
		}
	}
}

// PostgresStore keeps the three record kinds in their own tables. Inserts
// skip RETURNING; reads order by id.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewPostgresStore(db *bun.DB, opts ...PostgresOption) *PostgresStore {
	store := &PostgresStore{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// OpenPostgres connects with pgdriver and creates the tables if missing.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	store := NewPostgresStore(bun.NewDB(sqldb, pgdialect.New()), opts...)
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	for _, model := range []any{(*stepRecordRow)(nil), (*leadRow)(nil), (*emailRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveStep(ctx context.Context, rec contractx.StepRecord) error {
	rec.RecordedAt = s.now().UTC()
	row := &stepRecordRow{
		Kind:       string(rec.Kind),
		RunID:      rec.RunID,
		Record:     rec,
		RecordedAt: rec.RecordedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("insert step record: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveLeads(ctx context.Context, leads []contractx.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	at := s.now().UTC()
	rows := make([]leadRow, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, leadRow{
			Name:               l.Name,
			Company:            l.Company,
			Role:               l.Role,
			Email:              l.Email,
			CompanyDescription: l.CompanyDescription,
			FoundAt:            l.FoundAt,
			Source:             l.Source,
			RecordedAt:         at,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("insert leads: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveEmail(ctx context.Context, email contractx.Email) error {
	row := &emailRow{
		ToAddress:  email.To,
		Subject:    email.Subject,
		Body:       email.Body,
		Lead:       email.Lead,
		RecordedAt: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("insert email: %w", err)
	}
	return nil
}

func (s *PostgresStore) AllLeads(ctx context.Context) ([]contractx.Lead, error) {
	var rows []leadRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select leads: %w", err)
	}
	leads := make([]contractx.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, contractx.Lead{
			Name:               r.Name,
			Company:            r.Company,
			Role:               r.Role,
			Email:              r.Email,
			CompanyDescription: r.CompanyDescription,
			FoundAt:            r.FoundAt,
			Source:             r.Source,
		})
	}
	return leads, nil
}

func (s *PostgresStore) AllEmails(ctx context.Context) ([]contractx.Email, error) {
	var rows []emailRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select emails: %w", err)
	}
	emails := make([]contractx.Email, 0, len(rows))
	for _, r := range rows {
		emails = append(emails, contractx.Email{
			To:      r.ToAddress,
			Subject: r.Subject,
			Body:    r.Body,
			Lead:    r.Lead,
		})
	}
	return emails, nil
}

func (s *PostgresStore) AllSteps(ctx context.Context) ([]contractx.StepRecord, error) {
	var rows []stepRecordRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select step records: %w", err)
	}
	records := make([]contractx.StepRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.Record
		rec.RecordedAt = r.RecordedAt
		records = append(records, rec)
	}
	return records, nil
}
