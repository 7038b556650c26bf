package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/harmonia-labs/lessonbook/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: Repository implements domain.Repository.
var _ domain.Repository = (*Repository)(nil)

const (
	timeFormat = "2006-01-02T15:04:05Z"

	// Bounded retry for SQLITE_BUSY contention. Retrying here keeps the
	// engine and workflows free of retry logic.
	txMaxRetries   = 3
	txRetryBackoff = 25 * time.Millisecond
)

// Repository implements domain.Repository using SQLite.
type Repository struct {
	db *sql.DB
	store
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*Repository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes write transactions up front, which is
	// the SQLite equivalent of the row locks the accept workflow needs.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready repository. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Repository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Repository{db: db, store: store{q: db}}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (r *Repository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back otherwise; nothing written by fn is visible until commit.
// Retryable contention failures restart fn from scratch a bounded number of
// times.
func (r *Repository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !isBusy(err) || attempt >= txMaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txRetryBackoff << attempt):
		}
	}
}

func (r *Repository) runTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txn{store{q: sqlTx}}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// txn is a store scoped to one *sql.Tx.
type txn struct {
	store
}

var _ domain.Tx = (*txn)(nil)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store implements domain.Store over either a bare connection or a
// transaction.
type store struct {
	q querier
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// --- Lesson requests ---

func (s store) CreateLessonRequest(ctx context.Context, r domain.LessonRequest) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO lesson_requests (id, student_id, lesson_type, notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.StudentID, r.LessonType, r.Notes, r.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting lesson request: %w", err)
	}
	return nil
}

func (s store) GetLessonRequest(ctx context.Context, id string) (domain.LessonRequest, error) {
	var r domain.LessonRequest
	var createdAt string

	err := s.q.QueryRowContext(ctx,
		`SELECT id, student_id, lesson_type, notes, created_at
		 FROM lesson_requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.StudentID, &r.LessonType, &r.Notes, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LessonRequest{}, &domain.NotFoundError{Kind: domain.KindLessonRequest, ID: id}
		}
		return domain.LessonRequest{}, fmt.Errorf("scanning lesson request: %w", err)
	}

	r.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return r, nil
}

// --- Quotes ---

const quoteColumns = `q.id, q.request_id, q.teacher_id, q.amount_cents, q.expires_at, q.current_status_id, s.status, q.created_at`

func (s store) CreateQuote(ctx context.Context, q domain.Quote) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO quotes (id, request_id, teacher_id, amount_cents, expires_at, current_status_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.RequestID, q.TeacherID, q.AmountCents,
		q.ExpiresAt.UTC().Format(timeFormat), q.CurrentStatusID,
		q.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "teacher already quoted this lesson request"}
		}
		return fmt.Errorf("inserting quote: %w", err)
	}
	return nil
}

func (s store) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	q, err := scanQuote(s.q.QueryRowContext(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes q JOIN status_records s ON s.id = q.current_status_id
		 WHERE q.id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Quote{}, &domain.NotFoundError{Kind: domain.KindQuote, ID: id}
		}
		return domain.Quote{}, fmt.Errorf("scanning quote: %w", err)
	}
	return q, nil
}

func (s store) QuotesByRequest(ctx context.Context, requestID string) ([]domain.Quote, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes q JOIN status_records s ON s.id = q.current_status_id
		 WHERE q.request_id = ?
		 ORDER BY q.rowid`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing quotes for request: %w", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

func (s store) OverdueQuotes(ctx context.Context, now time.Time) ([]domain.Quote, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+quoteColumns+`
		 FROM quotes q JOIN status_records s ON s.id = q.current_status_id
		 WHERE s.status = ? AND q.expires_at <= ?
		 ORDER BY q.rowid`,
		string(domain.StatusRequested), now.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("listing overdue quotes: %w", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

func scanQuote(sc scanner) (domain.Quote, error) {
	var q domain.Quote
	var status, expiresAt, createdAt string

	if err := sc.Scan(&q.ID, &q.RequestID, &q.TeacherID, &q.AmountCents,
		&expiresAt, &q.CurrentStatusID, &status, &createdAt); err != nil {
		return domain.Quote{}, err
	}

	q.Status = domain.Status(status)
	q.ExpiresAt, _ = time.Parse(timeFormat, expiresAt)
	q.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return q, nil
}

func collectQuotes(rows *sql.Rows) ([]domain.Quote, error) {
	var quotes []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote row: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// --- Lessons ---

const lessonColumns = `l.id, l.quote_id, l.request_id, l.teacher_id, l.student_id, l.current_status_id, s.status, l.created_at`

func (s store) CreateLesson(ctx context.Context, l domain.Lesson) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO lessons (id, quote_id, request_id, teacher_id, student_id, current_status_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.QuoteID, l.RequestID, l.TeacherID, l.StudentID,
		l.CurrentStatusID, l.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "lesson already exists for this quote"}
		}
		return fmt.Errorf("inserting lesson: %w", err)
	}
	return nil
}

func (s store) GetLesson(ctx context.Context, id string) (domain.Lesson, error) {
	l, err := scanLesson(s.q.QueryRowContext(ctx,
		`SELECT `+lessonColumns+`
		 FROM lessons l JOIN status_records s ON s.id = l.current_status_id
		 WHERE l.id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Lesson{}, &domain.NotFoundError{Kind: domain.KindLesson, ID: id}
		}
		return domain.Lesson{}, fmt.Errorf("scanning lesson: %w", err)
	}
	return l, nil
}

func (s store) LessonByQuote(ctx context.Context, quoteID string) (domain.Lesson, error) {
	l, err := scanLesson(s.q.QueryRowContext(ctx,
		`SELECT `+lessonColumns+`
		 FROM lessons l JOIN status_records s ON s.id = l.current_status_id
		 WHERE l.quote_id = ?`, quoteID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Lesson{}, &domain.NotFoundError{Kind: domain.KindLesson, ID: quoteID}
		}
		return domain.Lesson{}, fmt.Errorf("scanning lesson: %w", err)
	}
	return l, nil
}

func scanLesson(sc scanner) (domain.Lesson, error) {
	var l domain.Lesson
	var status, createdAt string

	if err := sc.Scan(&l.ID, &l.QuoteID, &l.RequestID, &l.TeacherID, &l.StudentID,
		&l.CurrentStatusID, &status, &createdAt); err != nil {
		return domain.Lesson{}, err
	}

	l.Status = domain.Status(status)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return l, nil
}

// --- Lesson plans ---

func (s store) CreateLessonPlan(ctx context.Context, p domain.LessonPlan) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO lesson_plans (id, teacher_id, student_id, title, current_status_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.TeacherID, p.StudentID, p.Title,
		p.CurrentStatusID, p.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting lesson plan: %w", err)
	}
	return nil
}

func (s store) GetLessonPlan(ctx context.Context, id string) (domain.LessonPlan, error) {
	var p domain.LessonPlan
	var status, createdAt string

	err := s.q.QueryRowContext(ctx,
		`SELECT p.id, p.teacher_id, p.student_id, p.title, p.current_status_id, s.status, p.created_at
		 FROM lesson_plans p JOIN status_records s ON s.id = p.current_status_id
		 WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.TeacherID, &p.StudentID, &p.Title, &p.CurrentStatusID, &status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LessonPlan{}, &domain.NotFoundError{Kind: domain.KindLessonPlan, ID: id}
		}
		return domain.LessonPlan{}, fmt.Errorf("scanning lesson plan: %w", err)
	}

	p.Status = domain.Status(status)
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return p, nil
}

// --- Milestones ---

const milestoneColumns = `m.id, m.plan_id, m.title, m.position, m.current_status_id, s.status, m.created_at`

func (s store) CreateMilestone(ctx context.Context, m domain.Milestone) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO milestones (id, plan_id, title, position, current_status_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.PlanID, m.Title, m.Position,
		m.CurrentStatusID, m.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting milestone: %w", err)
	}
	return nil
}

func (s store) GetMilestone(ctx context.Context, id string) (domain.Milestone, error) {
	m, err := scanMilestone(s.q.QueryRowContext(ctx,
		`SELECT `+milestoneColumns+`
		 FROM milestones m JOIN status_records s ON s.id = m.current_status_id
		 WHERE m.id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Milestone{}, &domain.NotFoundError{Kind: domain.KindMilestone, ID: id}
		}
		return domain.Milestone{}, fmt.Errorf("scanning milestone: %w", err)
	}
	return m, nil
}

func (s store) MilestonesByPlan(ctx context.Context, planID string) ([]domain.Milestone, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+milestoneColumns+`
		 FROM milestones m JOIN status_records s ON s.id = m.current_status_id
		 WHERE m.plan_id = ?
		 ORDER BY m.position, m.rowid`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	var milestones []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning milestone row: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func scanMilestone(sc scanner) (domain.Milestone, error) {
	var m domain.Milestone
	var status, createdAt string

	if err := sc.Scan(&m.ID, &m.PlanID, &m.Title, &m.Position,
		&m.CurrentStatusID, &status, &createdAt); err != nil {
		return domain.Milestone{}, err
	}

	m.Status = domain.Status(status)
	m.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return m, nil
}

// --- Hourly rates ---

const rateColumns = `r.id, r.teacher_id, r.lesson_type, r.amount_cents, r.current_status_id, s.status, r.created_at`

func (s store) CreateHourlyRate(ctx context.Context, r domain.HourlyRate) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO hourly_rates (id, teacher_id, lesson_type, amount_cents, current_status_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TeacherID, r.LessonType, r.AmountCents,
		r.CurrentStatusID, r.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "rate already exists for this teacher and lesson type"}
		}
		return fmt.Errorf("inserting hourly rate: %w", err)
	}
	return nil
}

func (s store) GetHourlyRate(ctx context.Context, id string) (domain.HourlyRate, error) {
	r, err := scanRate(s.q.QueryRowContext(ctx,
		`SELECT `+rateColumns+`
		 FROM hourly_rates r JOIN status_records s ON s.id = r.current_status_id
		 WHERE r.id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.HourlyRate{}, &domain.NotFoundError{Kind: domain.KindHourlyRate, ID: id}
		}
		return domain.HourlyRate{}, fmt.Errorf("scanning hourly rate: %w", err)
	}
	return r, nil
}

func (s store) RatesByTeacherAndType(ctx context.Context, teacherID, lessonType string) ([]domain.HourlyRate, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+rateColumns+`
		 FROM hourly_rates r JOIN status_records s ON s.id = r.current_status_id
		 WHERE r.teacher_id = ? AND r.lesson_type = ?
		 ORDER BY r.rowid`, teacherID, lessonType,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rates by type: %w", err)
	}
	defer rows.Close()

	return collectRates(rows)
}

func (s store) RatesByTeacher(ctx context.Context, teacherID string) ([]domain.HourlyRate, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+rateColumns+`
		 FROM hourly_rates r JOIN status_records s ON s.id = r.current_status_id
		 WHERE r.teacher_id = ?
		 ORDER BY r.rowid`, teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rates: %w", err)
	}
	defer rows.Close()

	return collectRates(rows)
}

func scanRate(sc scanner) (domain.HourlyRate, error) {
	var r domain.HourlyRate
	var status, createdAt string

	if err := sc.Scan(&r.ID, &r.TeacherID, &r.LessonType, &r.AmountCents,
		&r.CurrentStatusID, &status, &createdAt); err != nil {
		return domain.HourlyRate{}, err
	}

	r.Status = domain.Status(status)
	r.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return r, nil
}

func collectRates(rows *sql.Rows) ([]domain.HourlyRate, error) {
	var rates []domain.HourlyRate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rate row: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// --- Generic status surface ---

// tableFor maps an entity kind to its table. The per-entity tables share
// the id/current_status_id shape this surface relies on.
func tableFor(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindQuote:
		return "quotes", nil
	case domain.KindLesson:
		return "lessons", nil
	case domain.KindMilestone:
		return "milestones", nil
	case domain.KindLessonPlan:
		return "lesson_plans", nil
	case domain.KindHourlyRate:
		return "hourly_rates", nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

func (s store) EntityRef(ctx context.Context, kind domain.Kind, id string) (domain.EntityRef, error) {
	table, err := tableFor(kind)
	if err != nil {
		return domain.EntityRef{}, err
	}

	ref := domain.EntityRef{Kind: kind}
	err = s.q.QueryRowContext(ctx,
		`SELECT id, current_status_id FROM `+table+` WHERE id = ?`, id,
	).Scan(&ref.ID, &ref.CurrentStatusID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.EntityRef{}, &domain.NotFoundError{Kind: kind, ID: id}
		}
		return domain.EntityRef{}, fmt.Errorf("scanning entity ref: %w", err)
	}
	return ref, nil
}

func (s store) SetCurrentStatus(ctx context.Context, kind domain.Kind, id, statusID string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx,
		`UPDATE `+table+` SET current_status_id = ? WHERE id = ?`, statusID, id,
	)
	if err != nil {
		return fmt.Errorf("updating current status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func (s store) AppendStatus(ctx context.Context, rec domain.StatusRecord) error {
	var context any
	if rec.Context != nil {
		context = string(rec.Context)
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO status_records (id, owner_kind, owner_id, status, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.OwnerKind), rec.OwnerID, string(rec.Status),
		context, rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting status record: %w", err)
	}
	return nil
}

func (s store) GetStatusRecord(ctx context.Context, id string) (domain.StatusRecord, error) {
	rec, err := scanStatusRecord(s.q.QueryRowContext(ctx,
		`SELECT id, owner_kind, owner_id, status, context, created_at
		 FROM status_records WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.StatusRecord{}, &domain.NotFoundError{Kind: domain.KindStatusRecord, ID: id}
		}
		return domain.StatusRecord{}, fmt.Errorf("scanning status record: %w", err)
	}
	return rec, nil
}

func (s store) StatusHistory(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.StatusRecord, error) {
	// rowid order is insertion order; created_at alone is ambiguous at
	// second resolution.
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_kind, owner_id, status, context, created_at
		 FROM status_records
		 WHERE owner_kind = ? AND owner_id = ?
		 ORDER BY rowid`, string(kind), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing status history: %w", err)
	}
	defer rows.Close()

	var records []domain.StatusRecord
	for rows.Next() {
		rec, err := scanStatusRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning status record row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanStatusRecord(sc scanner) (domain.StatusRecord, error) {
	var rec domain.StatusRecord
	var ownerKind, status, createdAt string
	var context sql.NullString

	if err := sc.Scan(&rec.ID, &ownerKind, &rec.OwnerID, &status, &context, &createdAt); err != nil {
		return domain.StatusRecord{}, err
	}

	rec.OwnerKind = domain.Kind(ownerKind)
	rec.Status = domain.Status(status)
	if context.Valid {
		rec.Context = json.RawMessage(context.String)
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return rec, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusy checks if a SQLite error is lock contention worth retrying.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
