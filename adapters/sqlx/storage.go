package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"acrossfc/core"
)

// Driver names a supported SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver" yaml:"driver" env:"ACROSSFC_SQL_DRIVER"`
	DSN             string        `json:"dsn" yaml:"dsn" env:"ACROSSFC_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `json:"auto_migrate" yaml:"auto_migrate"`
}

// DefaultConfig returns defaults for the driver.
func DefaultConfig(driver Driver) Config {
	cfg := Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		AutoMigrate:     true,
	}
	switch driver {
	case DriverPostgres:
		cfg.DSN = "postgres://localhost:5432/acrossfc?sslmode=disable"
	case DriverMySQL:
		cfg.DSN = "root@tcp(localhost:3306)/acrossfc?parseTime=true"
	case DriverSQLite:
		cfg.DSN = "acrossfc.db"
		// sqlite serializes writers
		cfg.MaxOpenConns = 1
	}
	return cfg
}

// Store implements points and clears storage on a SQL database.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New connects to the database and optionally creates the schema.
func New(cfg Config) (*Store, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	s := NewWithDB(db, cfg.Driver)
	if cfg.AutoMigrate {
		if err := s.Migrate(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS points_events (
		uuid VARCHAR(64) NOT NULL PRIMARY KEY,
		tier VARCHAR(16) NOT NULL,
		member_id BIGINT NOT NULL,
		points BIGINT NOT NULL,
		category VARCHAR(32) NOT NULL,
		description VARCHAR(255) NOT NULL,
		ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS member_points (
		member_id BIGINT NOT NULL,
		tier VARCHAR(16) NOT NULL,
		total BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (member_id, tier)
	)`,
	`CREATE TABLE IF NOT EXISTS member_one_time (
		member_id BIGINT NOT NULL,
		tier VARCHAR(16) NOT NULL,
		category VARCHAR(32) NOT NULL,
		awarded_at BIGINT NOT NULL,
		PRIMARY KEY (member_id, tier, category)
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id BIGINT NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		fc_rank INTEGER NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clears (
		clear_key VARCHAR(191) NOT NULL PRIMARY KEY,
		member_id BIGINT NOT NULL,
		encounter_id VARCHAR(32) NOT NULL,
		encounter_name VARCHAR(32) NOT NULL,
		start_time BIGINT NOT NULL,
		historical_pct DOUBLE PRECISION NOT NULL,
		report_code VARCHAR(64) NOT NULL,
		report_fight_id INTEGER NOT NULL,
		job VARCHAR(64) NOT NULL,
		locked_in BOOLEAN NOT NULL
	)`,
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// AddPointsEvent records an award in one transaction and returns the new total.
func (s *Store) AddPointsEvent(ctx context.Context, tier core.Tier, ev core.PointsEvent) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	exists := true
	err = tx.GetContext(ctx, &current, s.db.Rebind(`SELECT total FROM member_points WHERE member_id = ? AND tier = ?`), int64(ev.MemberID), string(tier))
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return 0, fmt.Errorf("failed to get points: %w", err)
	}

	now := time.Now().UTC().Unix()
	if ev.Category.OneTime() {
		var awarded bool
		q := s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM member_one_time WHERE member_id = ? AND tier = ? AND category = ?)`)
		if err := tx.GetContext(ctx, &awarded, q, int64(ev.MemberID), string(tier), string(ev.Category)); err != nil {
			return 0, fmt.Errorf("failed to check one-time points: %w", err)
		}
		if awarded {
			return current, core.ErrOneTimeAwarded
		}
		q = s.db.Rebind(`INSERT INTO member_one_time (member_id, tier, category, awarded_at) VALUES (?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, q, int64(ev.MemberID), string(tier), string(ev.Category), now); err != nil {
			// a concurrent award committed between the check and the insert
			if isUniqueViolation(err) {
				return current, core.ErrOneTimeAwarded
			}
			return 0, fmt.Errorf("failed to record one-time points: %w", err)
		}
	}

	next, err := core.AddSafe(current, ev.Points)
	if err != nil {
		return 0, err
	}
	if exists {
		q := s.db.Rebind(`UPDATE member_points SET total = ?, updated_at = ? WHERE member_id = ? AND tier = ?`)
		_, err = tx.ExecContext(ctx, q, next, now, int64(ev.MemberID), string(tier))
	} else {
		q := s.db.Rebind(`INSERT INTO member_points (member_id, tier, total, updated_at) VALUES (?, ?, ?, ?)`)
		_, err = tx.ExecContext(ctx, q, int64(ev.MemberID), string(tier), next, now)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to store points: %w", err)
	}

	q := s.db.Rebind(`INSERT INTO points_events (uuid, tier, member_id, points, category, description, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, q, ev.UUID, string(tier), int64(ev.MemberID), ev.Points, string(ev.Category), ev.Description, ev.TS); err != nil {
		return 0, fmt.Errorf("failed to store points event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

type pointsRow struct {
	MemberID  int64 `db:"member_id"`
	Total     int64 `db:"total"`
	UpdatedAt int64 `db:"updated_at"`
}

type oneTimeRow struct {
	MemberID int64  `db:"member_id"`
	Category string `db:"category"`
}

func (s *Store) GetMemberPoints(ctx context.Context, member core.MemberID, tier core.Tier) (core.MemberPoints, error) {
	var row pointsRow
	q := s.db.Rebind(`SELECT member_id, total, updated_at FROM member_points WHERE member_id = ? AND tier = ?`)
	if err := s.db.GetContext(ctx, &row, q, int64(member), string(tier)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.MemberPoints{}, core.ErrMemberNotFound
		}
		return core.MemberPoints{}, fmt.Errorf("failed to get points: %w", err)
	}
	var cats []string
	q = s.db.Rebind(`SELECT category FROM member_one_time WHERE member_id = ? AND tier = ?`)
	if err := s.db.SelectContext(ctx, &cats, q, int64(member), string(tier)); err != nil {
		return core.MemberPoints{}, fmt.Errorf("failed to get one-time points: %w", err)
	}
	p := toMemberPoints(row, tier)
	for _, c := range cats {
		p.OneTime[core.PointsCategory(c)] = struct{}{}
	}
	return p, nil
}

func (s *Store) ListMemberPoints(ctx context.Context, tier core.Tier) ([]core.MemberPoints, error) {
	var rows []pointsRow
	q := s.db.Rebind(`SELECT member_id, total, updated_at FROM member_points WHERE tier = ? ORDER BY member_id`)
	if err := s.db.SelectContext(ctx, &rows, q, string(tier)); err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	var ones []oneTimeRow
	q = s.db.Rebind(`SELECT member_id, category FROM member_one_time WHERE tier = ?`)
	if err := s.db.SelectContext(ctx, &ones, q, string(tier)); err != nil {
		return nil, fmt.Errorf("failed to list one-time points: %w", err)
	}
	byMember := make(map[int64][]string, len(ones))
	for _, o := range ones {
		byMember[o.MemberID] = append(byMember[o.MemberID], o.Category)
	}
	out := make([]core.MemberPoints, 0, len(rows))
	for _, r := range rows {
		p := toMemberPoints(r, tier)
		for _, c := range byMember[r.MemberID] {
			p.OneTime[core.PointsCategory(c)] = struct{}{}
		}
		out = append(out, p)
	}
	return out, nil
}

func toMemberPoints(r pointsRow, tier core.Tier) core.MemberPoints {
	p := core.NewMemberPoints(core.MemberID(r.MemberID), tier)
	p.Total = r.Total
	p.Updated = time.Unix(r.UpdatedAt, 0).UTC()
	return p
}

// Events returns the tier's points events ordered by timestamp.
func (s *Store) Events(ctx context.Context, tier core.Tier) ([]core.PointsEvent, error) {
	var out []core.PointsEvent
	q := s.db.Rebind(`SELECT uuid, member_id, points, category, description, ts FROM points_events WHERE tier = ? ORDER BY ts, uuid`)
	if err := s.db.SelectContext(ctx, &out, q, string(tier)); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// SaveRoster replaces the stored roster, keeping its order.
func (s *Store) SaveRoster(ctx context.Context, members []core.Member) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	q := s.db.Rebind(`INSERT INTO members (id, name, fc_rank, position) VALUES (?, ?, ?, ?)`)
	for i, m := range members {
		if _, err := tx.ExecContext(ctx, q, int64(m.ID), m.Name, m.Rank, i); err != nil {
			return fmt.Errorf("failed to save member %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Roster(ctx context.Context) ([]core.Member, error) {
	members := []core.Member{}
	if err := s.db.SelectContext(ctx, &members, `SELECT id, name, fc_rank FROM members ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return members, nil
}

func (s *Store) insertIgnore() string {
	const cols = `clears (clear_key, member_id, encounter_id, encounter_name, start_time, historical_pct, report_code, report_fight_id, job, locked_in) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	switch s.driver {
	case DriverMySQL:
		return `INSERT IGNORE INTO ` + cols
	case DriverSQLite:
		return `INSERT OR IGNORE INTO ` + cols
	default:
		return s.db.Rebind(`INSERT INTO `+cols) + ` ON CONFLICT (clear_key) DO NOTHING`
	}
}

// SaveClears inserts clears whose key is not stored yet.
func (s *Store) SaveClears(ctx context.Context, clears []core.Clear) (int, error) {
	if len(clears) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	q := s.insertIgnore()
	added := 0
	for _, c := range clears {
		res, err := tx.ExecContext(ctx, q,
			c.Key(), int64(c.MemberID), c.Encounter.ID, c.Encounter.Name, c.StartTime.UnixMilli(),
			c.HistoricalPct, c.ReportCode, c.ReportFightID, jobColumn(c.Job), c.LockedIn)
		if err != nil {
			return 0, fmt.Errorf("failed to save clear %s: %w", c.Key(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// jobColumn stores the TLA, or the FFLogs spec name for jobs outside the
// job table.
func jobColumn(j core.Job) string {
	if j.TLA != "" {
		return j.TLA
	}
	return j.Name
}

func jobFromColumn(v string) core.Job {
	if j, ok := core.JobByTLA(v); ok {
		return j
	}
	if j, ok := core.JobByName(v); ok {
		return j
	}
	if v == "" {
		return core.Job{}
	}
	return core.Job{Name: v}
}

type clearRow struct {
	MemberID      int64   `db:"member_id"`
	EncounterID   string  `db:"encounter_id"`
	EncounterName string  `db:"encounter_name"`
	StartTime     int64   `db:"start_time"`
	HistoricalPct float64 `db:"historical_pct"`
	ReportCode    string  `db:"report_code"`
	ReportFightID int     `db:"report_fight_id"`
	Job           string  `db:"job"`
	LockedIn      bool    `db:"locked_in"`
}

func (s *Store) Clears(ctx context.Context) ([]core.Clear, error) {
	var rows []clearRow
	const q = `SELECT member_id, encounter_id, encounter_name, start_time, historical_pct, report_code, report_fight_id, job, locked_in FROM clears ORDER BY start_time, clear_key`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("failed to get clears: %w", err)
	}
	out := make([]core.Clear, 0, len(rows))
	for _, r := range rows {
		enc, ok := core.EncounterByID(r.EncounterID)
		if !ok {
			enc = core.Encounter{ID: r.EncounterID, Name: r.EncounterName}
		}
		out = append(out, core.Clear{
			MemberID:      core.MemberID(r.MemberID),
			Encounter:     enc,
			StartTime:     time.UnixMilli(r.StartTime).UTC(),
			HistoricalPct: r.HistoricalPct,
			ReportCode:    r.ReportCode,
			ReportFightID: r.ReportFightID,
			Job:           jobFromColumn(r.Job),
			LockedIn:      r.LockedIn,
		})
	}
	return out, nil
}

const (
	pqUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteConstraintBase = 19
)

// isUniqueViolation reports a primary key or unique constraint failure from
// any of the supported drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraintBase
	}
	return false
}
