package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/catalog"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// fiasLevels maps the classifier's numeric AO levels to ours.
var fiasLevels = map[int]address.Level{
	1:  address.LevelRegion,
	2:  address.LevelDistrict,
	3:  address.LevelDistrict,
	35: address.LevelDistrict,
	4:  address.LevelCity,
	5:  address.LevelCityArea,
	6:  address.LevelSettlement,
	65: address.LevelPlanningStructure,
	7:  address.LevelStreet,
	8:  address.LevelHouse,
	90: address.LevelPlanningStructure,
	91: address.LevelStreet,
}

// AOTypeStore reads address object types from a socrbase-style table:
//
//	socrbase(level INTEGER, scname TEXT, socrname TEXT, kod_t_st TEXT)
type AOTypeStore struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// Open opens the SQLite database at path read-only.
func Open(path string, logger *zap.Logger) (*AOTypeStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return NewAOTypeStore(db, "socrbase", logger), nil
}

// NewAOTypeStore wraps an open database.
func NewAOTypeStore(db *sql.DB, table string, logger *zap.Logger) *AOTypeStore {
	return &AOTypeStore{db: db, table: table, logger: logger}
}

func (s *AOTypeStore) Name() string { return "sqlite:" + s.table }

// LoadAOTypes implements catalog.Source.
func (s *AOTypeStore) LoadAOTypes(ctx context.Context) ([]catalog.Entry, error) {
	query := fmt.Sprintf(`SELECT level, scname, socrname, kod_t_st FROM %s ORDER BY level, socrname`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	skipped := 0
	for rows.Next() {
		var (
			level      int
			abbr, name string
			code       sql.NullString
		)
		if err := rows.Scan(&level, &abbr, &name, &code); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		l, ok := fiasLevels[level]
		if !ok {
			skipped++
			continue
		}
		id := 0
		if code.Valid {
			fmt.Sscanf(code.String, "%d", &id)
		}
		entries = append(entries, catalog.Entry{Level: l, Name: name, Abbr: abbr, ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	if skipped > 0 {
		s.logger.Debug("Skipped types with unmapped levels",
			zap.String("table", s.table),
			zap.Int("skipped", skipped))
	}
	return entries, nil
}

// CreateSchema creates the table if it does not exist.
func (s *AOTypeStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		level INTEGER NOT NULL,
		scname TEXT NOT NULL,
		socrname TEXT NOT NULL,
		kod_t_st TEXT
	)`, s.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Insert adds one row; level is the classifier's numeric level.
func (s *AOTypeStore) Insert(ctx context.Context, level int, abbr, name, code string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (level, scname, socrname, kod_t_st) VALUES (?, ?, ?, ?)`, s.table),
		level, abbr, name, code)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *AOTypeStore) Close() error {
	return s.db.Close()
}
