package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flight-fares/fare-harvester/internal/domain"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
)

// Store is the SQLite record store. It keeps every batch keyed by its file
// name, first flight date and collection date, like the run folders do.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates a record store at path. ":memory:" is accepted.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		with_return INTEGER NOT NULL,
		first_date TEXT NOT NULL,
		collect_date TEXT NOT NULL,
		flight_date TEXT NOT NULL,
		weekday TEXT NOT NULL,
		airline TEXT NOT NULL,
		craft TEXT NOT NULL,
		dep_name TEXT NOT NULL,
		arr_name TEXT NOT NULL,
		dep_time TEXT NOT NULL,
		arr_time TEXT NOT NULL,
		price INTEGER NOT NULL,
		rate REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_batch ON records(file, first_date, collect_date);
	`
	_, err := db.Exec(schema)
	return err
}

// Save replaces the stored rows of the batch's (file, first date, collection
// date) in one transaction.
func (s *Store) Save(ctx context.Context, b domain.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	file := b.FileName()
	first := b.FirstDate.Format(domain.DateLayout)
	collect := b.CollectDate.Format(domain.DateLayout)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE file = ? AND first_date = ? AND collect_date = ?`, file, first, collect); err != nil {
		return fmt.Errorf("clear %s: %w", file, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (file, origin, destination, with_return, first_date, collect_date,
			flight_date, weekday, airline, craft, dep_name, arr_name, dep_time, arr_time, price, rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range b.Records {
		if _, err := stmt.ExecContext(ctx,
			file, b.Origin, b.Destination, b.WithReturn, first, collect,
			r.FlightDate.Format(domain.DateLayout), r.Weekday, r.Airline, string(r.Craft),
			r.DepName, r.ArrName, r.DepTime, r.ArrTime, r.Price, r.Rate,
		); err != nil {
			return fmt.Errorf("insert %s: %w", file, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// Load streams the stored batches to fn, grouped by collection date, first
// date and file, in insertion order within each batch.
func (s *Store) Load(ctx context.Context, fn func(domain.Batch) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT origin, destination, with_return, first_date, collect_date,
			flight_date, weekday, airline, craft, dep_name, arr_name, dep_time, arr_time, price, rate
		FROM records
		ORDER BY collect_date, first_date, file, id`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var current *domain.Batch
	flush := func() error {
		if current == nil {
			return nil
		}
		b := *current
		current = nil
		return fn(b)
	}

	for rows.Next() {
		var (
			origin, destination, first, collect string
			flight, weekday, airline, craft     string
			depName, arrName, depTime, arrTime  string
			withReturn                          bool
			price                               int
			rate                                float64
		)
		if err := rows.Scan(&origin, &destination, &withReturn, &first, &collect,
			&flight, &weekday, &airline, &craft, &depName, &arrName, &depTime, &arrTime, &price, &rate); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}

		firstDate, err := timeutil.ParseDate(first)
		if err != nil {
			return err
		}
		collectDate, err := timeutil.ParseDate(collect)
		if err != nil {
			return err
		}
		flightDate, err := timeutil.ParseDate(flight)
		if err != nil {
			return err
		}

		if current != nil && !sameBatch(current, origin, destination, withReturn, firstDate, collectDate) {
			if err := flush(); err != nil {
				return err
			}
		}
		if current == nil {
			current = &domain.Batch{
				Origin:      origin,
				Destination: destination,
				WithReturn:  withReturn,
				FirstDate:   firstDate,
				CollectDate: collectDate,
			}
		}
		current.Records = append(current.Records, domain.FlightRecord{
			FlightDate: flightDate,
			Weekday:    weekday,
			Airline:    airline,
			Craft:      domain.CraftSize(craft),
			DepName:    depName,
			ArrName:    arrName,
			DepTime:    depTime,
			ArrTime:    arrTime,
			Price:      price,
			Rate:       rate,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate records: %w", err)
	}
	return flush()
}

func sameBatch(b *domain.Batch, origin, destination string, withReturn bool, first, collect time.Time) bool {
	return b.Origin == origin && b.Destination == destination && b.WithReturn == withReturn &&
		b.FirstDate.Equal(first) && b.CollectDate.Equal(collect)
}

var _ RecordStore = (*Store)(nil)
