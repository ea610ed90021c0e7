package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Index maintains a sqlite tick index next to the JSONL journal. All writes
// funnel through a single goroutine; the simulation never blocks on the
// database, and a saturated queue drops rows (the JSONL stream remains the
// source of truth).
type Index struct {
	db *sql.DB

	ch     chan TickRecord
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

// OpenIndex opens (creating if needed) the sqlite index at path.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			alerts INTEGER NOT NULL,
			tokens_held INTEGER NOT NULL,
			plans INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_alerts ON ticks(alerts);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	index := &Index{
		db: db,
		ch: make(chan TickRecord, 4096),
	}
	index.wg.Add(1)
	go func() {
		defer index.wg.Done()
		index.loop()
	}()
	return index, nil
}

func (x *Index) loop() {
	for record := range x.ch {
		raw, err := json.Marshal(record)
		if err != nil {
			continue
		}
		_, _ = x.db.Exec(
			`INSERT OR REPLACE INTO ticks (tick, alerts, tokens_held, plans, raw_json) VALUES (?, ?, ?, ?, ?)`,
			record.Tick, record.Alerts, record.TokensHeld, record.Plans, string(raw),
		)
	}
}

// Record queues one tick row without blocking.
func (x *Index) Record(record TickRecord) {
	if x == nil || x.closed.Load() {
		return
	}
	select {
	case x.ch <- record:
	default:
	}
}

// AlertCounts returns tick -> alert count over [from, to], for post-run
// inspection tooling.
func (x *Index) AlertCounts(from, to uint64) (map[uint64]int, error) {
	if x == nil {
		return nil, fmt.Errorf("nil index")
	}
	rows, err := x.db.Query(`SELECT tick, alerts FROM ticks WHERE tick BETWEEN ? AND ? ORDER BY tick`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[uint64]int{}
	for rows.Next() {
		var tick uint64
		var alerts int
		if err := rows.Scan(&tick, &alerts); err != nil {
			return counts, err
		}
		counts[tick] = alerts
	}
	return counts, rows.Err()
}

// Close drains pending rows and closes the database.
func (x *Index) Close() error {
	if x == nil {
		return nil
	}
	var err error
	x.once.Do(func() {
		x.closed.Store(true)
		close(x.ch)
		x.wg.Wait()
		err = x.db.Close()
	})
	return err
}
