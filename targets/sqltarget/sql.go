// sql.go: a reference Target inserting formatted records into a SQL
// table, column by column, via the BY_NAME receptor.
//
// Follows the sqlx.Open("sqlite3", dsn) plus DB.NamedExec against a
// `:field`-tagged struct idiom, sized down from a repository pattern to
// the single insert this target performs per record.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package sqltarget

import (
	"net/url"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/stats"
	"github.com/agilira/elog/target"
)

const swapSlots = 8

// createTableSQL matches the columns logRow binds via NamedExec.
const createTableSQL = `CREATE TABLE IF NOT EXISTS log_records (
	ts TEXT NOT NULL,
	level INTEGER NOT NULL,
	host TEXT,
	user TEXT,
	pid INTEGER,
	program TEXT,
	source TEXT,
	record_id INTEGER,
	message TEXT,
	extra TEXT
)`

const insertSQL = `INSERT INTO log_records
	(ts, level, host, user, pid, program, source, record_id, message, extra)
	VALUES (:ts, :level, :host, :user, :pid, :program, :source, :record_id, :message, :extra)`

// logRow is the NamedExec binding for one inserted record.
type logRow struct {
	Ts       string `db:"ts"`
	Level    int8   `db:"level"`
	Host     string `db:"host"`
	User     string `db:"user"`
	PID      int    `db:"pid"`
	Program  string `db:"program"`
	Source   string `db:"source"`
	RecordID uint64 `db:"record_id"`
	Message  string `db:"message"`
	Extra    string `db:"extra"`
}

// Target inserts formatted log records into a SQL table, one row per
// record, using the compiled formatter's BY_NAME field routing.
type Target struct {
	db *sqlx.DB

	formatter *target.FormatterSlot
	filterer  *target.FilterSlot
	flusher   *target.FlushPolicySlot

	st      *stats.Stats
	recepts sync.Pool
}

// New opens dsn with driverName (e.g. "sqlite3") and ensures the
// log_records table exists.
func New(driverName, dsn string, formatter *format.Formatter) (*Target, error) {
	if dsn == "" {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: sqltarget: missing data source name")
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, elogerr.Wrap(err, elogerr.CodeIoError, "elog: sqltarget: failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, elogerr.Wrap(err, elogerr.CodeIoError, "elog: sqltarget: failed to reach database")
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, elogerr.Wrap(err, elogerr.CodeIoError, "elog: sqltarget: failed to create log_records table")
	}

	gc := epochgc.New(swapSlots)
	t := &Target{db: db, st: stats.New(16)}
	t.formatter = target.NewFormatterSlot(gc, formatter)
	t.filterer = target.NewFilterSlot(gc, nil)
	t.flusher = target.NewFlushPolicySlot(gc, filter.FlushImmediate())
	t.recepts.New = func() any { return format.NewColumnReceptor() }
	return t, nil
}

func init() {
	target.DefaultSchemes.Register("sqlite", func(u *url.URL) (target.Target, error) {
		path := strings.TrimPrefix(u.Path, "/")
		return New("sqlite3", path, nil)
	})
}

// SetFormatter installs f if no formatter is set yet.
func (t *Target) SetFormatter(f *format.Formatter) {
	if t.formatter.Load() == nil {
		t.formatter.Replace(f)
	}
}

// ReplaceFormatter hot-swaps the formatter.
func (t *Target) ReplaceFormatter(f *format.Formatter) { t.formatter.Replace(f) }

// ReplaceFilter hot-swaps the per-target filter.
func (t *Target) ReplaceFilter(f filter.Filter) { t.filterer.Replace(f) }

// ReplaceFlushPolicy hot-swaps the flush policy.
func (t *Target) ReplaceFlushPolicy(p filter.FlushPolicy) { t.flusher.Replace(p) }

// Start implements target.Target.
func (t *Target) Start() error { return nil }

// Stop closes the database handle.
func (t *Target) Stop() error { return t.db.Close() }

// Log implements target.Target: formats by name synchronously, then
// inserts the bound row.
func (t *Target) Log(rec *record.LogRecord) {
	if f := t.filterer.Load(); f != nil && !f.Match(rec) {
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
		return
	}
	f := t.formatter.Load()
	if f == nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	recept := t.recepts.Get().(*format.ColumnReceptor)
	recept.Reset()
	err := f.Format(rec, recept)
	row := logRow{
		Ts:       recept.Time.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		Level:    int8(recept.Level),
		Host:     recept.HostName,
		User:     recept.UserName,
		PID:      recept.ProcessID,
		Program:  recept.ProgramName,
		Source:   recept.SourceName,
		RecordID: recept.RecordID,
		Message:  recept.Message,
		Extra:    recept.Extra,
	}
	t.recepts.Put(recept)

	if err != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	t.st.AddByThread(rec.ThreadID, stats.MsgSubmitted, 1)
	if _, err := t.db.NamedExec(insertSQL, row); err != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}
	t.st.AddByThread(rec.ThreadID, stats.MsgWritten, 1)
}

// Flush implements target.Target: each insert already commits on its own.
func (t *Target) Flush() error { return nil }

// Stats implements target.Target.
func (t *Target) Stats() *stats.Stats { return t.st }

// IsCaughtUp implements target.Target: inserts are synchronous within Log.
func (t *Target) IsCaughtUp() bool { return true }
