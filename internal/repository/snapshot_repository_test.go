package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeRows struct {
	data    [][]any
	idx     int
	scanErr error
	err     error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.idx-1], nil }

// Scan copies the current row into dest, which must match column types exactly.
func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, v := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

type fakePool struct {
	rows     *fakeRows
	err      error
	lastSQL  string
	lastArgs []any
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.lastSQL = sql
	p.lastArgs = args
	if p.err != nil {
		return nil, p.err
	}
	return p.rows, nil
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64 { return &v }

func holderRow(id int64, owner string, username *string, rank *int64, amount int64) []any {
	return []any{id, owner, username, (*string)(nil), "token", (*string)(nil), rank, amount, int32(6), 1.5, i64Ptr(-1)}
}

func TestLatestHodlSnapshots(t *testing.T) {
	at := time.Date(2025, 3, 1, 15, 58, 0, 0, time.UTC)
	row := []any{
		int64(7), int64(56), int64(3), int64(900),
		int64(11), int64(22), int64(33), 4.5,
		int64(44), 5.5, int64(300), int64(800),
		int64(1234), 0.0012, -3.5, 61000.5, 150.25, 0.0056, at,
	}
	pool := &fakePool{rows: &fakeRows{data: [][]any{row}}}
	repo := NewSnapshotRepository(pool, testTracer, "Asia/Shanghai")

	got, err := repo.LatestHodlSnapshots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(got))
	}
	s := got[0]
	if s.ID != 7 || s.Holders != 1234 || s.PeakOnlineUsers != 800 || s.PumpPrice != 0.0056 || !s.CreatedAt.Equal(at) {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if len(pool.lastArgs) != 1 || pool.lastArgs[0] != "Asia/Shanghai" {
		t.Fatalf("expected timezone argument, got %v", pool.lastArgs)
	}
	if !strings.Contains(pool.lastSQL, "FROM v2ex_hodl") || !strings.Contains(pool.lastSQL, "ORDER BY created_at DESC") {
		t.Fatalf("unexpected query: %s", pool.lastSQL)
	}
	if !strings.Contains(pool.lastSQL, "((created_at AT TIME ZONE 'UTC') AT TIME ZONE $1)::date") {
		t.Fatalf("query should bucket by local day: %s", pool.lastSQL)
	}
	if !pool.rows.closed {
		t.Fatal("rows should be closed")
	}
}

func TestLatestHolders(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := append(holderRow(1, "A", strPtr("livid"), i64Ptr(1), 500), i64Ptr(20), at)
	b := append(holderRow(2, "B", nil, nil, 10), (*int64)(nil), at)
	pool := &fakePool{rows: &fakeRows{data: [][]any{a, b}}}

	got, err := NewSnapshotRepository(pool, testTracer, "").LatestHolders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(got))
	}
	if *got[0].Username != "livid" || *got[0].Rank != 1 || *got[0].AmountDelta != 20 || got[0].Decimals != 6 {
		t.Fatalf("unexpected first holder: %+v", got[0])
	}
	if got[1].Rank != nil || got[1].Username != nil || got[1].AmountDelta != nil {
		t.Fatalf("nullable columns should stay nil: %+v", got[1])
	}
	if pool.lastArgs[0] != "UTC" {
		t.Fatalf("empty timezone should default to UTC, got %v", pool.lastArgs[0])
	}
	if !strings.Contains(pool.lastSQL, "ORDER BY (hold_rank IS NULL) ASC, hold_rank ASC, hold_amount DESC, owner_address ASC") {
		t.Fatalf("unexpected ordering: %s", pool.lastSQL)
	}
}

func TestLatestRemovedHolders(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: &fakeRows{data: [][]any{append(holderRow(3, "C", nil, i64Ptr(9), 77), at)}}}

	got, err := NewSnapshotRepository(pool, testTracer, "UTC").LatestRemovedHolders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OwnerAddress != "C" || !got[0].RemovedAt.Equal(at) {
		t.Fatalf("unexpected removed holders: %+v", got)
	}
	if !strings.Contains(pool.lastSQL, "FROM v2exer_solana_address_removed") {
		t.Fatalf("unexpected query: %s", pool.lastSQL)
	}
}

func TestLatestHolderChanges(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: &fakeRows{data: [][]any{
		append(holderRow(4, "D", nil, i64Ptr(2), 100), i64Ptr(-5), at),
	}}}

	got, err := NewSnapshotRepository(pool, testTracer, "UTC").LatestHolderChanges(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || *got[0].AmountDelta != -5 || *got[0].RankDelta != -1 || !got[0].ChangedAt.Equal(at) {
		t.Fatalf("unexpected change events: %+v", got)
	}
	if !strings.Contains(pool.lastSQL, "ORDER BY changed_at DESC, owner_address ASC") {
		t.Fatalf("unexpected ordering: %s", pool.lastSQL)
	}
}

func TestSnapshotRepositoryEmptyDay(t *testing.T) {
	pool := &fakePool{rows: &fakeRows{}}
	got, err := NewSnapshotRepository(pool, testTracer, "UTC").LatestHolderChanges(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for an empty table, got %v, %v", got, err)
	}
}

func TestSnapshotRepositoryPropagatesErrors(t *testing.T) {
	queryErr := errors.New("connection refused")
	repo := NewSnapshotRepository(&fakePool{err: queryErr}, testTracer, "UTC")
	if _, err := repo.LatestHodlSnapshots(context.Background()); !errors.Is(err, queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}

	scanErr := errors.New("bad column")
	repo = NewSnapshotRepository(&fakePool{rows: &fakeRows{data: [][]any{{}}, scanErr: scanErr}}, testTracer, "UTC")
	if _, err := repo.LatestHolders(context.Background()); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}

	rowsErr := errors.New("stream reset")
	repo = NewSnapshotRepository(&fakePool{rows: &fakeRows{err: rowsErr}}, testTracer, "UTC")
	if _, err := repo.LatestRemovedHolders(context.Background()); !errors.Is(err, rowsErr) {
		t.Fatalf("expected rows error, got %v", err)
	}
}

func TestLatestDayQueryShape(t *testing.T) {
	q := latestDayQuery("v2ex_hodl", "id, created_at", "created_at", "created_at DESC")
	for _, part := range []string{
		"WITH max_day AS (SELECT MAX(((created_at AT TIME ZONE 'UTC') AT TIME ZONE $1)::date) AS d FROM v2ex_hodl WHERE created_at IS NOT NULL)",
		"SELECT id, created_at FROM v2ex_hodl WHERE ((created_at AT TIME ZONE 'UTC') AT TIME ZONE $1)::date = (SELECT d FROM max_day)",
		"ORDER BY created_at DESC",
	} {
		if !strings.Contains(q, part) {
			t.Fatalf("query missing %q:\n%s", part, q)
		}
	}
	if strings.Contains(q, "?") || strings.Contains(q, "$2") {
		t.Fatalf("query should bind only the timezone: %s", q)
	}
}
