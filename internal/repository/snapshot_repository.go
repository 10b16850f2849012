package repository

import (
	"context"
	"fmt"

	"hodl-digest/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// localDay maps a naive UTC timestamp column to its calendar date in the zone bound to $1.
func localDay(column string) string {
	return fmt.Sprintf("((%s AT TIME ZONE 'UTC') AT TIME ZONE $1)::date", column)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// latestDayQuery selects every row of table whose local day equals the most recent
// local day present in it.
func latestDayQuery(table, columns, tsColumn string, orderBy ...string) string {
	day := localDay(tsColumn)
	maxDay := mustSQL(psql.Select("MAX(" + day + ") AS d").
		From(table).
		Where(sq.NotEq{tsColumn: nil}))

	return mustSQL(psql.Select(columns).
		Prefix("WITH max_day AS (" + maxDay + ")").
		From(table).
		Where(day + " = (SELECT d FROM max_day)").
		OrderBy(orderBy...))
}

func mustSQL(b sq.SelectBuilder) string {
	query, _, err := b.ToSql()
	if err != nil {
		panic(fmt.Sprintf("build query: %v", err))
	}
	return query
}

const hodlColumns = `id, hodl_10k_addresses_count, new_accounts_via_solana, total_solana_addresses_linked,
    sol_tip_operations_count, member_tips_sent, member_tips_received, total_sol_tip_amount,
    v2ex_token_tip_count, total_v2ex_token_tip_amount, current_online_users, peak_online_users,
    holders, price, price_change_24h, btc_price, sol_price, pump_price, created_at`

const holderColumns = `id, owner_address, v2ex_username, avatar_url, token_address, token_account_address,
    hold_rank, hold_amount, decimals, hold_percentage, rank_delta`

var rankOrder = []string{"(hold_rank IS NULL) ASC", "hold_rank ASC", "hold_amount DESC", "owner_address ASC"}

var (
	hodlQuery    = latestDayQuery("v2ex_hodl", hodlColumns, "created_at", "created_at DESC")
	holdersQuery = latestDayQuery("v2exer_solana_address", holderColumns+", amount_delta, checked_at", "checked_at", rankOrder...)
	removedQuery = latestDayQuery("v2exer_solana_address_removed", holderColumns+", removed_at", "removed_at", rankOrder...)
	changesQuery = latestDayQuery("v2exer_solana_address_detail", holderColumns+", amount_delta, changed_at", "changed_at", "changed_at DESC", "owner_address ASC")
)

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SnapshotRepository reads the most recent sampling day of each table. The day is
// computed in timezone, an IANA zone name.
type SnapshotRepository struct {
	pool     PgxPool
	tracer   trace.Tracer
	timezone string
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer, timezone string) *SnapshotRepository {
	if timezone == "" {
		timezone = "UTC"
	}
	return &SnapshotRepository{pool: pool, tracer: tracer, timezone: timezone}
}

func (r *SnapshotRepository) LatestHodlSnapshots(ctx context.Context) ([]domain.AggregateSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.latest-hodl")
	defer span.End()

	rows, err := r.pool.Query(ctx, hodlQuery, r.timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggregateSnapshot
	for rows.Next() {
		var s domain.AggregateSnapshot
		if err := rows.Scan(
			&s.ID, &s.Hodl10kAddressesCount, &s.NewAccountsViaSolana, &s.TotalSolanaAddressesLinked,
			&s.SolTipOperationsCount, &s.MemberTipsSent, &s.MemberTipsReceived, &s.TotalSolTipAmount,
			&s.V2exTokenTipCount, &s.TotalV2exTokenTipAmount, &s.CurrentOnlineUsers, &s.PeakOnlineUsers,
			&s.Holders, &s.Price, &s.PriceChange24h, &s.BTCPrice, &s.SOLPrice, &s.PumpPrice, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, rows.Err()
}

func (r *SnapshotRepository) LatestHolders(ctx context.Context) ([]domain.HolderRecord, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.latest-holders")
	defer span.End()

	rows, err := r.pool.Query(ctx, holdersQuery, r.timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HolderRecord
	for rows.Next() {
		var h domain.HolderRecord
		if err := rows.Scan(append(holderDest(&h.Holder), &h.AmountDelta, &h.CheckedAt)...); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, rows.Err()
}

func (r *SnapshotRepository) LatestRemovedHolders(ctx context.Context) ([]domain.RemovedHolderRecord, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.latest-removed-holders")
	defer span.End()

	rows, err := r.pool.Query(ctx, removedQuery, r.timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RemovedHolderRecord
	for rows.Next() {
		var h domain.RemovedHolderRecord
		if err := rows.Scan(append(holderDest(&h.Holder), &h.RemovedAt)...); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, rows.Err()
}

func (r *SnapshotRepository) LatestHolderChanges(ctx context.Context) ([]domain.HolderChangeEvent, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot-repo.latest-holder-changes")
	defer span.End()

	rows, err := r.pool.Query(ctx, changesQuery, r.timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HolderChangeEvent
	for rows.Next() {
		var e domain.HolderChangeEvent
		if err := rows.Scan(append(holderDest(&e.Holder), &e.AmountDelta, &e.ChangedAt)...); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, rows.Err()
}

// holderDest returns scan targets in holderColumns order.
func holderDest(h *domain.Holder) []any {
	return []any{
		&h.ID, &h.OwnerAddress, &h.Username, &h.AvatarURL, &h.TokenAddress, &h.TokenAccountAddress,
		&h.Rank, &h.Amount, &h.Decimals, &h.Percentage, &h.RankDelta,
	}
}
