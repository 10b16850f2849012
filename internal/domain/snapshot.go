package domain

import "time"

// AggregateSnapshot is one sampling tick of community and price metrics (table v2ex_hodl).
type AggregateSnapshot struct {
	ID                         int64     `json:"id"`
	Hodl10kAddressesCount      int64     `json:"hodl_10k_addresses_count"`
	NewAccountsViaSolana       int64     `json:"new_accounts_via_solana"`
	TotalSolanaAddressesLinked int64     `json:"total_solana_addresses_linked"`
	SolTipOperationsCount      int64     `json:"sol_tip_operations_count"`
	MemberTipsSent             int64     `json:"member_tips_sent"`
	MemberTipsReceived         int64     `json:"member_tips_received"`
	TotalSolTipAmount          float64   `json:"total_sol_tip_amount"`
	V2exTokenTipCount          int64     `json:"v2ex_token_tip_count"`
	TotalV2exTokenTipAmount    float64   `json:"total_v2ex_token_tip_amount"`
	CurrentOnlineUsers         int64     `json:"current_online_users"`
	PeakOnlineUsers            int64     `json:"peak_online_users"`
	Holders                    int64     `json:"holders"`
	Price                      float64   `json:"price"`
	PriceChange24h             float64   `json:"price_change_24h"`
	BTCPrice                   float64   `json:"btc_price"`
	SOLPrice                   float64   `json:"sol_price"`
	PumpPrice                  float64   `json:"pump_price"`
	CreatedAt                  time.Time `json:"created_at"`
}

// Holder carries the columns shared by every holder table.
// Rank, RankDelta and AmountDelta are nil when there is no ranking or no prior comparison.
type Holder struct {
	ID                  int64   `json:"id"`
	OwnerAddress        string  `json:"owner_address"`
	Username            *string `json:"v2ex_username,omitempty"`
	AvatarURL           *string `json:"avatar_url,omitempty"`
	TokenAddress        string  `json:"token_address"`
	TokenAccountAddress *string `json:"token_account_address,omitempty"`
	Rank                *int64  `json:"hold_rank,omitempty"`
	Amount              int64   `json:"hold_amount"`
	Decimals            int32   `json:"decimals"`
	Percentage          float64 `json:"hold_percentage"`
	RankDelta           *int64  `json:"rank_delta,omitempty"`
}

// HolderRecord is the current ranking row of one owner (table v2exer_solana_address).
type HolderRecord struct {
	Holder
	AmountDelta *int64    `json:"amount_delta,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// RemovedHolderRecord is an owner that dropped out of the tracked set.
type RemovedHolderRecord struct {
	Holder
	RemovedAt time.Time `json:"removed_at"`
}

// HolderChangeEvent is one detected rank/amount change (table v2exer_solana_address_detail).
type HolderChangeEvent struct {
	Holder
	AmountDelta *int64    `json:"amount_delta,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

// LatestSnapshot returns the snapshot with the greatest CreatedAt, first one on ties.
func LatestSnapshot(rows []AggregateSnapshot) (AggregateSnapshot, bool) {
	if len(rows) == 0 {
		return AggregateSnapshot{}, false
	}
	latest := rows[0]
	for _, r := range rows[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, true
}
