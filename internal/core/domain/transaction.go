package domain

import "time"

// Transaction is a journal entry: the single authoritative record of one
// settlement. USDAmount is signed: positive for incoming buy funding,
// negative for outgoing sell proceeds. Complete is monotonic: once true it
// never reverts, and a completed transaction is never settled again.
type Transaction struct {
	ID           int64      `json:"id"`
	USDAmount    float64    `json:"usd_amount"`
	UserID       int64      `json:"user_id"`
	ClientID     int64      `json:"client_id"`
	DedupeKey    *string    `json:"dedupe_key,omitempty"`
	Complete     bool       `json:"complete"`
	IncTime      time.Time  `json:"inc_time"`
	CompleteTime *time.Time `json:"complete_time,omitempty"`
}

// MatchesExpectation reports whether the journal entry carries the amount
// and user the caller expects. Used by the buy path to distinguish "wrong
// transaction" from "right transaction, already used".
func (t *Transaction) MatchesExpectation(usdAmount float64, userID int64) bool {
	return t.USDAmount == usdAmount && t.UserID == userID
}

// MarkComplete transitions the entry to its terminal state. Must be the last
// mutation of a successful settlement.
func (t *Transaction) MarkComplete(now time.Time) {
	t.Complete = true
	t.CompleteTime = &now
}
