package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cartel-index-system/models"
)

// ErrUnknownTopic marks a log whose topic is not in the registry. These are
// skipped silently: future contract versions emit topics we don't know yet.
var ErrUnknownTopic = errors.New("unknown log topic")

// ErrDecode marks a recognized topic whose payload is malformed. The log is
// skipped and reported, never fatal, and never passed inward partially typed.
var ErrDecode = errors.New("malformed chain log")

// topicKinds maps the contract's event topic hashes to domain event kinds.
var topicKinds = map[string]models.EventKind{
	"0x8fb5c91d62c3a3b1f3a940bcb9ebb64e0babcbb13f4b4c0e7b16ddc7c1ed55a1": models.EventKindRaid,
	"0x2d67bb91f17b5b21f1a64a3a6aab1cfa8e3826c5a5f22f0747cbb0ac34dbd9d7": models.EventKindHighStakesRaid,
	"0xba8de60c3403ec381d1d484652ea124c2f0bd60c02237f81bb86493c9f5a471e": models.EventKindClaim,
	"0x6ce200c9e0a1e4e1832b2dc1d603cf0e6a26c3ee89dbcfc889a9f8b5ee0c0df4": models.EventKindJoin,
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": models.EventKindTransfer,
	"0x4d72fe0577a3a3f7da968d7b892779dde102519c25527b29cf7054f245c791b9": models.EventKindSharePurchase,
}

// TopicFor returns the topic hash that decodes to kind, or "" when no
// contract event maps to it. Handy for replay tooling and fixtures.
func TopicFor(kind models.EventKind) string {
	for topic, k := range topicKinds {
		if k == kind {
			return topic
		}
	}
	return ""
}

// logPayload is the raw decoded data section. Pointers distinguish absent
// fields from zero values so required-field checks can fail closed.
type logPayload struct {
	Actor     string   `json:"actor"`
	Target    string   `json:"target"`
	Fee       *float64 `json:"fee"`
	Shares    *float64 `json:"shares"`
	Amount    *float64 `json:"amount"`
	Timestamp int64    `json:"timestamp"`
}

// DecodeLog maps one raw log to exactly one typed domain event. It is a pure
// function: no I/O, no side effects. Field requirements per kind fail closed
// with ErrDecode rather than letting partially-typed data past the boundary.
func DecodeLog(raw RawLog) (*models.ChainEvent, error) {
	kind, ok := topicKinds[raw.Topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, raw.Topic)
	}
	if raw.TxHash == "" {
		return nil, fmt.Errorf("%w: missing tx hash (topic %s)", ErrDecode, raw.Topic)
	}

	var p logPayload
	if err := json.Unmarshal(raw.Data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if p.Actor == "" {
		return nil, fmt.Errorf("%w: %s log %s missing actor", ErrDecode, kind, raw.TxHash)
	}
	if p.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: %s log %s missing timestamp", ErrDecode, kind, raw.TxHash)
	}

	ev := &models.ChainEvent{
		TxHash:      raw.TxHash,
		LogIndex:    raw.LogIndex,
		Kind:        kind,
		BlockNumber: raw.BlockNumber,
		Actor:       models.NormalizeAddress(p.Actor),
		BlockTime:   time.Unix(p.Timestamp, 0).UTC(),
	}
	if p.Target != "" {
		ev.Counterparty = models.NormalizeAddress(p.Target)
	}
	if p.Fee != nil {
		ev.FeePaid = *p.Fee
	}
	if p.Shares != nil {
		ev.SharesMoved = *p.Shares
	}
	if p.Amount != nil {
		ev.Amount = *p.Amount
	}

	switch kind {
	case models.EventKindRaid, models.EventKindHighStakesRaid:
		if ev.Counterparty == "" || p.Shares == nil {
			return nil, fmt.Errorf("%w: raid log %s missing target or shares", ErrDecode, raw.TxHash)
		}
	case models.EventKindClaim:
		if p.Amount == nil {
			return nil, fmt.Errorf("%w: claim log %s missing amount", ErrDecode, raw.TxHash)
		}
	case models.EventKindTransfer, models.EventKindSharePurchase:
		if ev.Counterparty == "" || p.Amount == nil {
			return nil, fmt.Errorf("%w: %s log %s missing target or amount", ErrDecode, kind, raw.TxHash)
		}
	}

	return ev, nil
}
