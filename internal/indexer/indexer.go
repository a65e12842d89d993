// Package indexer classifies on-chain program logs and forwards relevant events
// to the compliance engine.
package indexer

import (
	"context"
	"strings"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
)

// Kind is the classification of a transaction's logs.
type Kind string

const (
	KindUnknown  Kind = "unknown"
	KindSeize    Kind = "seize"
	KindMint     Kind = "mint"
	KindBurn     Kind = "burn"
	KindTransfer Kind = "transfer"
)

// Instruction markers searched for in log lines, in priority order.
var markers = []struct {
	marker string
	kind   Kind
}{
	{"Instruction: SeizeFunds", KindSeize},
	{"Instruction: MintTo", KindMint},
	{"Instruction: Burn", KindBurn},
	{"Instruction: Transfer", KindTransfer},
}

// Classify returns the highest-priority instruction found in logs.
func Classify(logs []string) Kind {
	for _, m := range markers {
		for _, line := range logs {
			if strings.Contains(line, m.marker) {
				return m.kind
			}
		}
	}
	return KindUnknown
}

// Compliance is the subset of the compliance engine the indexer drives.
type Compliance interface {
	LogComplianceEvent(action audit.Action, details string) audit.Entry
	MonitorSuspiciousActivity(ctx context.Context, signature string) bool
}

// Indexer routes classified transactions to the compliance engine.
type Indexer struct {
	compliance Compliance
	log        *logging.Logger
	metrics    *metrics.Metrics
}

func New(c Compliance, log *logging.Logger, m *metrics.Metrics) *Indexer {
	if log == nil {
		log = logging.NewDefault("indexer")
	}
	return &Indexer{compliance: c, log: log, metrics: m}
}

// ProcessSignature handles one observed transaction.
func (ix *Indexer) ProcessSignature(ctx context.Context, signature string, logs []string) Kind {
	kind := Classify(logs)
	entry := ix.log.WithContext(ctx).WithField("signature", signature)

	switch kind {
	case KindSeize:
		ix.compliance.LogComplianceEvent(audit.ActionSeize, signature)
	case KindMint:
		entry.Info("mint event detected")
	case KindBurn:
		entry.Info("burn event detected")
	case KindTransfer:
		entry.Info("transfer event detected")
		ix.compliance.MonitorSuspiciousActivity(ctx, signature)
	default:
		return kind
	}
	ix.metrics.RecordIndexerEvent(string(kind))
	return kind
}
