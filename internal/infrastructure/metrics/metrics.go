package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger operation counters. HTTP-level metrics live in the router
// middleware; these track the bookkeeping operations themselves.
var (
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_entries_created_total",
		Help: "Total number of journal entries created",
	})

	EntriesModified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_entries_modified_total",
		Help: "Total number of journal entries modified",
	})

	EntriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_entries_deleted_total",
		Help: "Total number of journal entries soft-deleted",
	})

	TransferPairsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_transfer_pairs_created_total",
		Help: "Total number of cross-currency transfer pairs created",
	})

	AccountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_accounts_created_total",
		Help: "Total number of accounts created",
	})

	WriteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_write_conflicts_total",
		Help: "Total number of mutations rejected on version conflict",
	})

	RebuildsRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_rebuilds_total",
		Help: "Total number of full balance rebuilds",
	})

	BalanceDriftDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookkeeper_balance_drift_detected_total",
		Help: "Total number of accounts found drifted by verify",
	})
)
