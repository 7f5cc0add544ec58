package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsCommitted *prometheus.CounterVec
	TransactionAmount     prometheus.Histogram
	CommitDuration        prometheus.Histogram
	CommitAttempts        prometheus.Histogram
	IdempotentReplays     prometheus.Counter
	VersionConflicts      prometheus.Counter
	InsufficientFunds     prometheus.Counter
	RetriesExhausted      prometheus.Counter

	// Wallet metrics
	WalletsProvisioned  prometheus.Counter
	WalletStatusChanges *prometheus.CounterVec
	BalanceCacheHits    prometheus.Counter
	BalanceCacheMisses  prometheus.Counter

	// Integrity metrics
	ChainVerifications *prometheus.CounterVec
	ChainLength        prometheus.Histogram

	// Outbox metrics
	OutboxPublished     prometheus.Counter
	OutboxPublishErrors prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsCommitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_transactions_committed_total",
				Help: "Total number of committed ledger transactions",
			},
			[]string{"direction", "account_type"},
		),
		TransactionAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_transaction_amount",
			Help:    "Committed transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		CommitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_commit_duration_seconds",
			Help:    "Duration of ledger operations including retries",
			Buckets: prometheus.DefBuckets,
		}),
		CommitAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_commit_attempts",
			Help:    "Number of commit attempts per accepted operation",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		IdempotentReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_idempotent_replays_total",
			Help: "Total requests answered from the idempotency index",
		}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_version_conflicts_total",
			Help: "Total optimistic-concurrency conflicts during commit",
		}),
		InsufficientFunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_insufficient_funds_total",
			Help: "Total debits rejected for insufficient funds",
		}),
		RetriesExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_retries_exhausted_total",
			Help: "Total operations abandoned after exhausting commit retries",
		}),

		WalletsProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_wallets_provisioned_total",
			Help: "Total wallets provisioned",
		}),
		WalletStatusChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_wallet_status_changes_total",
				Help: "Total wallet status transitions",
			},
			[]string{"status"},
		),
		BalanceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_balance_cache_hits_total",
			Help: "Total balance reads served from cache",
		}),
		BalanceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_balance_cache_misses_total",
			Help: "Total balance reads that fell through to the store",
		}),

		ChainVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_chain_verifications_total",
				Help: "Total hash-chain verifications by result",
			},
			[]string{"result"},
		),
		ChainLength: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_chain_length",
			Help:    "Number of records walked per verification",
			Buckets: []float64{10, 100, 1000, 10000, 100000},
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_outbox_publish_errors_total",
			Help: "Total outbox publish failures",
		}),
	}
}
