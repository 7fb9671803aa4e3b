package expense

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	expensesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneysplitter_expenses_created_total",
		Help: "Number of expenses successfully created.",
	})

	expensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneysplitter_expenses_deleted_total",
		Help: "Number of expenses deleted.",
	})

	paymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneysplitter_payments_confirmed_total",
		Help: "Number of external payments verified as succeeded.",
	})

	paymentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneysplitter_payments_rejected_total",
		Help: "Number of external payments rejected for a non-succeeded status.",
	})

	ledgerRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneysplitter_ledger_records_total",
		Help: "Ledger enrichment attempts by outcome.",
	}, []string{"result"})
)
