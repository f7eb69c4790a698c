package usecase_test

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/usecase"
)

var january = domain.TransactionPeriod{Year: 2025, Month: 1}

func fixtureTransactions() []domain.Transaction {
	return []domain.Transaction{
		{
			Date:          "15/01/2025",
			Description:   "GROCERY STORE - NEW YORK NY",
			CardMember:    "John Doe",
			AccountNumber: "-1234",
			Amount:        decimal.RequireFromString("-125.50"),
		},
		{
			Date:          "16/01/2025",
			Description:   "RESTAURANT - BROOKLYN NY",
			CardMember:    "Jane Doe",
			AccountNumber: "-5678",
			Amount:        decimal.RequireFromString("-45.00"),
		},
		{
			Date:          "17/01/2025",
			Description:   "PAYMENT RECEIVED - THANK YOU",
			CardMember:    "John Doe",
			AccountNumber: "-1234",
			Amount:        decimal.RequireFromString("500.00"),
		},
	}
}

func newQuery(api usecase.TransactionAPI) *usecase.TransactionQuery {
	return usecase.NewTransactionQuery(usecase.TransactionQueryConfig{
		API:        api,
		Retries:    usecase.DefaultQueryRetries,
		RetryDelay: time.Millisecond,
		Logger:     zerolog.Nop(),
	})
}
