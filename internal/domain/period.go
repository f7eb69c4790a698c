package domain

import "fmt"

// TransactionPeriod identifies a calendar month of transactions.
type TransactionPeriod struct {
	Year  int
	Month int
}

// NewTransactionPeriod creates a validated period.
func NewTransactionPeriod(year, month int) (TransactionPeriod, error) {
	p := TransactionPeriod{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return TransactionPeriod{}, err
	}
	return p, nil
}

// Validate checks the year and month ranges.
func (p TransactionPeriod) Validate() error {
	if p.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	return nil
}

// String returns the period as YYYY-MM.
func (p TransactionPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
