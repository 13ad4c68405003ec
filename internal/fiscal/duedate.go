package fiscal

import "github.com/angelmondragon/fiscal-ledger/pkg/types"

// DueDate adds calendar days to issue. There is no business-day or holiday
// adjustment.
func DueDate(issue types.Date, days int) types.Date {
	return issue.AddDays(days)
}

// DefaultDueDate applies the configured payment term.
func (c *Calculator) DefaultDueDate(issue types.Date) types.Date {
	return DueDate(issue, c.consts.DefaultPaymentDays)
}
