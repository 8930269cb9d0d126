package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// Interest entries are marked by this category/description pair. The
// description doubles as the idempotency key: at most one row with it may
// exist per accrual date.
const (
	InterestCategory    = "Interest"
	InterestDescription = "Maribank Interest"
)

// MariBank tiered daily interest schedule: 3.25% p.a. on the first million,
// 3.75% p.a. on the excess, 20% withholding tax deducted before crediting.
const (
	tierLimit      = 1_000_000.0
	tier1Rate      = 0.0325
	tier2Rate      = 0.0375
	withholdingTax = 0.20
	daysPerYear    = 365
	minimumCredit  = 0.01
)

// DailyInterest returns one day's net interest for the given balance,
// rounded to currency granularity once, after tax. A non-positive balance
// earns nothing.
func DailyInterest(balance float64) float64 {
	if balance <= 0 {
		return 0
	}

	var gross float64
	if balance <= tierLimit {
		gross = balance * tier1Rate / daysPerYear
	} else {
		gross = tierLimit*tier1Rate/daysPerYear + (balance-tierLimit)*tier2Rate/daysPerYear
	}

	net := gross * (1 - withholdingTax)
	return math.Round(net*100) / 100
}

// Accrue backfills daily interest for every calendar day since the last
// logged interest entry, up to and including today, and returns the number
// of entries added. Each day's interest is computed from the running total
// as of that day; interest credited earlier in the same pass compounds into
// the principal for later days. One recalculation runs after the whole
// batch. On a ledger with no prior interest entry only today is considered,
// so a fresh ledger never accrues retroactively.
//
// Accrual is best-effort background maintenance: callers log the returned
// error and carry on, and the next invocation retries naturally.
func (l *Ledger) Accrue(ctx context.Context, today time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today = truncateDay(today)

	rows, err := l.store.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan ledger history: %w", err)
	}

	start := today
	if last, ok, err := lastInterestDate(rows); err != nil {
		return 0, err
	} else if ok {
		start = last.AddDate(0, 0, 1)
	}
	if start.After(today) {
		return 0, nil
	}

	var (
		running float64
		added   int
		idx     int
	)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		// Fold in every row dated on or before this day. Rows are already
		// in (date, id) order, so a single advancing index suffices.
		for idx < len(rows) {
			rowDate, dateErr := rows[idx].DateValue()
			if dateErr != nil {
				return added, fmt.Errorf("row %d has malformed date %q: %w", rows[idx].ID, rows[idx].Date, dateErr)
			}
			if rowDate.After(day) {
				break
			}
			running += rows[idx].DeltaEJ() + rows[idx].DeltaShared()
			idx++
		}

		net := DailyInterest(running)
		if net < minimumCredit {
			continue
		}

		entry := &model.Transaction{
			Date:           day.Format(model.DateLayout),
			Time:           model.NowDisplay(),
			Category:       InterestCategory,
			Description:    InterestDescription,
			IncomingShared: net,
		}
		if _, err := l.addEntry(ctx, entry, false); err != nil {
			return added, fmt.Errorf("failed to log interest for %s: %w", entry.Date, err)
		}
		running += net
		added++
		slog.Info("Logged daily interest", "date", entry.Date, "net", net)
	}

	if added > 0 {
		if _, err := l.recalculate(ctx); err != nil {
			return added, err
		}
	}
	return added, nil
}

// AccrueToday is the cheap single-day path used on page load: one exact
// existence probe, and at most one entry computed off the latest known
// total. Output for any given date is identical to the backfill path.
func (l *Ledger) AccrueToday(ctx context.Context, today time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := truncateDay(today).Format(model.DateLayout)

	exists, err := l.store.EntryExists(ctx, date, InterestDescription)
	if err != nil {
		return 0, fmt.Errorf("failed to probe for existing interest: %w", err)
	}
	if exists {
		return 0, nil
	}

	ejBalance, sharedBalance, err := l.store.LastBalances(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read last balances: %w", err)
	}

	net := DailyInterest(ejBalance + sharedBalance)
	if net < minimumCredit {
		return 0, nil
	}

	entry := &model.Transaction{
		Date:           date,
		Time:           model.NowDisplay(),
		Category:       InterestCategory,
		Description:    InterestDescription,
		IncomingShared: net,
	}
	if _, err := l.addEntry(ctx, entry, true); err != nil {
		return 0, fmt.Errorf("failed to log interest for %s: %w", date, err)
	}
	slog.Info("Logged daily interest", "date", date, "net", net)
	return 1, nil
}

// lastInterestDate finds the most recent date an interest entry was logged.
func lastInterestDate(rows []model.Transaction) (time.Time, bool, error) {
	var (
		last  time.Time
		found bool
	)
	for i := range rows {
		if rows[i].Description != InterestDescription {
			continue
		}
		d, err := rows[i].DateValue()
		if err != nil {
			return time.Time{}, false, fmt.Errorf("interest row %d has malformed date %q: %w", rows[i].ID, rows[i].Date, err)
		}
		if !found || d.After(last) {
			last = d
			found = true
		}
	}
	return last, found, nil
}

// truncateDay reduces an instant to its calendar date in the reporting
// timezone, represented as a UTC midnight so it compares cleanly against
// parsed row dates.
func truncateDay(t time.Time) time.Time {
	date := t.In(model.ReportingLocation()).Format(model.DateLayout)
	day, _ := time.ParseInLocation(model.DateLayout, date, time.UTC)
	return day
}
