package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photo-ingest/internal/logging"
	"photo-ingest/internal/metrics"
)

// ErrQuotaExceeded is returned by Reserve when the requested delta does not
// fit within the account's remaining budget. It aborts only the current
// item; the pipeline continues with the next candidate.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrNoQuotaAccount is returned when the owner has no quota account row.
var ErrNoQuotaAccount = errors.New("no quota account")

// EnsureAccount creates a quota account with the given limit if the owner
// does not already have one. An existing account keeps its current limit and
// usage.
func (c *Catalog) EnsureAccount(ctx context.Context, owner string, limitBytes int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("ensure_account", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO quota_accounts (owner, used_bytes, limit_bytes) VALUES (?, 0, ?)",
		owner, limitBytes,
	)
	return err
}

// Reserve atomically charges delta bytes against the owner's budget.
//
// The read-verify-increment happens inside one conditional UPDATE, so two
// sessions racing on the same account can never both pass a stale "room
// available" check: the database serializes the statements and the second
// one sees the first one's increment. Zero rows affected means the delta
// did not fit (ErrQuotaExceeded) or the account is missing
// (ErrNoQuotaAccount).
func (c *Catalog) Reserve(ctx context.Context, owner string, delta int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("quota_reserve", start, err) }()

	if delta < 0 {
		err = fmt.Errorf("negative reservation delta %d", delta)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := c.db.ExecContext(ctx, `
		UPDATE quota_accounts
		SET used_bytes = used_bytes + ?, updated_at = strftime('%s', 'now')
		WHERE owner = ? AND used_bytes + ? <= limit_bytes`,
		delta, owner, delta,
	)
	if execErr != nil {
		err = execErr
		return fmt.Errorf("quota reserve failed: %w", execErr)
	}

	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		err = rowsErr
		return rowsErr
	}
	if rows > 0 {
		metrics.QuotaReservationsTotal.WithLabelValues("reserved").Inc()
		metrics.QuotaReservedBytes.Add(float64(delta))
		logging.Debug("Reserved %d bytes for %s", delta, owner)
		return nil
	}

	// Distinguish a full budget from a missing account.
	var one int
	scanErr := c.db.QueryRowContext(ctx,
		"SELECT 1 FROM quota_accounts WHERE owner = ?", owner).Scan(&one)
	if errors.Is(scanErr, sql.ErrNoRows) {
		err = ErrNoQuotaAccount
		return ErrNoQuotaAccount
	}
	if scanErr != nil {
		err = scanErr
		return scanErr
	}

	metrics.QuotaReservationsTotal.WithLabelValues("rejected").Inc()
	err = ErrQuotaExceeded
	return ErrQuotaExceeded
}

// Release is the compensating decrement for a reservation whose item failed
// after reserving. The floor at zero keeps a double release from driving
// usage negative.
func (c *Catalog) Release(ctx context.Context, owner string, delta int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("quota_release", start, err) }()

	if delta < 0 {
		err = fmt.Errorf("negative release delta %d", delta)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx, `
		UPDATE quota_accounts
		SET used_bytes = CASE WHEN used_bytes >= ? THEN used_bytes - ? ELSE 0 END,
		    updated_at = strftime('%s', 'now')
		WHERE owner = ?`,
		delta, delta, owner,
	)
	if err != nil {
		return fmt.Errorf("quota release failed: %w", err)
	}

	metrics.QuotaReservationsTotal.WithLabelValues("released").Inc()
	metrics.QuotaReservedBytes.Sub(float64(delta))
	logging.Debug("Released %d bytes for %s", delta, owner)
	return nil
}

// QuotaUsage returns the owner's current usage and limit.
func (c *Catalog) QuotaUsage(ctx context.Context, owner string) (*QuotaAccount, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("quota_usage", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	account := &QuotaAccount{Owner: owner}
	err = c.db.QueryRowContext(ctx,
		"SELECT used_bytes, limit_bytes FROM quota_accounts WHERE owner = ?", owner,
	).Scan(&account.UsedBytes, &account.LimitBytes)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoQuotaAccount
		return nil, ErrNoQuotaAccount
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetQuotaLimit changes an account's limit. A limit below current usage is
// rejected since it would break the account invariant.
func (c *Catalog) SetQuotaLimit(ctx context.Context, owner string, limitBytes int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("quota_set_limit", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := c.db.ExecContext(ctx, `
		UPDATE quota_accounts
		SET limit_bytes = ?, updated_at = strftime('%s', 'now')
		WHERE owner = ? AND used_bytes <= ?`,
		limitBytes, owner, limitBytes,
	)
	if execErr != nil {
		err = execErr
		return execErr
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		err = rowsErr
		return rowsErr
	}
	if rows == 0 {
		account, usageErr := c.QuotaUsage(ctx, owner)
		if usageErr != nil {
			err = usageErr
			return usageErr
		}
		err = fmt.Errorf("limit %d below current usage %d for %s", limitBytes, account.UsedBytes, owner)
		return err
	}
	return nil
}

// ResetUsed zeroes an account's usage counter. Administrative operation for
// rebuilding accounting after a catalog restore; never called by the pipeline.
func (c *Catalog) ResetUsed(ctx context.Context, owner string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("quota_reset_used", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx,
		"UPDATE quota_accounts SET used_bytes = 0, updated_at = strftime('%s', 'now') WHERE owner = ?",
		owner,
	)
	return err
}
