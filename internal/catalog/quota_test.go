package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"photo-ingest/internal/metrics"
)

func TestEnsureAccountIdempotent(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 400); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// A second EnsureAccount must not reset usage or change the limit.
	if err := c.EnsureAccount(ctx, "alice", 9999); err != nil {
		t.Fatalf("second EnsureAccount() error = %v", err)
	}

	account, err := c.QuotaUsage(ctx, "alice")
	if err != nil {
		t.Fatalf("QuotaUsage() error = %v", err)
	}
	if account.UsedBytes != 400 {
		t.Errorf("UsedBytes = %d, want 400", account.UsedBytes)
	}
	if account.LimitBytes != 1000 {
		t.Errorf("LimitBytes = %d, want 1000", account.LimitBytes)
	}
}

func TestReserveAndRelease(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}

	if err := c.Reserve(ctx, "alice", 600); err != nil {
		t.Fatalf("Reserve(600) error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 400); err != nil {
		t.Fatalf("Reserve(400) error = %v", err)
	}

	// Budget is now exactly full.
	if err := c.Reserve(ctx, "alice", 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Reserve(1) on full budget error = %v, want ErrQuotaExceeded", err)
	}

	if err := c.Release(ctx, "alice", 400); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 400); err != nil {
		t.Errorf("Reserve() after release error = %v, want nil", err)
	}
}

func TestReserveZeroDelta(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 100); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 100); err != nil {
		t.Fatalf("Reserve(100) error = %v", err)
	}
	// Zero-byte reservations always fit, even at a full budget.
	if err := c.Reserve(ctx, "alice", 0); err != nil {
		t.Errorf("Reserve(0) error = %v, want nil", err)
	}
}

func TestReserveNoAccount(t *testing.T) {
	c := openTestCatalog(t)

	err := c.Reserve(context.Background(), "nobody", 1)
	if !errors.Is(err, ErrNoQuotaAccount) {
		t.Errorf("Reserve() without account error = %v, want ErrNoQuotaAccount", err)
	}
}

func TestReleaseFlooredAtZero(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 100); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// Releasing more than was ever reserved clamps to zero instead of
	// tripping the CHECK constraint.
	if err := c.Release(ctx, "alice", 500); err != nil {
		t.Fatalf("Release(500) error = %v", err)
	}

	account, err := c.QuotaUsage(ctx, "alice")
	if err != nil {
		t.Fatalf("QuotaUsage() error = %v", err)
	}
	if account.UsedBytes != 0 {
		t.Errorf("UsedBytes = %d, want 0", account.UsedBytes)
	}
}

func TestConcurrentReservations(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	// Room for exactly 5 reservations of 100 bytes.
	if err := c.EnsureAccount(ctx, "alice", 500); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}

	const workers = 20
	var succeeded, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := c.Reserve(ctx, "alice", 100); {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrQuotaExceeded):
				rejected.Add(1)
			default:
				t.Errorf("Reserve() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 5 {
		t.Errorf("succeeded = %d, want 5", succeeded.Load())
	}
	if rejected.Load() != workers-5 {
		t.Errorf("rejected = %d, want %d", rejected.Load(), workers-5)
	}

	account, err := c.QuotaUsage(ctx, "alice")
	if err != nil {
		t.Fatalf("QuotaUsage() error = %v", err)
	}
	if account.UsedBytes != 500 {
		t.Errorf("UsedBytes = %d, want 500", account.UsedBytes)
	}
	if account.UsedBytes > account.LimitBytes {
		t.Errorf("UsedBytes %d exceeds LimitBytes %d", account.UsedBytes, account.LimitBytes)
	}
}

func TestSetQuotaLimit(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 800); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	if err := c.SetQuotaLimit(ctx, "alice", 2000); err != nil {
		t.Fatalf("SetQuotaLimit(2000) error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 1000); err != nil {
		t.Errorf("Reserve() after raise error = %v, want nil", err)
	}

	// Cannot shrink below current usage.
	if err := c.SetQuotaLimit(ctx, "alice", 100); err == nil {
		t.Error("SetQuotaLimit() below usage succeeded, want error")
	}
}

func TestResetUsed(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "alice", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if err := c.Reserve(ctx, "alice", 1000); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := c.ResetUsed(ctx, "alice"); err != nil {
		t.Fatalf("ResetUsed() error = %v", err)
	}

	account, err := c.QuotaUsage(ctx, "alice")
	if err != nil {
		t.Fatalf("QuotaUsage() error = %v", err)
	}
	if account.UsedBytes != 0 {
		t.Errorf("UsedBytes = %d, want 0", account.UsedBytes)
	}
}

func TestQuotaUsageNoAccount(t *testing.T) {
	c := openTestCatalog(t)

	_, err := c.QuotaUsage(context.Background(), "nobody")
	if !errors.Is(err, ErrNoQuotaAccount) {
		t.Errorf("QuotaUsage() error = %v, want ErrNoQuotaAccount", err)
	}
}

func TestNegativeDeltaRejectedAndCountedAsError(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.EnsureAccount(ctx, "carol", 1000); err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}

	reserveErrs := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues("quota_reserve", "error"))
	releaseErrs := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues("quota_release", "error"))

	if err := c.Reserve(ctx, "carol", -1); err == nil {
		t.Fatal("Reserve() with negative delta succeeded, want error")
	}
	if err := c.Release(ctx, "carol", -1); err == nil {
		t.Fatal("Release() with negative delta succeeded, want error")
	}

	account, err := c.QuotaUsage(ctx, "carol")
	if err != nil {
		t.Fatalf("QuotaUsage() error = %v", err)
	}
	if account.UsedBytes != 0 {
		t.Errorf("UsedBytes = %d, want 0", account.UsedBytes)
	}

	// The rejections must surface in the query metric as errors.
	if got := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues("quota_reserve", "error")); got != reserveErrs+1 {
		t.Errorf("quota_reserve error count = %v, want %v", got, reserveErrs+1)
	}
	if got := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues("quota_release", "error")); got != releaseErrs+1 {
		t.Errorf("quota_release error count = %v, want %v", got, releaseErrs+1)
	}
}
