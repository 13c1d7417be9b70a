// Package leaselock guards corpus-wide jobs with a row in app_locks. The row
// names its owner and expires unless the owner keeps renewing it, so a
// crashed sync run blocks the next one for at most one TTL.
package leaselock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultTTL     = 2 * time.Minute
	renewAttempts  = 3
	renewTimeout   = 15 * time.Second
	renewRetryWait = 200 * time.Millisecond
)

var (
	// ErrBusy is matched by the error Acquire returns when another owner
	// holds the key.
	ErrBusy = errors.New("lease lock busy")
	// ErrLost is the cancel cause of a lease context whose renewal failed.
	ErrLost = errors.New("lease lock lost")
)

// DB is the subset of a pgx pool used by the lock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Holder describes who owns a key and until when.
type Holder struct {
	Key       string    `json:"key"`
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BusyError reports the current holder of a key. Holder is nil when the
// lease expired between the failed acquire and the lookup.
type BusyError struct {
	Key    string
	Holder *Holder
}

func (e *BusyError) Error() string {
	if e.Holder == nil {
		return fmt.Sprintf("lease %q is busy", e.Key)
	}
	return fmt.Sprintf("lease %q is held by %s until %s", e.Key, e.Holder.Owner, e.Holder.ExpiresAt.Format(time.RFC3339))
}

func (e *BusyError) Unwrap() error { return ErrBusy }

type Client struct {
	db DB
}

// Options tune a lease. Owner is stored as the lock holder and must be unique
// per attempt; it defaults to a random id. TTL defaults to DefaultTTL and
// RenewEvery to half the TTL.
type Options struct {
	Owner      string
	TTL        time.Duration
	RenewEvery time.Duration
}

// Lease is a held lock. Context is cancelled when the lease is released or
// lost; work guarded by the lease runs on it.
type Lease struct {
	Key     string
	Owner   string
	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	mu        sync.Mutex
	expiresAt time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(db DB) *Client {
	return &Client{db: db}
}

// WithLease runs fn while holding key and releases the lease afterwards.
func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

// Acquire takes key once. When another owner holds it the error is a
// *BusyError naming that owner.
func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	opts, err := withDefaults(opts)
	if err != nil {
		return nil, err
	}
	ttlMs := opts.TTL.Milliseconds()

	var expiresAt time.Time
	err = c.db.QueryRow(ctx, tryAcquireSQL, key, opts.Owner, ttlMs).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		holder, herr := c.Holder(ctx, key)
		if herr != nil {
			return nil, fmt.Errorf("%w: %w", ErrBusy, herr)
		}
		return nil, &BusyError{Key: key, Holder: holder}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease %q: %w", key, err)
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:       key,
		Owner:     opts.Owner,
		Context:   leaseCtx,
		client:    c,
		cancel:    cancel,
		expiresAt: expiresAt,
		stopCh:    make(chan struct{}),
	}

	go l.renewLoop(opts.RenewEvery, ttlMs)

	return l, nil
}

// Holder returns the live holder of key, or nil when nobody holds it.
func (c *Client) Holder(ctx context.Context, key string) (*Holder, error) {
	h := Holder{Key: key}
	err := c.db.QueryRow(ctx, holderSQL, key).Scan(&h.Owner, &h.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lease %q: %w", key, err)
	}
	return &h, nil
}

func withDefaults(opts Options) (Options, error) {
	if opts.Owner == "" {
		id, err := gonanoid.New()
		if err != nil {
			return opts, err
		}
		opts.Owner = id
	}
	if opts.TTL < time.Second {
		opts.TTL = DefaultTTL
	}
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = opts.TTL / 2
	}
	return opts, nil
}

// ExpiresAt is the expiry of the last successful acquire or renewal.
func (l *Lease) ExpiresAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expiresAt
}

func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Key, l.Owner)
	return err
}

func (l *Lease) renewLoop(every time.Duration, ttlMs int64) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttlMs int64) error {
	var lastErr error
	for attempt := range renewAttempts {
		if attempt > 0 {
			select {
			case <-l.Context.Done():
				return l.Context.Err()
			case <-time.After(renewRetryWait):
			}
		}

		renewCtx, cancel := context.WithTimeout(l.Context, renewTimeout)
		var expiresAt time.Time
		err := l.client.db.QueryRow(renewCtx, renewSQL, l.Key, l.Owner, ttlMs).Scan(&expiresAt)
		cancel()
		if err == nil {
			l.mu.Lock()
			l.expiresAt = expiresAt
			l.mu.Unlock()
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		lastErr = err
	}
	return lastErr
}

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now()
   OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING expires_at;
`

const holderSQL = `
SELECT locked_by, expires_at
FROM app_locks
WHERE lock_key = $1 AND expires_at >= now();
`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING expires_at;
`

const releaseSQL = `
DELETE FROM app_locks
WHERE lock_key = $1 AND locked_by = $2;
`
