package chain

import (
	"context"
	"errors"
	"time"

	"github.com/GANESH4511/Dataverse/internal/logger"
)

// TransferStatus is the on-chain outcome of a transfer as far as we know it.
type TransferStatus string

const (
	StatusPending   TransferStatus = "pending"   // not yet final, or not visible yet
	StatusConfirmed TransferStatus = "confirmed" // landed and succeeded
	StatusFailed    TransferStatus = "failed"    // landed and reverted
	StatusExpired   TransferStatus = "expired"   // can no longer land
)

// Final reports whether the status will not change any more.
func (s TransferStatus) Final() bool {
	return s != StatusPending
}

var (
	// ErrInvalidAddress is returned for a destination the chain cannot pay to.
	ErrInvalidAddress = errors.New("invalid destination address")
	// ErrRejected is wrapped by Broadcast when the node refused the transfer,
	// so it can never land.
	ErrRejected = errors.New("transfer rejected by the node")
)

// Transfer is a signed value transfer. Its Signature is known before it is broadcast.
type Transfer struct {
	Signature string
	LastValid uint64 // chain-specific bound past which the transfer can no longer land; 0 if unbounded
	Raw       any    // chain-specific signed transaction
}

// Transferrer moves native currency from the platform payer to a worker.
type Transferrer interface {
	// Prepare builds and signs a transfer without sending it.
	Prepare(ctx context.Context, to string, amount int64) (*Transfer, error)
	// Broadcast submits a prepared transfer.
	Broadcast(ctx context.Context, t *Transfer) error
	// Await blocks until the transfer is final or ctx is done.
	Await(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error)
	// Status looks the transfer up once.
	Status(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error)
	// ValidateAddress checks a destination address.
	ValidateAddress(addr string) error
}

type statusFunc func(ctx context.Context) (TransferStatus, error)

// pollStatus calls check every interval until it reports a final status.
// Lookup errors are logged and retried.
func pollStatus(ctx context.Context, interval time.Duration, check statusFunc) (TransferStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := check(ctx)
		if err == nil && status.Final() {
			return status, nil
		}
		if err != nil {
			logger.Warn("Transfer status lookup failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return StatusPending, ctx.Err()
		case <-ticker.C:
		}
	}
}
