package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaTransferrer pays out lamports with a system-program transfer.
type SolanaTransferrer struct {
	client       *rpc.Client
	payer        solana.PrivateKey
	pollInterval time.Duration
}

// NewSolanaTransferrer connects to rpcURL and loads the base58 payer key.
func NewSolanaTransferrer(rpcURL, payerKey string) (*SolanaTransferrer, error) {
	payer, err := solana.PrivateKeyFromBase58(payerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payer private key: %w", err)
	}
	return &SolanaTransferrer{
		client:       rpc.New(rpcURL),
		payer:        payer,
		pollInterval: 2 * time.Second,
	}, nil
}

// Payer returns the payer's public address.
func (s *SolanaTransferrer) Payer() string {
	return s.payer.PublicKey().String()
}

func (s *SolanaTransferrer) ValidateAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

func (s *SolanaTransferrer) Prepare(ctx context.Context, to string, amount int64) (*Transfer, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	dest, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	payer := s.payer.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(uint64(amount), payer, dest).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &s.payer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return &Transfer{
		Signature: tx.Signatures[0].String(),
		LastValid: recent.Value.LastValidBlockHeight,
		Raw:       tx,
	}, nil
}

func (s *SolanaTransferrer) Broadcast(ctx context.Context, t *Transfer) error {
	tx, ok := t.Raw.(*solana.Transaction)
	if !ok {
		return errors.New("not a solana transaction")
	}
	_, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}
	return nil
}

func (s *SolanaTransferrer) Status(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return StatusFailed, fmt.Errorf("malformed signature: %w", err)
	}

	out, err := s.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(out.Value) > 0 && out.Value[0] != nil {
		st := out.Value[0]
		if st.Err != nil {
			return StatusFailed, nil
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return StatusConfirmed, nil
		}
		return StatusPending, nil
	}

	// unknown to the cluster; it is dead once the blockhash expired
	if lastValid == 0 {
		return StatusPending, nil
	}
	height, err := s.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to get block height: %w", err)
	}
	if height > lastValid {
		return StatusExpired, nil
	}
	return StatusPending, nil
}

func (s *SolanaTransferrer) Await(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error) {
	return pollStatus(ctx, s.pollInterval, func(ctx context.Context) (TransferStatus, error) {
		return s.Status(ctx, signature, lastValid)
	})
}

// Health reports whether the RPC node answers.
func (s *SolanaTransferrer) Health(ctx context.Context) error {
	_, err := s.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	return err
}
