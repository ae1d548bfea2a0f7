package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const valueTransferGas = 21000

// ethBackend is the subset of ethclient.Client the transferrer uses.
type ethBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// EthereumTransferrer pays out wei with a plain value transfer.
// Transfer.LastValid holds the transaction nonce plus one: once the payer's
// mined nonce reaches it without a receipt, the transfer can never land.
type EthereumTransferrer struct {
	client       ethBackend
	key          *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	pollInterval time.Duration
}

// NewEthereumTransferrer dials rpcURL and loads the hex payer key.
func NewEthereumTransferrer(rpcURL, payerKey string, chainID int64) (*EthereumTransferrer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(payerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}
	return &EthereumTransferrer{
		client:       client,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      big.NewInt(chainID),
		pollInterval: 3 * time.Second,
	}, nil
}

// Payer returns the payer's address.
func (e *EthereumTransferrer) Payer() string {
	return e.from.Hex()
}

func (e *EthereumTransferrer) ValidateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	return nil
}

func (e *EthereumTransferrer) Prepare(ctx context.Context, to string, amount int64) (*Transfer, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	if err := e.ValidateAddress(to); err != nil {
		return nil, err
	}
	dest := common.HexToAddress(to)

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &dest,
		Value:    big.NewInt(amount),
		Gas:      valueTransferGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return &Transfer{Signature: signed.Hash().Hex(), LastValid: nonce + 1, Raw: signed}, nil
}

func (e *EthereumTransferrer) Broadcast(ctx context.Context, t *Transfer) error {
	tx, ok := t.Raw.(*types.Transaction)
	if !ok {
		return errors.New("not an ethereum transaction")
	}
	sendErr := e.client.SendTransaction(ctx, tx)
	if sendErr == nil {
		return nil
	}
	// a node that refused the transaction never relayed it
	if _, _, err := e.client.TransactionByHash(ctx, tx.Hash()); errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%w: %v", ErrRejected, sendErr)
	}
	return fmt.Errorf("failed to send transaction: %w", sendErr)
}

// Status checks the receipt. Without one, the transfer has expired once
// another transaction of the payer consumed its nonce.
func (e *EthereumTransferrer) Status(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error) {
	hash := common.HexToHash(signature)
	status, found, err := e.receiptStatus(ctx, hash)
	if err != nil || found || lastValid == 0 {
		return status, err
	}

	mined, err := e.client.NonceAt(ctx, e.from, nil)
	if err != nil {
		return StatusPending, fmt.Errorf("failed to get nonce: %w", err)
	}
	if mined < lastValid {
		return StatusPending, nil
	}

	// the nonce is used; it may have been used by this very transfer
	status, found, err = e.receiptStatus(ctx, hash)
	if err != nil || found {
		return status, err
	}
	return StatusExpired, nil
}

func (e *EthereumTransferrer) receiptStatus(ctx context.Context, hash common.Hash) (TransferStatus, bool, error) {
	receipt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return StatusPending, false, nil
		}
		return StatusPending, false, fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return StatusConfirmed, true, nil
	}
	return StatusFailed, true, nil
}

func (e *EthereumTransferrer) Await(ctx context.Context, signature string, lastValid uint64) (TransferStatus, error) {
	return pollStatus(ctx, e.pollInterval, func(ctx context.Context) (TransferStatus, error) {
		return e.Status(ctx, signature, lastValid)
	})
}

// Health reports whether the RPC node answers.
func (e *EthereumTransferrer) Health(ctx context.Context) error {
	_, err := e.client.BlockNumber(ctx)
	return err
}
