package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// ErrBadSignature means the signature does not match address and message.
var ErrBadSignature = errors.New("signature verification failed")

// Verifier checks that address signed message.
type Verifier interface {
	Verify(address, message string, signature []byte) error
	ValidateAddress(address string) error
}

// SolanaVerifier checks detached ed25519 signatures by a base58 public key.
type SolanaVerifier struct{}

func (SolanaVerifier) ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

func (SolanaVerifier) Verify(address, message string, signature []byte) error {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(signature) != solana.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes", ErrBadSignature, solana.SignatureLength)
	}
	sig := solana.SignatureFromBytes(signature)
	if !sig.Verify(pub, []byte(message)) {
		return ErrBadSignature
	}
	return nil
}

// EthereumVerifier checks personal_sign signatures.
type EthereumVerifier struct{}

func (EthereumVerifier) ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return nil
}

func (EthereumVerifier) Verify(address, message string, signature []byte) error {
	if err := (EthereumVerifier{}).ValidateAddress(address); err != nil {
		return err
	}
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes", ErrBadSignature, crypto.SignatureLength)
	}

	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !strings.EqualFold(crypto.PubkeyToAddress(*pub).Hex(), common.HexToAddress(address).Hex()) {
		return ErrBadSignature
	}
	return nil
}
