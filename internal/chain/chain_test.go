package chain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

func TestSolanaVerifier(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey() error = %v", err)
	}
	msg := "Sign this message to authenticate: 42"
	sig, err := key.Sign([]byte(msg))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	v := SolanaVerifier{}
	if err := v.Verify(key.PublicKey().String(), msg, sig[:]); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if err := v.Verify(key.PublicKey().String(), msg+"1", sig[:]); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered message: err = %v", err)
	}
	if err := v.Verify(key.PublicKey().String(), msg, sig[:10]); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("short signature: err = %v", err)
	}
	if err := v.Verify("not-base58-0OIl", msg, sig[:]); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("bad address: err = %v", err)
	}
}

func TestEthereumVerifier(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	msg := "Sign this message to authenticate: 7"

	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	// wallets return V as 27/28
	sig[crypto.RecoveryIDOffset] += 27

	v := EthereumVerifier{}
	if err := v.Verify(addr, msg, sig); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if sig[crypto.RecoveryIDOffset] < 27 {
		t.Fatal("Verify() must not mutate the caller's signature")
	}
	other, _ := crypto.GenerateKey()
	if err := v.Verify(crypto.PubkeyToAddress(other.PublicKey).Hex(), msg, sig); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong address: err = %v", err)
	}
}

func TestUnits(t *testing.T) {
	if got := DisplayFloat(1_000_000_000, 9); got != 1 {
		t.Fatalf("DisplayFloat(1e9, 9) = %v, want 1", got)
	}
	if got := DisplayFloat(100_000_000, 9); got != 0.1 {
		t.Fatalf("DisplayFloat(1e8, 9) = %v, want 0.1", got)
	}

	tests := []struct {
		in   string
		want int64
	}{
		{"1", 1_000_000_000},
		{"0.1", 100_000_000},
		{"0.0000000015", 2},
		{"2.5", 2_500_000_000},
	}
	for _, tt := range tests {
		got, err := FromDisplay(decimal.RequireFromString(tt.in), 9)
		if err != nil {
			t.Fatalf("FromDisplay(%s) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FromDisplay(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := FromDisplay(decimal.RequireFromString("1e20"), 9); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestSignatureBytes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []byte
	}{
		{"array", `[1,2,255]`, []byte{1, 2, 255}},
		{"hex", `"0x0102ff"`, []byte{1, 2, 255}},
		{"base58", `"LiA"`, []byte{1, 2, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s SignatureBytes
			if err := json.Unmarshal([]byte(tt.json), &s); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if string(s) != string(tt.want) {
				t.Fatalf("got %v, want %v", []byte(s), tt.want)
			}
		})
	}

	var s SignatureBytes
	if err := json.Unmarshal([]byte(`[1,256]`), &s); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestPollStatus(t *testing.T) {
	calls := 0
	status, err := pollStatus(context.Background(), time.Millisecond, func(context.Context) (TransferStatus, error) {
		calls++
		if calls < 3 {
			return StatusPending, nil
		}
		return StatusConfirmed, nil
	})
	if err != nil || status != StatusConfirmed {
		t.Fatalf("pollStatus() = %s, %v", status, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	status, err = pollStatus(ctx, time.Millisecond, func(context.Context) (TransferStatus, error) {
		return StatusPending, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) || status != StatusPending {
		t.Fatalf("pollStatus() on timeout = %s, %v", status, err)
	}
}

func TestManagerWithoutPayer(t *testing.T) {
	m, err := NewManager(configFor("solana"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Transferrer() != nil {
		t.Fatal("transferrer must be nil without a payer key")
	}
	if _, ok := m.Verifier().(SolanaVerifier); !ok {
		t.Fatalf("unexpected verifier %T", m.Verifier())
	}
	if _, err := NewManager(configFor("bitcoin")); err == nil {
		t.Fatal("expected unsupported chain error")
	}
}
