package chain

import (
	"context"
	"fmt"

	"github.com/GANESH4511/Dataverse/internal/config"
	"github.com/GANESH4511/Dataverse/internal/logger"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

// Manager owns the settlement chain's transferrer and sign-in verifier.
type Manager struct {
	config      config.ChainConfig
	transferrer Transferrer
	verifier    Verifier
}

// NewManager builds the chain components. Without a payer key the
// transferrer is nil and payouts skip the on-chain step.
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	m := &Manager{config: cfg}

	switch cfg.Type {
	case config.ChainSolana:
		m.verifier = SolanaVerifier{}
	case config.ChainEthereum:
		m.verifier = EthereumVerifier{}
	default:
		return nil, fmt.Errorf("unsupported chain type %s, supported types: solana, ethereum", cfg.Type)
	}

	if cfg.PayerPrivateKey == "" {
		logger.Warn("No payer key configured, on-chain payouts are disabled")
		return m, nil
	}

	logger.Info("Creating %s transferrer (RPC: %s)", cfg.Type, cfg.RPCURL)
	switch cfg.Type {
	case config.ChainSolana:
		t, err := NewSolanaTransferrer(cfg.RPCURL, cfg.PayerPrivateKey)
		if err != nil {
			return nil, err
		}
		logger.Info("Solana payer: %s", t.Payer())
		m.transferrer = t
	case config.ChainEthereum:
		t, err := NewEthereumTransferrer(cfg.RPCURL, cfg.PayerPrivateKey, cfg.ChainID)
		if err != nil {
			return nil, err
		}
		logger.Info("Ethereum payer: %s", t.Payer())
		m.transferrer = t
	}
	return m, nil
}

// Transferrer returns nil when transfers are disabled.
func (m *Manager) Transferrer() Transferrer {
	return m.transferrer
}

func (m *Manager) Verifier() Verifier {
	return m.verifier
}

func (m *Manager) Decimals() int32 {
	return m.config.Decimals
}

func (m *Manager) ChainType() string {
	return m.config.Type
}

// GetHealthStatus reports the chain and whether its RPC node answers.
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"chain_type":        m.config.Type,
		"transfers_enabled": m.transferrer != nil,
		"client_status":     "not_initialized",
	}
	if hc, ok := m.transferrer.(healthChecker); ok {
		health["client_status"] = "connected"
		if err := hc.Health(ctx); err != nil {
			health["client_status"] = "disconnected"
		}
	}
	return health
}
