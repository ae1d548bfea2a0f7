package chain

import "github.com/GANESH4511/Dataverse/internal/config"

func configFor(chainType string) config.ChainConfig {
	return config.ChainConfig{Type: chainType, RPCURL: "http://127.0.0.1:1", Decimals: 9}
}
