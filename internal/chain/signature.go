package chain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

// SignatureBytes decodes a wallet signature sent either as a JSON array of
// byte values, a 0x-prefixed hex string, or a base58 string.
type SignatureBytes []byte

func (s *SignatureBytes) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("signature array: %w", err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("signature byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*s = out
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("signature must be a byte array or string: %w", err)
	}
	if strings.HasPrefix(str, "0x") {
		out, err := hexutil.Decode(str)
		if err != nil {
			return fmt.Errorf("signature hex: %w", err)
		}
		*s = out
		return nil
	}
	out, err := base58.Decode(str)
	if err != nil {
		return fmt.Errorf("signature base58: %w", err)
	}
	*s = out
	return nil
}
