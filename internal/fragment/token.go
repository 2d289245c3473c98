package fragment

import (
	"encoding/json"
	"fmt"
	"os"
)

// tokenPayload is the JSON shape persisted in the token file.
type tokenPayload struct {
	Token string `json:"token"`
}

// LoadTokenFile reads the bearer token persisted at path. A missing file is
// not an error; it simply yields an empty token.
func LoadTokenFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal(raw, &tp); err != nil {
		return "", fmt.Errorf("decode token file: %w", err)
	}
	return tp.Token, nil
}

// SaveTokenFile rewrites the token file at path.
func SaveTokenFile(path, token string) error {
	raw, err := json.Marshal(tokenPayload{Token: token})
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
