package fragment

import (
	"encoding/json"
	"testing"
)

func TestExtractTON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want float64
	}{
		{"top level ton key", `{"ton": 12.5}`, 12.5},
		{"ton_balance string", `{"ton_balance": "3.25"}`, 3.25},
		{"comma decimal", `{"balance": {"ton": "12,5"}}`, 12.5},
		{"nested balances list", `{"balances": [{"currency": "USDT", "amount": 7}, {"currency": "TON", "amount": 4.2}]}`, 4.2},
		{"asset key", `{"data": [{"asset": "TON", "value": "9.1"}]}`, 9.1},
		{"wallet container", `{"wallet": {"ton": 0.4}}`, 0.4},
		{"balance with units suffix", `{"ton": "1.5 TON"}`, 1.5},
		{"numeric balance fallback", `{"balance": 2.75}`, 2.75},
		{"unrecognized shape", `{"usd": 100}`, 0},
		{"null payload", `null`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var payload any
			if err := json.Unmarshal([]byte(tc.body), &payload); err != nil {
				t.Fatalf("Failed to parse fixture: %v", err)
			}
			if got := ExtractTON(payload); got != tc.want {
				t.Errorf("ExtractTON(%s) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}
