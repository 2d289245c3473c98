package fragment

import (
	"regexp"
	"strconv"
	"strings"
)

// The wallet endpoint has shipped several payload shapes over time; the
// balance may sit under different key spellings or inside nested containers.
// ExtractTON walks the decoded JSON looking for the first plausible figure
// and returns 0 when nothing matches. It never fails on shape problems.

var numberRe = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

var (
	directKeys    = []string{"ton_balance", "ton", "TON", "balanceTon", "balance_ton", "tonAmount", "amountTon"}
	balanceKeys   = []string{"ton", "TON", "Ton", "amount", "value"}
	containerKeys = []string{"available", "balances", "wallet", "totals", "data", "result", "items"}
	amountKeys    = []string{"balance", "amount", "value", "ton", "TON"}
)

// ExtractTON returns the TON balance found in a decoded wallet payload, or 0.
func ExtractTON(data any) float64 {
	if v, ok := extractTON(data); ok {
		return v
	}
	return 0
}

func extractTON(data any) (float64, bool) {
	switch node := data.(type) {
	case nil:
		return 0, false

	case map[string]any:
		for _, key := range directKeys {
			if raw, ok := node[key]; ok {
				if v, ok := coerceFloat(raw); ok {
					return v, true
				}
			}
		}

		if bal, ok := node["balance"]; ok {
			if v, ok := coerceFloat(bal); ok {
				return v, true
			}
			if m, ok := bal.(map[string]any); ok {
				for _, key := range balanceKeys {
					if raw, ok := m[key]; ok {
						if v, ok := coerceFloat(raw); ok {
							return v, true
						}
					}
				}
			}
			if list, ok := bal.([]any); ok {
				for _, item := range list {
					if v, ok := extractTON(item); ok {
						return v, true
					}
				}
			}
		}

		for _, key := range containerKeys {
			cont, ok := node[key]
			if !ok {
				continue
			}
			if v, ok := extractFromContainer(cont); ok {
				return v, true
			}
		}

		// Bare numbers outside the known keys are ambiguous; only recurse
		// into nested structures.
		for _, sub := range node {
			switch sub.(type) {
			case map[string]any, []any:
				if v, ok := extractTON(sub); ok {
					return v, true
				}
			}
		}
		return 0, false

	case []any:
		for _, item := range node {
			if v, ok := extractTON(item); ok {
				return v, true
			}
		}
		return 0, false
	}

	return coerceFloat(data)
}

func extractFromContainer(cont any) (float64, bool) {
	switch c := cont.(type) {
	case map[string]any:
		return extractTON(c)
	case []any:
		for _, item := range c {
			if v, ok := entryTON(item); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// entryTON resolves one container entry. An entry tagged with a currency or
// asset name counts only when that name is TON.
func entryTON(entry any) (float64, bool) {
	if m, ok := entry.(map[string]any); ok {
		if _, tagged := m["currency"]; tagged {
			return tonAssetAmount(m)
		}
		if _, tagged := m["asset"]; tagged {
			return tonAssetAmount(m)
		}
	}
	return extractTON(entry)
}

// tonAssetAmount reads the amount out of a {currency: "TON", ...} entry.
func tonAssetAmount(m map[string]any) (float64, bool) {
	cur, _ := m["currency"].(string)
	if cur == "" {
		cur, _ = m["asset"].(string)
	}
	if !strings.EqualFold(cur, "TON") {
		return 0, false
	}
	for _, key := range amountKeys {
		if raw, ok := m[key]; ok {
			if v, ok := coerceFloat(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func coerceFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if m := numberRe.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
