package simpleregistry

import "strings"

// Built-in content validators. All of them are pure functions of the hash
// and the oracle reference, so registration stays deterministic no matter
// which one is plugged in.

// AcceptNonEmpty returns a validator that accepts any non-empty hash and
// ignores the oracle reference entirely. This is the default validator.
func AcceptNonEmpty() ContentValidator {
	return ValidatorFunc(func(contentHash, _ string) bool {
		return contentHash != ""
	})
}

// PrefixAllowlist returns a validator that treats the oracle reference as a
// comma-separated list of allowed hash prefixes (e.g. "sha256:,blake3:").
// A hash is accepted when it starts with any listed prefix. An empty
// reference rejects everything.
func PrefixAllowlist() ContentValidator {
	return ValidatorFunc(func(contentHash, oracleReference string) bool {
		if contentHash == "" {
			return false
		}
		for _, prefix := range splitReference(oracleReference) {
			if strings.HasPrefix(contentHash, prefix) {
				return true
			}
		}
		return false
	})
}

// ExactAllowlist returns a validator that treats the oracle reference as a
// comma-separated list of the only acceptable hashes. Useful for closed
// pilots and tests. An empty reference rejects everything.
func ExactAllowlist() ContentValidator {
	return ValidatorFunc(func(contentHash, oracleReference string) bool {
		if contentHash == "" {
			return false
		}
		for _, allowed := range splitReference(oracleReference) {
			if contentHash == allowed {
				return true
			}
		}
		return false
	})
}

// splitReference splits a comma-separated oracle reference into entries,
// trimming whitespace and dropping empty items.
func splitReference(reference string) []string {
	if reference == "" {
		return nil
	}
	parts := strings.Split(reference, ",")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}
