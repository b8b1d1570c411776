package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"finintelbot/internal/model"
)

// Fingerprint returns the dedup key and stored payload for a signal.
//
// The key is a SHA-256 over an explicit canonical serialization of the
// signal's comparison fields in sorted-key order. The field list is spelled
// out here rather than derived from JSON marshaling so the hash can never
// drift with struct field order or encoder behavior: two signals with
// identical economic content always hash identically.
func Fingerprint(sig model.Signal) (key, payload string) {
	canon := canonical(sig)
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:]), canon
}

// canonical serializes the comparison fields as "k=v" pairs joined by "|",
// keys in ascending order. Floats use 2-decimal fixed notation, matching
// the rounding applied at signal creation.
func canonical(sig model.Signal) string {
	pairs := []string{
		"entry=" + fmtFloat(sig.Entry),
		"reason=" + sig.Reason,
		"rr=" + fmtFloat(sig.RiskReward),
		"side=" + string(sig.Side),
		"stop=" + fmtFloat(sig.Stop),
		"symbol=" + sig.Symbol,
		"tp=" + fmtFloat(sig.TakeProfit),
	}
	return strings.Join(pairs, "|")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
