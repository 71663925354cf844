package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainOperation = "framekb/operation/v1"
	DomainFiring    = "framekb/firing/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OperationID computes the content-addressed ID of an engine operation record.
// The outcome is excluded: the ID names what was asked, not what happened.
func OperationID(token string, op OpName, args IRObject, seq int64) (string, error) {
	obj := IRObject{
		"token": IRString(token),
		"op":    IRString(op),
		"args":  args,
		"seq":   IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OperationID: %w", err)
	}
	return hashWithDomain(DomainOperation, canonical), nil
}

// FiringID computes the content-addressed ID of a demon firing record.
func FiringID(token, frame, slot string, demon DemonKind, seq int64) (string, error) {
	obj := IRObject{
		"token": IRString(token),
		"frame": IRString(frame),
		"slot":  IRString(slot),
		"demon": IRString(demon),
		"seq":   IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("FiringID: %w", err)
	}
	return hashWithDomain(DomainFiring, canonical), nil
}
