package payment

import "strings"

// Status is the persisted lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the store status is final and must not be re-checked upstream.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Canonical projects the store status onto the client-facing vocabulary.
func (s Status) Canonical() CanonicalStatus {
	switch s {
	case StatusSuccess:
		return CanonicalSuccess
	case StatusFailed, StatusCancelled:
		return CanonicalFailed
	default:
		return CanonicalPending
	}
}

// CanonicalStatus is the three-valued payment outcome shown to clients. It is never persisted.
type CanonicalStatus string

const (
	CanonicalPending CanonicalStatus = "PENDING"
	CanonicalSuccess CanonicalStatus = "SUCCESS"
	CanonicalFailed  CanonicalStatus = "FAILED"
)

// IsTerminal reports whether polling can stop on this status.
func (s CanonicalStatus) IsTerminal() bool {
	return s == CanonicalSuccess || s == CanonicalFailed
}

var providerVocabulary = map[string]CanonicalStatus{
	"success":    CanonicalSuccess,
	"succeeded":  CanonicalSuccess,
	"complete":   CanonicalSuccess,
	"completed":  CanonicalSuccess,
	"paid":       CanonicalSuccess,
	"ok":         CanonicalSuccess,
	"failed":     CanonicalFailed,
	"failure":    CanonicalFailed,
	"cancelled":  CanonicalFailed,
	"canceled":   CanonicalFailed,
	"declined":   CanonicalFailed,
	"rejected":   CanonicalFailed,
	"timeout":    CanonicalFailed,
	"pending":    CanonicalPending,
	"processing": CanonicalPending,
}

// NormalizeProviderStatus maps a provider status word onto the canonical vocabulary.
// Unknown words report false; they mean "no status", not an error.
func NormalizeProviderStatus(raw string) (CanonicalStatus, bool) {
	status, ok := providerVocabulary[strings.ToLower(raw)]
	return status, ok
}
