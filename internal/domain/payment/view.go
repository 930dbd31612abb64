package payment

import "time"

// PendingMessage accompanies the PENDING default for references the store has not seen.
const PendingMessage = "Payment is still being processed"

// StatusView is the client-facing answer of a status lookup.
// Detail fields are nil when no stored transaction backs the answer.
type StatusView struct {
	Status             CanonicalStatus `json:"status"`
	Amount             *float64        `json:"amount"`
	PhoneNumber        *string         `json:"phoneNumber"`
	MpesaReceiptNumber *string         `json:"mpesaReceiptNumber"`
	ResultDesc         *string         `json:"resultDesc"`
	ResultCode         *string         `json:"resultCode"`
	Timestamp          *time.Time      `json:"timestamp"`
	Message            string          `json:"message,omitempty"`
}

// UnknownView answers for a reference with no stored row.
func UnknownView(status CanonicalStatus) *StatusView {
	return &StatusView{Status: status}
}

// DefaultPendingView answers when neither the store nor the proxy knows the reference.
func DefaultPendingView() *StatusView {
	return &StatusView{Status: CanonicalPending, Message: PendingMessage}
}

// ViewOf builds the answer for a stored transaction with the resolved status.
func ViewOf(t *Transaction, status CanonicalStatus) *StatusView {
	amount := t.Amount.InexactFloat64()
	updatedAt := t.UpdatedAt
	return &StatusView{
		Status:             status,
		Amount:             &amount,
		PhoneNumber:        optional(t.Phone),
		MpesaReceiptNumber: optional(t.ReceiptNumber),
		ResultDesc:         optional(t.ResultDescription),
		ResultCode:         optional(t.ResultCode),
		Timestamp:          &updatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
