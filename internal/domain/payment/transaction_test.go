package payment

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPendingTransaction(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		tx, err := NewPendingTransaction("CHK1", "QATAR-1700000000000", "254712345678", decimal.NewFromInt(240))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, tx.ID)
		assert.Equal(t, "CHK1", tx.TransactionRequestID)
		assert.Equal(t, "QATAR-1700000000000", tx.Reference)
		assert.Equal(t, StatusPending, tx.Status)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(240)))
		assert.Equal(t, tx.CreatedAt, tx.UpdatedAt)
	})

	t.Run("EmptyRequestID", func(t *testing.T) {
		tx, err := NewPendingTransaction("", "QATAR-1", "254712345678", decimal.NewFromInt(240))
		assert.ErrorIs(t, err, ErrEmptyRequestID)
		assert.Nil(t, tx)
	})
}

func TestSucceededEvent_References(t *testing.T) {
	tx := &Transaction{ID: uuid.New(), TransactionRequestID: "CHK1", Reference: "QATAR-1"}
	assert.Equal(t, []string{"QATAR-1", "CHK1"}, NewSucceededEvent(tx).References())

	// The gateway id falls back to the reference when the gateway returns none.
	same := &Transaction{ID: uuid.New(), TransactionRequestID: "QATAR-2", Reference: "QATAR-2"}
	assert.Equal(t, []string{"QATAR-2"}, NewSucceededEvent(same).References())

	// Degraded rows carry no reference.
	degraded := &Transaction{ID: uuid.New(), TransactionRequestID: "CHK3"}
	assert.Equal(t, []string{"CHK3"}, NewSucceededEvent(degraded).References())
}

func TestReferenceGenerator(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		gen := NewReferenceGenerator("QATAR")
		gen.now = func() time.Time { return time.UnixMilli(1700000000123) }
		assert.Equal(t, "QATAR-1700000000123", gen.Next())
	})

	t.Run("SameMillisecondMovesForward", func(t *testing.T) {
		gen := NewReferenceGenerator("QATAR")
		gen.now = func() time.Time { return time.UnixMilli(1700000000000) }
		assert.Equal(t, "QATAR-1700000000000", gen.Next())
		assert.Equal(t, "QATAR-1700000000001", gen.Next())
		assert.Equal(t, "QATAR-1700000000002", gen.Next())
	})

	t.Run("ConcurrentCallsNeverCollide", func(t *testing.T) {
		gen := NewReferenceGenerator("QATAR")
		gen.now = func() time.Time { return time.UnixMilli(1700000000000) }

		const n = 200
		refs := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				refs <- gen.Next()
			}()
		}
		wg.Wait()
		close(refs)

		seen := make(map[string]struct{}, n)
		for ref := range refs {
			require.True(t, strings.HasPrefix(ref, "QATAR-"))
			_, err := strconv.ParseInt(strings.TrimPrefix(ref, "QATAR-"), 10, 64)
			require.NoError(t, err)
			_, dup := seen[ref]
			require.False(t, dup, "duplicate reference %s", ref)
			seen[ref] = struct{}{}
		}
		assert.Len(t, seen, n)
	})
}

func TestViewOf(t *testing.T) {
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tx := &Transaction{
		Phone:         "254712345678",
		Amount:        decimal.NewFromInt(240),
		ReceiptNumber: "RCP123",
		UpdatedAt:     updated,
	}

	view := ViewOf(tx, CanonicalSuccess)
	assert.Equal(t, CanonicalSuccess, view.Status)
	require.NotNil(t, view.Amount)
	assert.Equal(t, 240.0, *view.Amount)
	require.NotNil(t, view.PhoneNumber)
	assert.Equal(t, "254712345678", *view.PhoneNumber)
	require.NotNil(t, view.MpesaReceiptNumber)
	assert.Equal(t, "RCP123", *view.MpesaReceiptNumber)
	assert.Nil(t, view.ResultDesc)
	assert.Nil(t, view.ResultCode)
	require.NotNil(t, view.Timestamp)
	assert.Equal(t, updated, *view.Timestamp)

	unknown := UnknownView(CanonicalFailed)
	assert.Equal(t, CanonicalFailed, unknown.Status)
	assert.Nil(t, unknown.Amount)
	assert.Empty(t, unknown.Message)

	def := DefaultPendingView()
	assert.Equal(t, CanonicalPending, def.Status)
	assert.Equal(t, PendingMessage, def.Message)
}
