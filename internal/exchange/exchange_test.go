package exchange_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/exchange"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

func makeRequest(bookID, requesterID uuid.UUID, reqType, status string) models.Request {
	return models.Request{
		ID:          uuid.New(),
		BookID:      bookID,
		RequesterID: requesterID,
		Type:        reqType,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func Test_DeriveStatus(t *testing.T) {
	bookID := uuid.New()

	tests := []struct {
		name     string
		requests []models.Request
		expected string
	}{
		{
			name:     "no_requests_means_available",
			requests: nil,
			expected: exchange.BookAvailable,
		},
		{
			name: "only_declined_means_available",
			requests: []models.Request{
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined),
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined),
			},
			expected: exchange.BookAvailable,
		},
		{
			name: "pending_means_requested",
			requests: []models.Request{
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined),
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending),
			},
			expected: exchange.BookRequested,
		},
		{
			name: "approved_wins_over_pending",
			requests: []models.Request{
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending),
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusApproved),
				makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined),
			},
			expected: exchange.BookApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exchange.DeriveStatus(tt.requests))
		})
	}
}

func Test_DeriveStatus_OrderIndependent(t *testing.T) {
	bookID := uuid.New()
	requests := []models.Request{
		makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined),
		makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusApproved),
		makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending),
	}

	// Результат одинаков при любой перестановке заявок
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, perm := range permutations {
		shuffled := []models.Request{requests[perm[0]], requests[perm[1]], requests[perm[2]]}
		assert.Equal(t, exchange.BookApproved, exchange.DeriveStatus(shuffled))
	}
}

func Test_CheckExisting(t *testing.T) {
	bookID := uuid.New()
	requesterID := uuid.New()

	t.Run("pending_request_blocks_resubmission", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusPending),
		}
		existing := exchange.CheckExisting(requests, requesterID, models.IntentGiveaway)
		require.NotNil(t, existing)
		assert.Equal(t, requests[0].ID, existing.ID)
	})

	t.Run("approved_request_blocks_resubmission", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentExchange, exchange.StatusApproved),
		}
		assert.NotNil(t, exchange.CheckExisting(requests, requesterID, models.IntentExchange))
	})

	t.Run("declined_request_does_not_block", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusDeclined),
		}
		assert.Nil(t, exchange.CheckExisting(requests, requesterID, models.IntentGiveaway))
	})

	t.Run("other_requester_does_not_block", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending),
		}
		assert.Nil(t, exchange.CheckExisting(requests, requesterID, models.IntentGiveaway))
	})

	t.Run("other_type_does_not_block", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusPending),
		}
		assert.Nil(t, exchange.CheckExisting(requests, requesterID, models.IntentExchange))
	})
}

func Test_CheckDuplicate(t *testing.T) {
	bookID := uuid.New()
	requesterID := uuid.New()

	t.Run("active_request_returns_sentinel", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusPending),
		}
		err := exchange.CheckDuplicate(requests, requesterID, models.IntentGiveaway)
		assert.ErrorIs(t, err, exchange.ErrDuplicateRequest)
	})

	t.Run("declined_request_passes", func(t *testing.T) {
		requests := []models.Request{
			makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusDeclined),
		}
		assert.NoError(t, exchange.CheckDuplicate(requests, requesterID, models.IntentGiveaway))
	})

	t.Run("empty_request_set_passes", func(t *testing.T) {
		assert.NoError(t, exchange.CheckDuplicate(nil, requesterID, models.IntentExchange))
	})
}

func Test_ValidateSubmit(t *testing.T) {
	ownerID := uuid.New()
	requesterID := uuid.New()

	tests := []struct {
		name        string
		requesterID uuid.UUID
		bookIntent  string
		reqType     string
		expectedErr error
	}{
		{
			name:        "valid_giveaway_request",
			requesterID: requesterID,
			bookIntent:  models.IntentGiveaway,
			reqType:     models.IntentGiveaway,
			expectedErr: nil,
		},
		{
			name:        "valid_exchange_request",
			requesterID: requesterID,
			bookIntent:  models.IntentExchange,
			reqType:     models.IntentExchange,
			expectedErr: nil,
		},
		{
			name:        "owner_cannot_request_own_book",
			requesterID: ownerID,
			bookIntent:  models.IntentGiveaway,
			reqType:     models.IntentGiveaway,
			expectedErr: exchange.ErrSelfRequest,
		},
		{
			name:        "type_must_match_book_intent",
			requesterID: requesterID,
			bookIntent:  models.IntentGiveaway,
			reqType:     models.IntentExchange,
			expectedErr: exchange.ErrTypeMismatch,
		},
		{
			name:        "unknown_type_is_rejected",
			requesterID: requesterID,
			bookIntent:  models.IntentGiveaway,
			reqType:     "Sell",
			expectedErr: exchange.ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exchange.ValidateSubmit(ownerID, tt.requesterID, tt.bookIntent, tt.reqType)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}

func Test_ApplyApprove_CascadesDeclines(t *testing.T) {
	ownerID := uuid.New()
	bookID := uuid.New()
	now := time.Now()

	r1 := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending)
	r2 := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending)
	r3 := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined)
	requests := []models.Request{r1, r2, r3}

	result, err := exchange.ApplyApprove(requests, r1.ID, ownerID, ownerID, now)
	require.NoError(t, err)

	byID := mapByID(result)
	assert.Equal(t, exchange.StatusApproved, byID[r1.ID].Status)
	assert.Equal(t, exchange.StatusDeclined, byID[r2.ID].Status)
	assert.Equal(t, exchange.StatusDeclined, byID[r3.ID].Status)
	assert.Equal(t, now, byID[r1.ID].UpdatedAt)
	assert.Equal(t, now, byID[r2.ID].UpdatedAt)

	// Исходный слайс не должен измениться
	assert.Equal(t, exchange.StatusPending, requests[0].Status)
	assert.Equal(t, exchange.StatusPending, requests[1].Status)

	// После одобрения книга отображается как Approved
	assert.Equal(t, exchange.BookApproved, exchange.DeriveStatus(result))
}

func Test_ApplyApprove_AtMostOneApproved(t *testing.T) {
	ownerID := uuid.New()
	bookID := uuid.New()

	requests := []models.Request{
		makeRequest(bookID, uuid.New(), models.IntentExchange, exchange.StatusPending),
		makeRequest(bookID, uuid.New(), models.IntentExchange, exchange.StatusPending),
		makeRequest(bookID, uuid.New(), models.IntentExchange, exchange.StatusPending),
	}

	result, err := exchange.ApplyApprove(requests, requests[1].ID, ownerID, ownerID, time.Now())
	require.NoError(t, err)

	approved := 0
	for _, r := range result {
		if r.Status == exchange.StatusApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)

	// Повторное одобрение другой заявки невозможно: все остальные уже отклонены
	_, err = exchange.ApplyApprove(result, result[0].ID, ownerID, ownerID, time.Now())
	assert.ErrorIs(t, err, exchange.ErrNotPending)
}

func Test_ApplyApprove_Errors(t *testing.T) {
	ownerID := uuid.New()
	stranger := uuid.New()
	bookID := uuid.New()

	pending := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending)
	requests := []models.Request{pending}

	t.Run("non_owner_cannot_approve", func(t *testing.T) {
		result, err := exchange.ApplyApprove(requests, pending.ID, ownerID, stranger, time.Now())
		assert.ErrorIs(t, err, exchange.ErrNotOwner)
		assert.Nil(t, result)
		// Статус заявки не изменился
		assert.Equal(t, exchange.StatusPending, requests[0].Status)
	})

	t.Run("unknown_request_id", func(t *testing.T) {
		_, err := exchange.ApplyApprove(requests, uuid.New(), ownerID, ownerID, time.Now())
		assert.ErrorIs(t, err, exchange.ErrRequestNotFound)
	})
}

func Test_ApplyDecline(t *testing.T) {
	ownerID := uuid.New()
	bookID := uuid.New()

	r1 := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending)
	r2 := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusPending)
	requests := []models.Request{r1, r2}

	t.Run("declines_only_target", func(t *testing.T) {
		result, err := exchange.ApplyDecline(requests, r1.ID, ownerID, ownerID, time.Now())
		require.NoError(t, err)

		byID := mapByID(result)
		assert.Equal(t, exchange.StatusDeclined, byID[r1.ID].Status)
		assert.Equal(t, exchange.StatusPending, byID[r2.ID].Status)
		assert.Equal(t, exchange.BookRequested, exchange.DeriveStatus(result))
	})

	t.Run("already_declined_is_terminal", func(t *testing.T) {
		declined := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusDeclined)
		_, err := exchange.ApplyDecline([]models.Request{declined}, declined.ID, ownerID, ownerID, time.Now())
		assert.ErrorIs(t, err, exchange.ErrNotPending)
	})

	t.Run("approved_is_terminal", func(t *testing.T) {
		approved := makeRequest(bookID, uuid.New(), models.IntentGiveaway, exchange.StatusApproved)
		_, err := exchange.ApplyDecline([]models.Request{approved}, approved.ID, ownerID, ownerID, time.Now())
		assert.ErrorIs(t, err, exchange.ErrNotPending)
	})
}

// Сценарий из жизни: у книги две ожидающие заявки, владелец одобряет первую
func Test_ApproveScenario_TwoPendingRequests(t *testing.T) {
	u1 := uuid.New() // владелец
	u2 := uuid.New()
	u3 := uuid.New()
	b1 := uuid.New()

	r1 := makeRequest(b1, u2, models.IntentGiveaway, exchange.StatusPending)
	r2 := makeRequest(b1, u3, models.IntentGiveaway, exchange.StatusPending)

	result, err := exchange.ApplyApprove([]models.Request{r1, r2}, r1.ID, u1, u1, time.Now())
	require.NoError(t, err)

	byID := mapByID(result)
	assert.Equal(t, exchange.StatusApproved, byID[r1.ID].Status)
	assert.Equal(t, exchange.StatusDeclined, byID[r2.ID].Status)
	assert.Equal(t, exchange.BookApproved, exchange.DeriveStatus(result))
}

// После отклонения заявки повторная отправка той же тройки снова возможна
func Test_ResubmitAfterDecline(t *testing.T) {
	ownerID := uuid.New()
	requesterID := uuid.New()
	bookID := uuid.New()

	pending := makeRequest(bookID, requesterID, models.IntentGiveaway, exchange.StatusPending)
	requests := []models.Request{pending}

	// Пока заявка активна, дубликат блокируется
	require.NotNil(t, exchange.CheckExisting(requests, requesterID, models.IntentGiveaway))

	declined, err := exchange.ApplyDecline(requests, pending.ID, ownerID, ownerID, time.Now())
	require.NoError(t, err)

	// После отклонения защита от дубликатов пропускает новую заявку
	assert.Nil(t, exchange.CheckExisting(declined, requesterID, models.IntentGiveaway))
	assert.NoError(t, exchange.ValidateSubmit(ownerID, requesterID, models.IntentGiveaway, models.IntentGiveaway))
}

func mapByID(requests []models.Request) map[uuid.UUID]models.Request {
	m := make(map[uuid.UUID]models.Request, len(requests))
	for _, r := range requests {
		m[r.ID] = r
	}
	return m
}
