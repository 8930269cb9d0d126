package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejcasil/dualledger/internal/model"
)

func TestAddAndListChatMessages(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	base := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := &model.ChatMessage{
			Nickname:  "EJ",
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, storage.AddChatMessage(ctx, msg))
		assert.Positive(t, msg.ID)
	}

	t.Run("returns messages oldest first", func(t *testing.T) {
		messages, err := storage.ChatMessages(ctx, 50)
		require.NoError(t, err)
		require.Len(t, messages, 5)
		assert.Equal(t, "message 0", messages[0].Message)
		assert.Equal(t, "message 4", messages[4].Message)
	})

	t.Run("limit keeps the newest messages", func(t *testing.T) {
		messages, err := storage.ChatMessages(ctx, 2)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "message 3", messages[0].Message)
		assert.Equal(t, "message 4", messages[1].Message)
	})

	t.Run("non-positive limit falls back to default", func(t *testing.T) {
		messages, err := storage.ChatMessages(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, messages, 5)
	})
}

func TestAddChatMessage_Validation(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	tests := []struct {
		msg  *model.ChatMessage
		name string
	}{
		{name: "nil message", msg: nil},
		{name: "empty nickname", msg: &model.ChatMessage{Message: "hi"}},
		{name: "empty text", msg: &model.ChatMessage{Nickname: "EJ"}},
		{name: "whitespace text", msg: &model.ChatMessage{Nickname: "EJ", Message: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, storage.AddChatMessage(ctx, tt.msg))
		})
	}
}

func TestAddChatMessage_StampsCreatedAt(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	msg := &model.ChatMessage{Nickname: "Neng", Message: "hello"}
	require.NoError(t, storage.AddChatMessage(ctx, msg))
	assert.False(t, msg.CreatedAt.IsZero())
}
