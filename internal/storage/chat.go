package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// ChatMessages returns the most recent messages, oldest first.
func (s *SQLiteStorage) ChatMessages(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	// Take the newest N, then flip back to chronological order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nickname, message, created_at FROM (
			SELECT id, nickname, message, created_at
			FROM chat_messages
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) ORDER BY created_at ASC, id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Nickname, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}
	return messages, nil
}

// AddChatMessage appends a message to the chat log.
func (s *SQLiteStorage) AddChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNilParameter)
	}
	if err := validateString(msg.Nickname, "nickname"); err != nil {
		return err
	}
	if err := validateString(msg.Message, "message"); err != nil {
		return err
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().In(model.ReportingLocation())
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (nickname, message, created_at)
		VALUES (?, ?, ?)`,
		msg.Nickname, msg.Message, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	msg.ID = id
	return nil
}
