// Package bot decides what to do with each incoming Telegram message:
// gate by allow-list, handle commands, or relay the text to the model
// and deliver the reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IlazCode/GigaChatBot/internal/gigachat"
	"github.com/IlazCode/GigaChatBot/internal/history"
)

// After a credential-expired failure the handler refreshes once and
// retries once. A second 401 in the same turn is a real error.
const maxCredentialRetries = 1

const typingInterval = 4 * time.Second

// ChatClient is the slice of the model client the handler needs.
type ChatClient interface {
	EnsureToken(ctx context.Context) error
	Refresh(ctx context.Context) error
	Chat(ctx context.Context, messages []gigachat.Message) (gigachat.Message, error)
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// HistoryStore persists per-user transcripts between turns.
type HistoryStore interface {
	Read(userID int64) ([]gigachat.Message, error)
	Append(userID int64, turns ...gigachat.Message) error
	Clear(userID int64) error
}

// Sender delivers replies back to the chat.
type Sender interface {
	SendMessageChunked(ctx context.Context, chatID int64, text string, replyToMessageID int64) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, filename string, replyToMessageID int64) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// Incoming is one user message stripped down to what the handler uses.
type Incoming struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
}

type Handler struct {
	chat    ChatClient
	store   HistoryStore
	sender  Sender
	allowed map[int64]bool
	logger  *slog.Logger
}

func NewHandler(chat ChatClient, store HistoryStore, sender Sender, allowed map[int64]bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chat:    chat,
		store:   store,
		sender:  sender,
		allowed: allowed,
		logger:  logger,
	}
}

// Handle processes one message end to end. Unauthorized users get a
// denial reply and nothing else happens on their behalf.
func (h *Handler) Handle(ctx context.Context, in Incoming) error {
	if !h.allowed[in.UserID] {
		h.logger.Warn("access_denied", "user_id", in.UserID, "chat_id", in.ChatID)
		return h.sender.SendMessageChunked(ctx, in.ChatID, replyDenied, in.MessageID)
	}

	text := strings.TrimSpace(in.Text)
	switch {
	case text == "/start":
		return h.sender.SendMessageChunked(ctx, in.ChatID, replyGreeting, in.MessageID)
	case text == "/reset":
		return h.handleReset(ctx, in)
	default:
		return h.handleRelay(ctx, in, text)
	}
}

func (h *Handler) handleReset(ctx context.Context, in Incoming) error {
	err := h.store.Clear(in.UserID)
	switch {
	case err == nil:
		return h.sender.SendMessageChunked(ctx, in.ChatID, replyHistoryGone, in.MessageID)
	case errors.Is(err, history.ErrNoHistory):
		return h.sender.SendMessageChunked(ctx, in.ChatID, replyNoHistory, in.MessageID)
	default:
		h.logger.Error("history_clear_error", "user_id", in.UserID, "error", err.Error())
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, replyResetFailed, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}
}

func (h *Handler) handleRelay(ctx context.Context, in Incoming, text string) error {
	stopTyping := h.startTypingTicker(ctx, in.ChatID)
	defer stopTyping()

	if err := h.chat.EnsureToken(ctx); err != nil {
		h.logger.Error("token_ensure_error", "user_id", in.UserID, "error", err.Error())
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, replyAuthFailed, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}

	transcript, err := h.store.Read(in.UserID)
	if err != nil {
		h.logger.Error("history_read_error", "user_id", in.UserID, "error", err.Error())
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, replyChatFailed, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}

	userTurn := gigachat.Message{Role: gigachat.RoleUser, Content: text}
	messages := append(transcript, userTurn)

	var reply gigachat.Message
	for attempt := 0; ; attempt++ {
		reply, err = h.chat.Chat(ctx, messages)
		if err == nil {
			break
		}
		if errors.Is(err, gigachat.ErrCredentialExpired) && attempt < maxCredentialRetries {
			h.logger.Info("credential_refresh", "user_id", in.UserID, "attempt", attempt+1)
			if refreshErr := h.chat.Refresh(ctx); refreshErr != nil {
				err = fmt.Errorf("refresh after expired credential: %w", refreshErr)
				break
			}
			continue
		}
		break
	}
	if err != nil {
		h.logger.Error("chat_completion_error", "user_id", in.UserID, "error", err.Error())
		notice := replyChatFailed
		if errors.Is(err, gigachat.ErrCredentialExpired) || errors.Is(err, gigachat.ErrAuthorization) {
			notice = replyAuthFailed
		}
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, notice, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}

	if fileID, ok := gigachat.ExtractImageRef(reply.Content); ok {
		return h.deliverImage(ctx, in, userTurn, fileID)
	}

	if err := h.store.Append(in.UserID, userTurn, reply); err != nil {
		h.logger.Error("history_append_error", "user_id", in.UserID, "error", err.Error())
	}
	return h.sender.SendMessageChunked(ctx, in.ChatID, reply.Content, in.MessageID)
}

// deliverImage downloads the referenced file, re-encodes it as JPEG and
// posts it as a photo. Only the user's turn is persisted: the transcript
// stores text, not transport markup.
func (h *Handler) deliverImage(ctx context.Context, in Incoming, userTurn gigachat.Message, fileID string) error {
	_ = h.sender.SendChatAction(ctx, in.ChatID, "upload_photo")

	raw, err := h.chat.FetchFile(ctx, fileID)
	if err != nil {
		h.logger.Error("image_fetch_error", "user_id", in.UserID, "file_id", fileID, "error", err.Error())
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, replyImageFailed, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}
	jpg, err := gigachat.ReencodeJPEG(raw)
	if err != nil {
		h.logger.Error("image_encode_error", "user_id", in.UserID, "file_id", fileID, "error", err.Error())
		if sendErr := h.sender.SendMessageChunked(ctx, in.ChatID, replyImageFailed, in.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}

	if err := h.sender.SendPhoto(ctx, in.ChatID, jpg, "image.jpg", in.MessageID); err != nil {
		return err
	}
	if err := h.store.Append(in.UserID, userTurn); err != nil {
		h.logger.Error("history_append_error", "user_id", in.UserID, "error", err.Error())
	}
	return nil
}

func (h *Handler) startTypingTicker(ctx context.Context, chatID int64) func() {
	if chatID == 0 {
		return func() {}
	}
	ticker := time.NewTicker(typingInterval)
	done := make(chan struct{})

	go func() {
		_ = h.sender.SendChatAction(ctx, chatID, "typing")
		for {
			select {
			case <-ticker.C:
				_ = h.sender.SendChatAction(ctx, chatID, "typing")
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}
