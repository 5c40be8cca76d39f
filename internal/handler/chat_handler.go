package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/service/chat"
)

const chatStreamTimeout = 2 * time.Minute

type ChatHandler struct {
	chatService chat.Service
	logger      *zap.Logger
}

func NewChatHandler(chatService chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: logger}
}

type chatEvent struct {
	delta string
	err   error
	done  bool
}

// Chat relays assistant deltas as server-sent events. Upstream failures that
// happen before the first delta are returned as regular error responses.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var input domain.ChatInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if err := chat.ValidateMessages(input.Messages); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), chatStreamTimeout)
	events := make(chan chatEvent, 16)

	go func() {
		defer close(events)
		err := h.chatService.Stream(ctx, input.Messages, func(delta string) error {
			select {
			case events <- chatEvent{delta: delta}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		select {
		case events <- chatEvent{err: err, done: true}:
		case <-ctx.Done():
		}
	}()

	first, ok := <-events
	if !ok || (first.done && first.err != nil) {
		cancel()
		for range events {
		}
		if first.err != nil {
			return first.err
		}
		return domain.NewRemoteUnavailable("chat completion", fmt.Errorf("stream ended unexpectedly"))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			for range events {
			}
		}()

		if !h.writeEvent(w, first) {
			return
		}
		for ev := range events {
			if !h.writeEvent(w, ev) {
				return
			}
		}
	})
	return nil
}

// writeEvent reports whether the stream should continue.
func (h *ChatHandler) writeEvent(w *bufio.Writer, ev chatEvent) bool {
	if ev.done {
		if ev.err != nil {
			h.logger.Warn("chat stream aborted", zap.Error(ev.err))
			payload, _ := json.Marshal(fiber.Map{"message": ev.err.Error()})
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		} else {
			fmt.Fprint(w, "data: [DONE]\n\n")
		}
		_ = w.Flush()
		return false
	}

	payload, err := json.Marshal(fiber.Map{"content": ev.delta})
	if err != nil {
		return false
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if err := w.Flush(); err != nil {
		h.logger.Debug("chat client went away", zap.Error(err))
		return false
	}
	return true
}
