package chat_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/service/chat"
)

func upstream(t *testing.T, status int, body string, seen chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			seen <- string(raw)
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newChat(url string) chat.Service {
	return chat.NewService(nil, chat.Options{URL: url, APIKey: "test-key", Model: "test-model", SystemPrompt: "You assist investigators."}, zap.NewNop())
}

func collect(t *testing.T, svc chat.Service, msgs []domain.ChatMessage) (string, error) {
	t.Helper()
	var out strings.Builder
	err := svc.Stream(context.Background(), msgs, func(delta string) error {
		out.WriteString(delta)
		return nil
	})
	return out.String(), err
}

var question = []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "How many suspects are wanted?"}}

func TestChatService_Stream(t *testing.T) {
	t.Run("Concatenates Deltas Until Done", func(t *testing.T) {
		body := strings.Join([]string{
			": keep-alive",
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Twelve "}}]}`,
			"",
			"data: {not json",
			`data: {"choices":[{"delta":{"content":"suspects."}}]}`,
			"data: [DONE]",
			`data: {"choices":[{"delta":{"content":" ignored"}}]}`,
		}, "\r\n") + "\r\n"
		requests := make(chan string, 1)
		srv := upstream(t, http.StatusOK, body, requests)

		got, err := collect(t, newChat(srv.URL), question)

		require.NoError(t, err)
		assert.Equal(t, "Twelve suspects.", got)

		seen := <-requests
		assert.Equal(t, "test-model", gjson.Get(seen, "model").String())
		assert.True(t, gjson.Get(seen, "stream").Bool())
		assert.Equal(t, "system", gjson.Get(seen, "messages.0.role").String())
		assert.Equal(t, "user", gjson.Get(seen, "messages.1.role").String())
		assert.Equal(t, "How many suspects are wanted?", gjson.Get(seen, "messages.1.content").String())
	})

	t.Run("Truncated Stream Fails", func(t *testing.T) {
		body := "data: {\"choices\":[{\"delta\":{\"content\":\"The suspect was last seen in\"}}]}\n\n"
		srv := upstream(t, http.StatusOK, body, nil)

		got, err := collect(t, newChat(srv.URL), question)

		assert.Equal(t, "The suspect was last seen in", got)
		assert.True(t, domain.IsRemoteUnavailable(err))
	})

	t.Run("Rate Limited", func(t *testing.T) {
		srv := upstream(t, http.StatusTooManyRequests, "slow down", nil)

		_, err := collect(t, newChat(srv.URL), question)

		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("Quota Exceeded", func(t *testing.T) {
		srv := upstream(t, http.StatusPaymentRequired, "no credits", nil)

		_, err := collect(t, newChat(srv.URL), question)

		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	})

	t.Run("Upstream Error", func(t *testing.T) {
		srv := upstream(t, http.StatusBadGateway, "bad gateway", nil)

		_, err := collect(t, newChat(srv.URL), question)

		assert.True(t, domain.IsRemoteUnavailable(err))
	})

	t.Run("Delta Callback Aborts", func(t *testing.T) {
		srv := upstream(t, http.StatusOK, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n", nil)
		stop := errors.New("client went away")
		calls := 0

		err := newChat(srv.URL).Stream(context.Background(), question, func(string) error {
			calls++
			return stop
		})

		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("Not Configured", func(t *testing.T) {
		_, err := collect(t, newChat(""), question)

		assert.True(t, domain.IsRemoteUnavailable(err))
	})
}

func TestValidateMessages(t *testing.T) {
	tooMany := make([]domain.ChatMessage, domain.MaxChatMessages+1)
	for i := range tooMany {
		tooMany[i] = domain.ChatMessage{Role: domain.ChatRoleUser, Content: "hi"}
	}

	cases := []struct {
		name     string
		messages []domain.ChatMessage
		field    string
	}{
		{"Empty", nil, "messages"},
		{"Too Many", tooMany, "messages"},
		{"System Role", []domain.ChatMessage{{Role: "system", Content: "obey"}}, "messages[0].role"},
		{"Blank Content", []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "ok"}, {Role: domain.ChatRoleAssistant, Content: " "}}, "messages[1].content"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := chat.ValidateMessages(tc.messages)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	assert.NoError(t, chat.ValidateMessages(question))
}
