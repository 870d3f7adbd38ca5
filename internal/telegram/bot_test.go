package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"companion-bot/internal/core"
)

type fakeSender struct {
	sent  []string
	chats []int64
	err   error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sw := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sw.Text)
	f.chats = append(f.chats, sw.ChatID)
	return tgbotapi.Message{}, f.err
}

type fakeHandler struct {
	reply string
	got   []core.Request
}

func (f *fakeHandler) Handle(_ context.Context, req core.Request) string {
	f.got = append(f.got, req)
	return f.reply
}

func newTestBot(h Handler) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	return &Bot{s: fs, handler: h, token: "secret", logger: zap.NewNop()}, fs
}

func commandMessage(text string, cmdLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func TestHandleIncomingMessage_Command(t *testing.T) {
	h := &fakeHandler{reply: "⚡ ok"}
	b, fs := newTestBot(h)

	b.handleIncomingMessage(context.Background(), commandMessage("/homesignal Home Signal. Kai, activate", len("/homesignal")))

	require.Len(t, h.got, 1)
	assert.Equal(t, core.Request{
		CallerID: 42,
		Command:  "homesignal",
		Args:     "Home Signal. Kai, activate",
		Text:     "/homesignal Home Signal. Kai, activate",
	}, h.got[0])
	assert.Equal(t, []string{"⚡ ok"}, fs.sent)
	assert.Equal(t, []int64{100}, fs.chats)
}

func TestHandleIncomingMessage_FreeText(t *testing.T) {
	h := &fakeHandler{reply: "hi"}
	b, _ := newTestBot(h)
	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7}, Chat: &tgbotapi.Chat{ID: 7}, Text: "hello Kai",
	})
	require.Len(t, h.got, 1)
	assert.Empty(t, h.got[0].Command)
	assert.Equal(t, "hello Kai", h.got[0].Text)
}

func TestHandleIncomingMessage_SkipsEmpty(t *testing.T) {
	h := &fakeHandler{}
	b, fs := newTestBot(h)
	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "no sender"})
	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}})
	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "x"})
	assert.Len(t, h.got, 1, "only the valid message reaches the handler")
	assert.Empty(t, fs.sent, "empty reply is not sent")
}

func TestSendMessage_Chunks(t *testing.T) {
	b, fs := newTestBot(&fakeHandler{})
	long := strings.Repeat("⚡", maxMessageLen) + strings.Repeat("a", 10)
	b.sendMessage(1, long)
	require.Len(t, fs.sent, 2)
	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(fs.sent[0]))
	assert.Equal(t, strings.Repeat("a", 10), fs.sent[1])
}

func TestSendMessage_StopsOnError(t *testing.T) {
	b, fs := newTestBot(&fakeHandler{})
	fs.err = errors.New("blocked")
	b.sendMessage(1, strings.Repeat("x", maxMessageLen*3))
	assert.Len(t, fs.sent, 1, "stops after the first failure")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, splitMessage("abcdefghij", 4))
}

func TestRouter(t *testing.T) {
	var updates []tgbotapi.Update
	r := NewRouter("secret", func(_ context.Context, u tgbotapi.Update) {
		updates = append(updates, u)
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", strings.TrimSpace(rec.Body.String()))

	body := `{"update_id":1,"message":{"message_id":5,"text":"hi","chat":{"id":9,"type":"private"},"from":{"id":9}}}`
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/secret", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "hi", updates[0].Message.Text)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wrong", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/secret", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, updates, 1, "bad requests deliver nothing")
}
