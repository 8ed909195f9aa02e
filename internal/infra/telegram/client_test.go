package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessage(t *testing.T) {
	m := &models.Message{
		ID:      10,
		Chat:    models.Chat{ID: -100},
		From:    &models.User{ID: 5, Username: "bob", FirstName: "Bob"},
		Caption: "look",
		Date:    1700000000,
		Story:   &models.Story{Chat: models.Chat{Username: "promo", Title: "Win"}},
	}

	msg := convertMessage(m)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, 10, msg.MessageID)
	assert.Equal(t, int64(5), msg.FromID)
	assert.Equal(t, "bob", msg.FromUsername)
	assert.Equal(t, "Bob", msg.FromFirstName)
	assert.Equal(t, "look", msg.Caption)
	assert.Equal(t, int64(1700000000), msg.Date.Unix())
	require.NotNil(t, msg.Story)
	assert.Equal(t, "promo", msg.Story.ChatUsername)
	assert.Equal(t, "Win", msg.Story.ChatTitle)
}

func TestConvertMessage_NoSender(t *testing.T) {
	msg := convertMessage(&models.Message{ID: 1, Chat: models.Chat{ID: 2}, Text: "hi"})
	assert.Zero(t, msg.FromID)
	assert.Nil(t, msg.Story)
	assert.Equal(t, "hi", msg.Text)
}

func TestHandleUpdate_IgnoresNonMessages(t *testing.T) {
	c := &Client{}
	var got []*Message
	c.OnMessage(func(ctx context.Context, msg *Message) { got = append(got, msg) })

	c.handleUpdate(context.Background(), nil, &models.Update{})
	c.handleUpdate(context.Background(), nil, &models.Update{Message: &models.Message{ID: 3}})

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].MessageID)
}

// fakeBotAPI answers Bot API calls by method name
type fakeBotAPI struct {
	mu      sync.Mutex
	methods []string
	results map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	f.mu.Lock()
	f.methods = append(f.methods, method)
	f.mu.Unlock()

	result, ok := f.results[method]
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: unsupported"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
}

func newTestClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return c
}

func TestClient_Actions(t *testing.T) {
	api := &fakeBotAPI{results: map[string]string{
		"deleteMessage": `true`,
		"banChatMember": `true`,
		"sendMessage":   `{"message_id":1,"date":0,"chat":{"id":-200,"type":"supergroup"},"text":"notice"}`,
		"getChatMember": `{"status":"administrator","user":{"id":5,"is_bot":false,"first_name":"Ann"},"can_be_edited":false}`,
	}}
	c := newTestClient(t, api)
	ctx := context.Background()

	require.NoError(t, c.DeleteMessage(ctx, -100, 10))
	require.NoError(t, c.BanChatMember(ctx, -100, 5))
	require.NoError(t, c.SendText(ctx, -200, "notice"))

	status, err := c.GetMemberStatus(ctx, -100, 5)
	require.NoError(t, err)
	assert.Equal(t, "administrator", status)

	assert.Equal(t, []string{"deleteMessage", "banChatMember", "sendMessage", "getChatMember"}, api.methods)
}

func TestClient_ActionError(t *testing.T) {
	c := newTestClient(t, &fakeBotAPI{results: map[string]string{}})

	err := c.DeleteMessage(context.Background(), -100, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete message")
}
