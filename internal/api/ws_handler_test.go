package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/chat"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsFixture runs a real hub behind an httptest server. Callers authenticate
// with an `as` query parameter instead of a JWT; the handler under test only
// sees the resulting context identity, same as in production.
type wsFixture struct {
	*handlerFixture
	hub *chat.Hub
	srv *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	fx := newHandlerFixture(t)
	hub := chat.NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	serveWS := ServeWS(hub, fx.chats)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("as"))
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		user, err := fx.users.GetUserByID(r.Context(), userID)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		identity := models.Identity{ID: user.ID, Role: user.Role}
		serveWS(w, r.WithContext(middleware.WithIdentity(r.Context(), identity)))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		close(hub.Quit)
		<-done
	})

	return &wsFixture{handlerFixture: fx, hub: hub, srv: srv}
}

func (fx *wsFixture) dial(t *testing.T, user *models.User) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(fx.srv.URL, "http") + "/ws?as=" + user.ID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(event))
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func expectNoEvent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "expected no delivery on this connection")
}

func TestWSJoinAndBroadcast(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)

	member := fx.dial(t, fx.member)
	admin := fx.dial(t, fx.admin)

	for _, conn := range []*websocket.Conn{member, admin} {
		send(t, conn, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: c.ID.String()})
		ack := readEvent(t, conn)
		require.Equal(t, chat.EventJoined, ack["type"])
		require.Equal(t, c.ID.String(), ack["chatId"])
	}

	send(t, member, chat.InboundEvent{Type: chat.EventSendMessage, ChatID: c.ID.String(), Text: "is the husky still available?"})

	for _, conn := range []*websocket.Conn{member, admin} {
		event := readEvent(t, conn)
		require.Equal(t, chat.EventNewMessage, event["type"])
		require.Equal(t, c.ID.String(), event["chatId"])
		payload, ok := event["newMessage"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "is the husky still available?", payload["text"])
		require.Equal(t, fx.member.ID.String(), payload["sender"])
	}

	// Persisted before fanout: the history already holds the message.
	messages, err := fx.chats.GetMessages(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, fx.member.ID, messages[0].SenderID)
}

func TestWSBroadcastDoesNotLeakAcrossRooms(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)

	other := &models.User{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", Role: models.RoleUser}
	fx.users.users[other.ID] = other
	direct, err := fx.chats.GetOrCreate(context.Background(), &models.Chat{
		ID:            uuid.New(),
		Kind:          models.KindUserUser,
		DirectParties: &models.DirectParties{User1ID: fx.member.ID, User2ID: other.ID},
	})
	require.NoError(t, err)

	member := fx.dial(t, fx.member)
	bystander := fx.dial(t, other)

	send(t, member, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: c.ID.String()})
	readEvent(t, member)
	send(t, bystander, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: direct.ID.String()})
	readEvent(t, bystander)

	send(t, member, chat.InboundEvent{Type: chat.EventSendMessage, ChatID: c.ID.String(), Text: "hello shelter"})

	require.Equal(t, chat.EventNewMessage, readEvent(t, member)["type"])
	expectNoEvent(t, bystander)
}

func TestWSSenderIsConnectionIdentity(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)

	member := fx.dial(t, fx.member)
	send(t, member, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: c.ID.String()})
	readEvent(t, member)

	// The wire sender field names the admin; the stored sender must still be
	// the authenticated member.
	send(t, member, chat.InboundEvent{
		Type:   chat.EventSendMessage,
		ChatID: c.ID.String(),
		Sender: fx.admin.ID.String(),
		Text:   "spoof attempt",
	})

	event := readEvent(t, member)
	payload := event["newMessage"].(map[string]any)
	require.Equal(t, fx.member.ID.String(), payload["sender"])

	messages, err := fx.chats.GetMessages(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, fx.member.ID, messages[0].SenderID)
}

func TestWSMalformedChatIDKeepsConnectionOpen(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)
	member := fx.dial(t, fx.member)

	send(t, member, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: "not-a-uuid"})
	event := readEvent(t, member)
	require.Equal(t, "invalid chatId", event["error"])

	// Still connected: a valid join works on the same socket.
	send(t, member, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: c.ID.String()})
	require.Equal(t, chat.EventJoined, readEvent(t, member)["type"])
}

func TestWSNonParticipantCannotSend(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)

	stranger := &models.User{ID: uuid.New(), Name: "Eve", Email: "eve@example.com", Role: models.RoleUser}
	fx.users.users[stranger.ID] = stranger
	conn := fx.dial(t, stranger)

	send(t, conn, chat.InboundEvent{Type: chat.EventSendMessage, ChatID: c.ID.String(), Text: "let me in"})
	event := readEvent(t, conn)
	require.Equal(t, "you only have access to your own chats", event["error"])

	messages, err := fx.chats.GetMessages(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestWSSendToUnknownChat(t *testing.T) {
	fx := newWSFixture(t)
	member := fx.dial(t, fx.member)

	send(t, member, chat.InboundEvent{Type: chat.EventSendMessage, ChatID: uuid.NewString(), Text: "anyone there?"})
	require.Equal(t, "chat not found", readEvent(t, member)["error"])
}

func TestWSUnknownEventType(t *testing.T) {
	fx := newWSFixture(t)
	member := fx.dial(t, fx.member)

	require.NoError(t, member.WriteMessage(websocket.TextMessage, []byte(`{"type":"typing"}`)))
	require.Equal(t, "unknown event type", readEvent(t, member)["error"])
}

func TestWSEmptyMessageRejected(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)
	member := fx.dial(t, fx.member)

	send(t, member, chat.InboundEvent{Type: chat.EventSendMessage, ChatID: c.ID.String(), Text: ""})
	event := readEvent(t, member)
	require.Contains(t, event["error"], "empty")

	messages, err := fx.chats.GetMessages(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestWSMalformedJSONIsDropped(t *testing.T) {
	fx := newWSFixture(t)
	c := fx.seedShelterChat(t)
	member := fx.dial(t, fx.member)

	require.NoError(t, member.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	expectNoEvent(t, member)

	// Redial: the deadline above poisoned the old reader.
	member2 := fx.dial(t, fx.member)
	send(t, member2, chat.InboundEvent{Type: chat.EventJoinChat, ChatID: c.ID.String()})
	require.Equal(t, chat.EventJoined, readEvent(t, member2)["type"])
}

func TestWSRequiresIdentity(t *testing.T) {
	fx := newWSFixture(t)

	url := "ws" + strings.TrimPrefix(fx.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
