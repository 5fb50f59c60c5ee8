package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"barkpark-backend/internal/db"
	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/notification"
	"barkpark-backend/internal/store"
)

type capturingSender struct {
	mu   sync.Mutex
	sent map[string]notification.Message // endpoint -> last message
}

func (c *capturingSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var msg notification.Message
	_ = json.Unmarshal(payload, &msg)
	if c.sent == nil {
		c.sent = map[string]notification.Message{}
	}
	c.sent[sub.Endpoint] = msg
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}, nil
}

func (c *capturingSender) endpoints() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for ep := range c.sent {
		out = append(out, ep)
	}
	return out
}

func (c *capturingSender) message(endpoint string) (notification.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.sent[endpoint]
	return msg, ok
}

func newFixture(t *testing.T) (*Notifier, store.Store, *gorm.DB, *capturingSender, func()) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(db.Models()...))

	s := store.NewGormStore(gormDB)
	sender := &capturingSender{}
	pool := notification.NewWorkerPool(2, s, &webpush.Options{})
	pool.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	return NewNotifier(s, pool), s, gormDB, sender, cancel
}

// seedFriend registers friendID as a friend of ownerID with one device,
// optionally liking parkID.
func seedFriend(t *testing.T, gormDB *gorm.DB, ownerID, friendID, parkID string, likes bool) {
	t.Helper()
	require.NoError(t, gormDB.Create(&model.Friendship{OwnerID: ownerID, FriendID: friendID}).Error)
	require.NoError(t, gormDB.Create(&model.DeviceSubscription{
		Endpoint: "https://push.example/" + friendID, OwnerID: friendID, P256DH: "k", Auth: "a",
	}).Error)
	if likes {
		require.NoError(t, gormDB.Create(&model.ParkLike{OwnerID: friendID, ParkID: parkID}).Error)
	}
}

func TestCheckInNotifiesFriendsWhoLikeThePark(t *testing.T) {
	n, _, gormDB, sender, stop := newFixture(t)
	defer stop()

	seedFriend(t, gormDB, "u1", "fan", "p1", true)
	seedFriend(t, gormDB, "u1", "indifferent", "p1", false)

	require.NoError(t, n.Handle(context.Background(), event.PresenceCreated{ParkID: "p1", OwnerID: "u1"}))

	assert.Eventually(t, func() bool {
		_, ok := sender.message("https://push.example/fan")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	msg, _ := sender.message("https://push.example/fan")
	assert.Equal(t, "Friend at your favorite park!", msg.Title)
	assert.Equal(t, "p1", msg.Data["parkId"])
	assert.Equal(t, "u1", msg.Data["friendId"])

	// The friend who never liked the park stays quiet.
	time.Sleep(100 * time.Millisecond)
	assert.NotContains(t, sender.endpoints(), "https://push.example/indifferent")
}

func TestChatMessageNotifiesFriends(t *testing.T) {
	n, _, gormDB, sender, stop := newFixture(t)
	defer stop()

	seedFriend(t, gormDB, "u1", "fan", "p1", true)

	require.NoError(t, n.Handle(context.Background(), event.ChatMessageCreated{
		ParkID: "p1", SenderID: "u1", MessageID: "m1",
	}))

	assert.Eventually(t, func() bool {
		_, ok := sender.message("https://push.example/fan")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	msg, _ := sender.message("https://push.example/fan")
	assert.Equal(t, "New message in your favorite park!", msg.Title)
	assert.Equal(t, "m1", msg.Data["messageId"])
	assert.Equal(t, "u1", msg.Data["senderId"])
}

func TestLargeFriendListFansOutInChunks(t *testing.T) {
	n, _, gormDB, sender, stop := newFixture(t)
	defer stop()

	// More friends than one chunk holds.
	for i := 0; i < 23; i++ {
		seedFriend(t, gormDB, "u1", fmt.Sprintf("f%02d", i), "p1", true)
	}

	require.NoError(t, n.Handle(context.Background(), event.PresenceCreated{ParkID: "p1", OwnerID: "u1"}))

	assert.Eventually(t, func() bool {
		return len(sender.endpoints()) == 23
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNoFriendsIsQuiet(t *testing.T) {
	n, _, _, sender, stop := newFixture(t)
	defer stop()

	require.NoError(t, n.Handle(context.Background(), event.PresenceCreated{ParkID: "p1", OwnerID: "loner"}))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sender.endpoints())
}
