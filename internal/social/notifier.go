// Package social notifies friends about check-ins and chat activity in the
// parks they like.
package social

import (
	"context"
	"log"
	"sync"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/notification"
	"barkpark-backend/internal/store"
)

// friendChunkSize bounds the fan-out parallelism so a popular owner's friend
// list cannot flood the push backend in one burst.
const friendChunkSize = 10

// Notifier fans presence and chat events out to interested friends.
type Notifier struct {
	store store.Store
	pool  *notification.WorkerPool
}

// NewNotifier creates a social notifier.
func NewNotifier(s store.Store, pool *notification.WorkerPool) *Notifier {
	return &Notifier{store: s, pool: pool}
}

func (n *Notifier) Name() string { return "social-notifier" }

// Handle reacts to check-ins and chat messages. Per-friend failures are
// logged and never abort the loop; an undelivered push is the only symptom.
func (n *Notifier) Handle(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.PresenceCreated:
		n.fanOut(ctx, e.OwnerID, e.ParkID, notification.Message{
			Title: "Friend at your favorite park!",
			Body:  "Your friend just checked into a park you like.",
			Data: map[string]string{
				"parkId":   e.ParkID,
				"friendId": e.OwnerID,
			},
		})
	case event.ChatMessageCreated:
		n.fanOut(ctx, e.SenderID, e.ParkID, notification.Message{
			Title: "New message in your favorite park!",
			Body:  "Your friend posted in a park chat you like.",
			Data: map[string]string{
				"parkId":    e.ParkID,
				"senderId":  e.SenderID,
				"messageId": e.MessageID,
			},
		})
	}
	return nil
}

// fanOut sends msg to every friend of ownerID that has liked parkID,
// processing friends in fixed-size chunks.
func (n *Notifier) fanOut(ctx context.Context, ownerID, parkID string, msg notification.Message) {
	friends, err := n.store.FriendIDs(ctx, ownerID)
	if err != nil {
		log.Printf("cannot list friends of %s: %v", ownerID, err)
		return
	}

	for start := 0; start < len(friends); start += friendChunkSize {
		end := start + friendChunkSize
		if end > len(friends) {
			end = len(friends)
		}

		var wg sync.WaitGroup
		for _, friendID := range friends[start:end] {
			wg.Add(1)
			go func(friendID string) {
				defer wg.Done()
				n.notifyFriend(ctx, friendID, parkID, msg)
			}(friendID)
		}
		wg.Wait()
	}
}

func (n *Notifier) notifyFriend(ctx context.Context, friendID, parkID string, msg notification.Message) {
	liked, err := n.store.LikesPark(ctx, friendID, parkID)
	if err != nil {
		log.Printf("cannot check park like for %s: %v", friendID, err)
		return
	}
	if !liked {
		return
	}
	n.pool.DispatchToOwner(ctx, friendID, msg)
}
