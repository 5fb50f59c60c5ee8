package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"barkpark-backend/internal/model"
	"barkpark-backend/internal/store"
)

// Message is one push notification: a title/body pair plus an opaque
// key-value payload the client app routes on.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Job pairs a message with the subscription it goes to.
type Job struct {
	Sub model.DeviceSubscription
	Msg Message
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender overrides the push transport. Tests use it to stub delivery.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case job := <-wp.jobs:
			if err := wp.send(ctx, job.Sub, job.Msg); err != nil {
				log.Printf("worker %d: send to %s failed: %v", id, job.Sub.Endpoint, err)
			}
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a single message for asynchronous delivery.
func (wp *WorkerPool) Dispatch(sub model.DeviceSubscription, msg Message) {
	wp.jobs <- Job{Sub: sub, Msg: msg}
}

// DispatchToOwner queues the message for every subscription the owner has.
// An owner with no subscriptions is a silent no-op.
func (wp *WorkerPool) DispatchToOwner(ctx context.Context, ownerID string, msg Message) {
	subs, err := wp.store.SubscriptionsForOwner(ctx, ownerID)
	if err != nil {
		log.Printf("cannot load subscriptions for %s: %v", ownerID, err)
		return
	}
	for _, sub := range subs {
		wp.Dispatch(sub, msg)
	}
}

// SendToOwner delivers the message synchronously to every subscription the
// owner has and reports the last failure. The recap scheduler uses this to
// know whether to mark its reservation sent or failed.
func (wp *WorkerPool) SendToOwner(ctx context.Context, ownerID string, msg Message) error {
	subs, err := wp.store.SubscriptionsForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	var lastErr error
	for _, sub := range subs {
		if err := wp.send(ctx, sub, msg); err != nil {
			log.Printf("send to %s failed: %v", sub.Endpoint, err)
			lastErr = err
		}
	}
	return lastErr
}

// send delivers one notification and prunes the subscription when the push
// service reports the endpoint permanently gone.
func (wp *WorkerPool) send(ctx context.Context, sub model.DeviceSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("subscription %s is no longer valid, deleting", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("failed to delete invalid subscription %s: %v", sub.Endpoint, err)
		}
	}
	return nil
}
