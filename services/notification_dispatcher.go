package services

import (
	"context"
	"log"
	"sync"
	"time"

	"fitLogAPI/internal/store"
	"fitLogAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// PushDispatcher sends push notifications from a small worker pool so a slow
// push provider never holds up the notifier loop.
type PushDispatcher struct {
	devices  store.DeviceStore
	mu       sync.RWMutex
	provider PushNotificationProvider
	closed   bool
	workers  int
	jobQueue chan *PushJob
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type PushJob struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

func NewPushDispatcher(devices store.DeviceStore, workers int) *PushDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &PushDispatcher{
		devices:  devices,
		provider: &MockPushProvider{},
		workers:  workers,
		jobQueue: make(chan *PushJob, 100),
	}
	d.startWorkers()
	return d
}

// SetPushProvider swaps in the real provider (FCM) from main.go.
func (d *PushDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provider = provider
}

func (d *PushDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *PushDispatcher) worker(id int) {
	defer d.wg.Done()
	for job := range d.jobQueue {
		d.processJob(job)
	}
}

func (d *PushDispatcher) processJob(job *PushJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := d.devices.DeviceTokens(ctx, job.UserID)
	if err != nil {
		log.Printf("Push: failed to load devices for %s: %v", job.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	d.mu.RLock()
	provider := d.provider
	d.mu.RUnlock()

	if err := provider.SendPush(ctx, tokens, job.Title, job.Body, job.Data); err != nil {
		log.Printf("Push: failed for user %s: %v", job.UserID, err)
	}
}

// Enqueue never blocks; the job is dropped when the queue is full.
func (d *PushDispatcher) Enqueue(job *PushJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobQueue <- job:
		return true
	default:
		log.Printf("Push: queue full, dropping notification for %s", job.UserID)
		return false
	}
}

// Stop drains queued jobs and waits for the workers.
func (d *PushDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping push dispatcher...")
		d.mu.Lock()
		d.closed = true
		close(d.jobQueue)
		d.mu.Unlock()
		d.wg.Wait()
		log.Println("Push dispatcher stopped")
	})
}

type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error {
	log.Printf("MOCK PUSH: Sending to %d devices: %s - %s", len(tokens), title, body)
	return nil
}
