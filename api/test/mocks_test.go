package test

import (
	"context"
	"io"
	"sync"

	"github.com/aneebrehman51/komugybynarumii/core/order"
)

// mockUploader keeps uploaded objects in memory, addressable by key the way
// the real bucket would be.
type mockUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMockUploader() *mockUploader {
	return &mockUploader{objects: map[string][]byte{}}
}

func (m *mockUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = data

	return "https://uploads.test/" + key, nil
}

func (m *mockUploader) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockUploader) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Object returns the stored bytes for the public URL the API handed out.
func (m *mockUploader) Object(url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	const prefix = "https://uploads.test/"
	if len(url) <= len(prefix) {
		return nil, false
	}
	data, ok := m.objects[url[len(prefix):]]
	return data, ok
}

// mockMailer records dispatched notification events.
type mockMailer struct {
	mu     sync.Mutex
	events []order.Event
	err    error
}

func newMockMailer() *mockMailer {
	return &mockMailer{}
}

func (m *mockMailer) SendOrderNotification(evt order.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockMailer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockMailer) Events() []order.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
