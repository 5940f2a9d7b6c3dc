// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package logger

// Collects log messages in memory so that tests can assert on them.

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type MemoryLogHook struct {
	messagesLock sync.Mutex
	messages     []MemoryLogMessage
}

type MemoryLogMessage struct {
	Message string
	Level   logrus.Level
}

func NewMemoryLogHook() *MemoryLogHook {
	return &MemoryLogHook{}
}

func (h *MemoryLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *MemoryLogHook) Fire(entry *logrus.Entry) error {
	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()

	h.messages = append(h.messages, MemoryLogMessage{
		Message: entry.Message,
		Level:   entry.Level,
	})

	return nil
}

// Messages returns a copy of all messages collected so far.
func (h *MemoryLogHook) Messages() []MemoryLogMessage {
	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()

	return append([]MemoryLogMessage(nil), h.messages...)
}

// Reset discards all collected messages.
func (h *MemoryLogHook) Reset() {
	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()

	h.messages = nil
}
