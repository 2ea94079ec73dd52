package bot

import (
	"context"
	"sync"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventType names the kind of message an event handler listens to
type EventType string

const (
	// EventNewMembers fires for service messages announcing new chat members
	EventNewMembers EventType = "new_members"
	// EventMessage fires for every non-command message
	EventMessage EventType = "message"
)

// EventFunc handles a message event
type EventFunc func(ctx context.Context, client *ExtendedClient, msg *tgbotapi.Message)

// EventHandler manages event registration and dispatch
type EventHandler struct {
	client   *ExtendedClient
	handlers map[EventType][]EventFunc
	mu       sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client:   client,
		handlers: make(map[EventType][]EventFunc),
	}
}

// RegisterEvent adds a handler for events of type t
func (eh *EventHandler) RegisterEvent(t EventType, fn EventFunc) {
	eh.mu.Lock()
	eh.handlers[t] = append(eh.handlers[t], fn)
	eh.mu.Unlock()
	logger.Debug("Event registered: "+string(t), "EventHandler")
}

// Emit runs every handler of t. A panicking handler does not stop the others.
func (eh *EventHandler) Emit(ctx context.Context, t EventType, msg *tgbotapi.Message) {
	eh.mu.RLock()
	handlers := eh.handlers[t]
	eh.mu.RUnlock()

	for _, fn := range handlers {
		func() {
			defer errors.RecoverMiddleware()()
			fn(ctx, eh.client, msg)
		}()
	}
}

// Count returns the number of registered handlers
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	n := 0
	for _, hs := range eh.handlers {
		n += len(hs)
	}
	return n
}
