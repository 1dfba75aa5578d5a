package telegram

import (
	"context"
	"sync"
)

// runRegistry держит отмену текущей обработки каждого чата
type runRegistry struct {
	mu      sync.Mutex
	cancels map[int64]*runHandle
}

type runHandle struct {
	cancel context.CancelFunc
}

func newRunRegistry() *runRegistry {
	return &runRegistry{cancels: make(map[int64]*runHandle)}
}

// start регистрирует обработку чата. done снимает регистрацию и освобождает
// контекст. Пока обработка чата зарегистрирована, повторный start вернёт false.
func (r *runRegistry) start(parent context.Context, chatID int64) (context.Context, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.cancels[chatID]; busy {
		return nil, nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	handle := &runHandle{cancel: cancel}
	r.cancels[chatID] = handle

	return ctx, func() {
		r.mu.Lock()
		if r.cancels[chatID] == handle {
			delete(r.cancels, chatID)
		}
		r.mu.Unlock()
		cancel()
	}, true
}

// running сообщает, идёт ли обработка чата
func (r *runRegistry) running(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.cancels[chatID]
	return ok
}

// cancel останавливает обработку чата, если она идёт
func (r *runRegistry) cancel(chatID int64) bool {
	r.mu.Lock()
	handle, ok := r.cancels[chatID]
	r.mu.Unlock()

	if ok {
		handle.cancel()
	}
	return ok
}

func (r *runRegistry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, handle := range r.cancels {
		handle.cancel()
	}
}
