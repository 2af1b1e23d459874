package explorer

import "genremap/pkg/models"

// Subscribe adds a listener that receives a view after every transition
func (e *Explorer) Subscribe() <-chan *models.View {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ch := make(chan *models.View, 10) // Buffered channel to prevent blocking
	e.listeners = append(e.listeners, ch)
	return ch
}

// Unsubscribe removes a listener (call this when done to prevent memory leaks)
func (e *Explorer) Unsubscribe(ch <-chan *models.View) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for i, listener := range e.listeners {
		if listener == ch {
			close(listener)
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			break
		}
	}
}

// Listeners returns the number of subscribed listeners
func (e *Explorer) Listeners() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return len(e.listeners)
}

// notifyListeners sends the current view to all subscribers (must be called with lock held).
// Listeners whose buffer is full are dropped.
func (e *Explorer) notifyListeners() {
	if len(e.listeners) == 0 {
		return
	}

	view := e.renderLocked()
	kept := e.listeners[:0]
	for _, listener := range e.listeners {
		select {
		case listener <- &view:
			kept = append(kept, listener)
		default:
			close(listener)
		}
	}
	e.listeners = kept
}
