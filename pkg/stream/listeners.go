package stream

import "sync"

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

type entry[F any] struct {
	id ListenerID
	fn F
}

// registry keeps listeners per event class in registration order. It
// outlives connections, so listeners registered before Connect or kept
// across reconnects stay attached.
type registry struct {
	mu      sync.Mutex
	next    ListenerID
	open    []entry[func()]
	close   []entry[func(error)]
	errs    []entry[func(error)]
	message []entry[func([]byte)]
}

func add[F any](r *registry, list *[]entry[F], fn F) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	*list = append(*list, entry[F]{id: r.next, fn: fn})
	return r.next
}

func remove[F any](r *registry, list *[]entry[F], id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range *list {
		if e.id == id {
			*list = append((*list)[:i:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

func snapshot[F any](r *registry, list *[]entry[F]) []F {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]F, len(*list))
	for i, e := range *list {
		out[i] = e.fn
	}
	return out
}

// OnOpen registers fn for connection open, before any handshake payload is sent.
func (s *Session) OnOpen(fn func()) ListenerID { return add(&s.listeners, &s.listeners.open, fn) }

// OnClose registers fn for connection loss. err is nil for a clean server
// close and a LivenessTimeout error when the heartbeat expired. Disconnect
// does not fire close listeners.
func (s *Session) OnClose(fn func(error)) ListenerID {
	return add(&s.listeners, &s.listeners.close, fn)
}

// OnError registers fn for non-fatal errors: decode failures, token renewal
// failures, write failures and auth rejection.
func (s *Session) OnError(fn func(error)) ListenerID {
	return add(&s.listeners, &s.listeners.errs, fn)
}

// OnMessage registers fn for every decoded message, control messages included.
func (s *Session) OnMessage(fn func([]byte)) ListenerID {
	return add(&s.listeners, &s.listeners.message, fn)
}

func (s *Session) RemoveOnOpen(id ListenerID) bool {
	return remove(&s.listeners, &s.listeners.open, id)
}

func (s *Session) RemoveOnClose(id ListenerID) bool {
	return remove(&s.listeners, &s.listeners.close, id)
}

func (s *Session) RemoveOnError(id ListenerID) bool {
	return remove(&s.listeners, &s.listeners.errs, id)
}

func (s *Session) RemoveOnMessage(id ListenerID) bool {
	return remove(&s.listeners, &s.listeners.message, id)
}

func (s *Session) emitOpen(g *generation) {
	for _, fn := range snapshot(&s.listeners, &s.listeners.open) {
		if g.detached() {
			return
		}
		fn()
	}
}

func (s *Session) emitClose(g *generation, err error) {
	for _, fn := range snapshot(&s.listeners, &s.listeners.close) {
		if g.detached() {
			return
		}
		fn(err)
	}
}

func (s *Session) emitError(g *generation, err error) {
	s.logger.Warn().Err(err).Uint64("generation", g.id).Msg("stream error")
	for _, fn := range snapshot(&s.listeners, &s.listeners.errs) {
		if g.detached() {
			return
		}
		fn(err)
	}
}

func (s *Session) emitMessage(g *generation, msg []byte) {
	for _, fn := range snapshot(&s.listeners, &s.listeners.message) {
		if g.detached() {
			return
		}
		fn(msg)
	}
}
