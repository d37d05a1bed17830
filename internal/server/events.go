package server

// Events carries the relay's lifecycle notifications. Every field is
// optional; unset callbacks are skipped. Fires are synchronous from the
// goroutine that produced the event, so consumers must not block.
type Events struct {
	RoomCreated        func(roomID string)
	RoomDestroyed      func(roomID string)
	ClientConnected    func(roomID, clientID string)
	ClientDisconnected func(clientID string)
	MessageReceived    func(roomID, clientID, text string)
	Error              func(err error)
}

func (e *Events) roomCreated(roomID string) {
	if e != nil && e.RoomCreated != nil {
		e.RoomCreated(roomID)
	}
}

func (e *Events) roomDestroyed(roomID string) {
	if e != nil && e.RoomDestroyed != nil {
		e.RoomDestroyed(roomID)
	}
}

func (e *Events) clientConnected(roomID, clientID string) {
	if e != nil && e.ClientConnected != nil {
		e.ClientConnected(roomID, clientID)
	}
}

func (e *Events) clientDisconnected(clientID string) {
	if e != nil && e.ClientDisconnected != nil {
		e.ClientDisconnected(clientID)
	}
}

func (e *Events) messageReceived(roomID, clientID, text string) {
	if e != nil && e.MessageReceived != nil {
		e.MessageReceived(roomID, clientID, text)
	}
}

func (e *Events) error(err error) {
	if e != nil && e.Error != nil {
		e.Error(err)
	}
}
