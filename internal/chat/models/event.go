package models

type EventType string

const (
	EventNew    EventType = "new"
	EventEdit   EventType = "edit"
	EventDelete EventType = "delete"
	EventRead   EventType = "read"
	EventPing   EventType = "ping"
)

// Event is a frame on the chat stream. Payload fields depend on Type:
// new/edit carry Msg, delete carries ID, read carries MsgID and Username.
type Event struct {
	Type     EventType `json:"type"`
	Msg      *Message  `json:"msg,omitempty"`
	ID       string    `json:"id,omitempty"`
	MsgID    string    `json:"msg_id,omitempty"`
	Username string    `json:"username,omitempty"`
}

var Ping = Event{Type: EventPing}

func NewMessageEvent(m *Message) Event { return Event{Type: EventNew, Msg: m.Clone()} }

func EditEvent(m *Message) Event { return Event{Type: EventEdit, Msg: m.Clone()} }

func DeleteEvent(id string) Event { return Event{Type: EventDelete, ID: id} }

func ReadEvent(id, username string) Event {
	return Event{Type: EventRead, MsgID: id, Username: username}
}
