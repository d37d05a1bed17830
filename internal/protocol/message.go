package protocol

// Op identifies the operation a wire record carries.
type Op int

const (
	// OpText broadcasts a text message to every member of a room.
	OpText Op = 0
	// OpJoin adds the sender to a room ("connect" in protocol terms).
	OpJoin Op = 1
)

// Message is one protocol record. Both operations carry the same fields;
// the server ignores Text on a join (it is conventionally a greeting).
type Message struct {
	Op     Op     `json:"op"`
	Room   string `json:"room"`
	Client string `json:"client"`
	Text   string `json:"text"`
}

// valid reports whether the record is acceptable for dispatch. Records with
// an unknown op or missing identifiers never make it past decoding.
func (m Message) valid() bool {
	if m.Op != OpText && m.Op != OpJoin {
		return false
	}
	return m.Room != "" && m.Client != ""
}
