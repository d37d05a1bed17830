package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// The wire format is one JSON object per line, UTF-8, terminated by '\n'
// ('\r\n' is accepted on decode). JSON string escaping guarantees the
// separator never appears inside a field value, so no further framing is
// needed.

// Encode serializes msg as a single newline-terminated record.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return append(data, '\n'), nil
}

// Write encodes msg and writes it to w.
func Write(w io.Writer, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode scans buf for complete newline-terminated records and parses each
// one independently. Records that fail to parse are dropped, never surfaced:
// a TCP read may hold zero, one, or many records, and a record may arrive
// split across reads, so decoding degrades to "no messages this pass"
// instead of erroring.
//
// consumed is the offset just past the last separator found. Callers keep
// buf[consumed:] (a trailing partial record) and feed it back on the next
// pass, which makes decoding insensitive to where the stream was split.
func Decode(buf []byte) (msgs []Message, consumed int) {
	for {
		i := bytes.IndexByte(buf[consumed:], '\n')
		if i < 0 {
			return msgs, consumed
		}
		line := buf[consumed : consumed+i]
		consumed += i + 1
		if msg, ok := parseRecord(line); ok {
			msgs = append(msgs, msg)
		}
	}
}

// DecodeAll is the terminal pass for a finished stream: it decodes every
// separated record and additionally tries the trailing bytes as one last
// unterminated record.
func DecodeAll(buf []byte) []Message {
	msgs, consumed := Decode(buf)
	if rest := buf[consumed:]; len(rest) > 0 {
		if msg, ok := parseRecord(rest); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func parseRecord(line []byte) (Message, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(bytes.TrimSpace(line)) == 0 {
		return Message{}, false
	}
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, false
	}
	if !msg.valid() {
		return Message{}, false
	}
	return msg, true
}
