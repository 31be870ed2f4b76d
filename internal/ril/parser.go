package ril

import (
	"bufio"
	"io"
	"strings"
)

// Parser reads a bridge byte stream and emits Events. The stream opens
// with a one-line version banner before the first block; Banner returns
// it once seen.
type Parser struct {
	scanner *bufio.Scanner
	banner  string
}

// NewParser creates a Parser that reads from the given reader.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: bufio.NewScanner(r)}
}

// Banner returns the bridge version banner, or empty string before it
// has been read.
func (p *Parser) Banner() string {
	return p.banner
}

// Next reads the next event from the stream.
// Returns the event and true if an event was read, or a zero Event and
// false at EOF.
func (p *Parser) Next() (Event, bool) {
	var headers []header

	for p.scanner.Scan() {
		line := p.scanner.Text()

		// Strip trailing \r if present (the bridge uses \r\n)
		line = strings.TrimRight(line, "\r")

		// Blank line marks end of an event block
		if line == "" {
			if len(headers) > 0 {
				return Event{headers: headers}, true
			}
			continue
		}

		idx := strings.Index(line, ": ")
		if idx < 0 {
			if len(headers) == 0 {
				// outside a block only the version banner appears bare
				if p.banner == "" {
					p.banner = line
				}
				continue
			}
			// a bare line inside a block continues the previous value;
			// network display records carry multi-line text this way
			headers[len(headers)-1].Value += "\n" + line
			continue
		}

		key := line[:idx]
		value := line[idx+2:]
		headers = append(headers, header{Key: key, Value: value})
	}

	// EOF: return any pending event
	if len(headers) > 0 {
		return Event{headers: headers}, true
	}
	return Event{}, false
}

// ParseAll reads all events from the stream and returns them.
func (p *Parser) ParseAll() []Event {
	var events []Event
	for {
		evt, ok := p.Next()
		if !ok {
			break
		}
		events = append(events, evt)
	}
	return events
}

// ParseBytes is a convenience function that parses all events from a byte
// slice.
func ParseBytes(data []byte) []Event {
	return NewParser(strings.NewReader(string(data))).ParseAll()
}
