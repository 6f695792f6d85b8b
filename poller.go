package portmon

import (
	"bytes"
	"strings"
)

// Line is one decoded output line from a port. Immutable once produced;
// lines from the same port arrive in the order the device sent them.
type Line struct {
	Port string
	Text string
}

// Poller extracts lines from open connections without blocking. It shares
// the registry's lock, so poll passes never race reconciliation.
type Poller struct {
	reg *Registry
}

// NewPoller creates a poller over the given registry
func NewPoller(reg *Registry) *Poller {
	return &Poller{reg: reg}
}

// Poll drains whatever bytes the port has waiting and returns at most one
// complete line, trailing whitespace trimmed. Returns false when the port
// is not open, when no full line is available yet, or when the line was
// blank. A device error closes and removes the connection and reports
// nothing for that call.
func (p *Poller) Poll(id string) (string, bool) {
	p.reg.mu.Lock()
	defer p.reg.mu.Unlock()
	return p.pollLocked(id)
}

// PollAll runs one poll pass over every tracked port in sorted order
func (p *Poller) PollAll() []Line {
	p.reg.mu.Lock()
	defer p.reg.mu.Unlock()

	var lines []Line
	for _, id := range p.reg.portsLocked() {
		if text, ok := p.pollLocked(id); ok {
			lines = append(lines, Line{Port: id, Text: text})
		}
	}
	return lines
}

func (p *Poller) pollLocked(id string) (string, bool) {
	c, ok := p.reg.conns[id]
	if !ok || c.State != StateOpen {
		return "", false
	}

	// A complete line may already be buffered from an earlier drain.
	if line, ok := takeLine(c); ok {
		return line, true
	}

	waiting, err := c.dev.InWaiting()
	if err != nil {
		p.reg.removeLocked(id, err)
		return "", false
	}
	if waiting == 0 {
		return "", false
	}

	size := waiting
	if size > p.reg.cfg.ReadBufferSize {
		size = p.reg.cfg.ReadBufferSize
	}
	buf := make([]byte, size)
	n, err := c.dev.Read(buf)
	if err != nil {
		p.reg.removeLocked(id, err)
		return "", false
	}
	c.buf = append(c.buf, buf[:n]...)

	return takeLine(c)
}

// takeLine pops the first terminated line off the connection's buffer.
// Trailing whitespace is trimmed and undecodable bytes are dropped rather
// than reported. Blank lines are consumed but not returned.
func takeLine(c *Connection) (string, bool) {
	i := bytes.IndexByte(c.buf, '\n')
	if i < 0 {
		return "", false
	}

	raw := c.buf[:i]
	rest := make([]byte, len(c.buf)-i-1)
	copy(rest, c.buf[i+1:])
	c.buf = rest

	line := strings.TrimRight(strings.ToValidUTF8(string(raw), ""), " \t\r")
	if line == "" {
		return "", false
	}
	return line, true
}
