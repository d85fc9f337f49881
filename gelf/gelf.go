package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

const (
	levelError   = 3
	levelWarning = 4
	levelInfo    = 6
)

// Writer sends every write as one GELF message over UDP. It implements
// io.Writer so it can be teed with stderr through log.SetOutput.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
	now      func() time.Time
}

func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &Writer{conn: conn, hostname: hostname, service: service, now: time.Now}, nil
}

// Write never fails the log call; delivery is best effort.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(string(p)))
	if err != nil {
		return len(p), nil
	}
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

func (w *Writer) message(line string) map[string]any {
	short := stripLogPrefix(strings.TrimRight(line, "\n"))

	level := levelInfo
	switch {
	case strings.Contains(short, "panic") || strings.Contains(short, "fatal"):
		level = levelError
	case strings.HasPrefix(short, "warning:"):
		level = levelWarning
	}

	return map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"timestamp":     float64(w.now().UnixNano()) / 1e9,
		"level":         level,
		"_service":      w.service,
	}
}

// stripLogPrefix drops the "2006/01/02 15:04:05 " prefix of the standard logger.
func stripLogPrefix(msg string) string {
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' && msg[13] == ':' && msg[16] == ':' {
		return msg[20:]
	}
	return msg
}
