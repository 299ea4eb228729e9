package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/akademi/akademi/internal/playback"
)

const (
	dialTimeout  = 500 * time.Millisecond
	queryTimeout = 1 * time.Second
)

// MpvProbe observes a running mpv instance over its JSON IPC socket and
// implements playback.Player. mpv may not have started yet, may exit at
// any moment, or may be busy resolving the stream; every query returns an
// error in those cases and the probe drops the connection so the next
// Ready() retries from scratch.
type MpvProbe struct {
	socketPath string
	logger     *slog.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int
}

// NewMpvProbe creates a probe for the given IPC socket path.
func NewMpvProbe(socketPath string, logger *slog.Logger) *MpvProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &MpvProbe{
		socketPath: socketPath,
		logger:     logger,
	}
}

// Ready reports whether the probe can talk to mpv, connecting lazily.
func (p *MpvProbe) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return true
	}
	if p.socketPath == "" {
		return false
	}

	conn, err := net.DialTimeout("unix", p.socketPath, dialTimeout)
	if err != nil {
		return false
	}

	p.conn = conn
	p.reader = bufio.NewReader(conn)
	p.logger.Debug("connected to mpv ipc", "socket", p.socketPath)
	return true
}

// Close drops the IPC connection.
func (p *MpvProbe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropLocked()
}

func (p *MpvProbe) dropLocked() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	p.reader = nil
	return err
}

// State returns the current playback state.
func (p *MpvProbe) State() (playback.PlayerState, error) {
	if eof, err := p.getBool("eof-reached"); err == nil && eof {
		return playback.PlayerStateEnded, nil
	}

	paused, err := p.getBool("pause")
	if err != nil {
		return playback.PlayerStateUnknown, err
	}
	if paused {
		return playback.PlayerStatePaused, nil
	}
	return playback.PlayerStatePlaying, nil
}

// CurrentTime returns the playback position in seconds.
func (p *MpvProbe) CurrentTime() (float64, error) {
	return p.getFloat("playback-time")
}

// Duration returns the total duration in seconds, zero while unknown.
func (p *MpvProbe) Duration() (float64, error) {
	d, err := p.getFloat("duration")
	if err != nil {
		// mpv reports no duration until the stream is resolved.
		return 0, nil
	}
	return d, nil
}

type mpvResponse struct {
	Error     string      `json:"error"`
	Data      interface{} `json:"data"`
	RequestID int         `json:"request_id"`
}

// getProperty round-trips a get_property command. Any transport or
// protocol error tears down the connection.
func (p *MpvProbe) getProperty(name string) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil, fmt.Errorf("mpv not connected")
	}

	p.nextID++
	cmd := map[string]interface{}{
		"command":    []interface{}{"get_property", name},
		"request_id": p.nextID,
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	deadline := time.Now().Add(queryTimeout)
	p.conn.SetDeadline(deadline)

	if _, err := p.conn.Write(payload); err != nil {
		p.dropLocked()
		return nil, fmt.Errorf("mpv write failed: %w", err)
	}

	// mpv interleaves asynchronous events with replies; skip until our
	// request_id comes back.
	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			p.dropLocked()
			return nil, fmt.Errorf("mpv read failed: %w", err)
		}

		var resp mpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.RequestID != p.nextID {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv error: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (p *MpvProbe) getFloat(name string) (float64, error) {
	data, err := p.getProperty(name)
	if err != nil {
		return 0, err
	}
	f, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("mpv property %s: unexpected type %T", name, data)
	}
	return f, nil
}

func (p *MpvProbe) getBool(name string) (bool, error) {
	data, err := p.getProperty(name)
	if err != nil {
		return false, err
	}
	b, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("mpv property %s: unexpected type %T", name, data)
	}
	return b, nil
}
