package timer

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LiveSplit Server commands
const (
	cmdStart      = "starttimer"
	cmdSplit      = "split"
	cmdReset      = "reset"
	cmdPauseGT    = "pausegametime"
	cmdResumeGT   = "unpausegametime"
	cmdInitGT     = "initgametime"
	cmdQueryPhase = "getcurrenttimerphase"
)

var _ Timer = (*LiveSplit)(nil)

// LiveSplit drives a LiveSplit instance through its Server component, a
// line-based protocol on TCP. A broken connection reports Unknown and is
// dialled again on the next command.
type LiveSplit struct {
	mu      sync.Mutex
	addr    string
	timeout time.Duration
	conn    net.Conn
	r       *bufio.Reader
	log     *logger.Logger
}

func NewLiveSplit(addr string, timeout time.Duration) *LiveSplit {
	return &LiveSplit{
		addr:    addr,
		timeout: timeout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "livesplit")),
	}
}

// Close drops the connection
func (l *LiveSplit) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnect()
}

func (l *LiveSplit) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.send(cmdQueryPhase); err != nil {
		return Unknown
	}
	if err := l.conn.SetReadDeadline(time.Now().Add(l.timeout)); err != nil {
		l.fail(cmdQueryPhase, err)
		return Unknown
	}
	line, err := l.r.ReadString('\n')
	if err != nil {
		l.fail(cmdQueryPhase, err)
		return Unknown
	}
	return ParsePhase(line)
}

func (l *LiveSplit) Start()          { l.command(cmdStart) }
func (l *LiveSplit) Split()          { l.command(cmdSplit) }
func (l *LiveSplit) Reset()          { l.command(cmdReset) }
func (l *LiveSplit) PauseGameTime()  { l.command(cmdPauseGT) }
func (l *LiveSplit) ResumeGameTime() { l.command(cmdResumeGT) }

func (l *LiveSplit) command(cmd string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.send(cmd)
}

// send assumes the mutex is held
func (l *LiveSplit) send(cmd string) error {
	if l.conn == nil {
		if err := l.connect(); err != nil {
			l.log.Debugln("connect", l.addr, "failed:", err)
			return err
		}
	}
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		l.fail(cmd, err)
		return err
	}
	if _, err := fmt.Fprintf(l.conn, "%s\r\n", cmd); err != nil {
		l.fail(cmd, err)
		return err
	}
	return nil
}

func (l *LiveSplit) connect() error {
	conn, err := net.DialTimeout("tcp", l.addr, l.timeout)
	if err != nil {
		return err
	}
	l.conn = conn
	l.r = bufio.NewReader(conn)
	l.log.Infoln("Connected to", l.addr)

	// game time is compared against real time until initialised
	if _, err := fmt.Fprintf(conn, "%s\r\n", cmdInitGT); err != nil {
		l.fail(cmdInitGT, err)
		return err
	}
	return nil
}

func (l *LiveSplit) fail(cmd string, err error) {
	l.log.Warn("LiveSplit command ", cmd, " failed: ", err)
	_ = l.disconnect()
}

func (l *LiveSplit) disconnect() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	l.r = nil
	return err
}
