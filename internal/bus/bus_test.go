package bus

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPidFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string // "" means no file
		wantErr  bool
		wantGone bool
	}{
		{name: "no file"},
		{name: "own pid", content: strconv.Itoa(os.Getpid()), wantErr: true},
		{name: "stale pid", content: "2147483646", wantGone: true},
		{name: "garbage", content: "not-a-pid", wantGone: true},
		{name: "negative", content: "-4", wantGone: true},
		{name: "trailing newline", content: strconv.Itoa(os.Getpid()) + "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &pidManager{path: filepath.Join(t.TempDir(), PidName)}
			if tt.content != "" {
				if err := os.WriteFile(p.path, []byte(tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			err := p.checkExisting()
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkExisting() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), strconv.Itoa(os.Getpid())) {
				t.Errorf("error should name the pid: %v", err)
			}
			_, statErr := os.Stat(p.path)
			if tt.wantGone && !os.IsNotExist(statErr) {
				t.Error("stale pid file should be removed")
			}
		})
	}
}

func TestPidCreateRemove(t *testing.T) {
	p := &pidManager{path: filepath.Join(t.TempDir(), "nested", PidName)}

	if err := p.create(); err != nil {
		t.Fatalf("create() error = %v", err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != strconv.Itoa(os.Getpid()) {
		t.Errorf("pid file = %q, want %d", data, os.Getpid())
	}

	if err := p.remove(); err != nil {
		t.Fatalf("remove() error = %v", err)
	}
	if _, err := os.Stat(p.path); !os.IsNotExist(err) {
		t.Error("pid file should be gone")
	}
}

// serve answers every connection with reply(cmd) until the listener closes.
func serve(t *testing.T, ln net.Listener, reply func(cmd byte) string) {
	t.Helper()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				line, err := bufio.NewReader(c).ReadString('\n')
				if err != nil || line == "" {
					return
				}
				c.Write([]byte(reply(line[0])))
			}(c)
		}
	}()
}

func shortTempDir(t *testing.T) string {
	t.Helper()
	// unix socket paths are limited to ~100 bytes
	dir, err := os.MkdirTemp("", "wc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestSocketRoundTrip(t *testing.T) {
	s := &socketManager{path: filepath.Join(shortTempDir(t), "run", SockName)}

	ln, err := s.listen()
	if err != nil {
		t.Fatalf("listen() error = %v", err)
	}
	defer ln.Close()

	serve(t, ln, func(cmd byte) string {
		switch cmd {
		case CmdStatus:
			return "STATUS status=idle\n"
		case CmdVersion:
			return "STATUS proto=" + ProtoVer + "\n"
		default:
			return "ERR unknown\n"
		}
	})

	tests := []struct {
		cmd  byte
		want string
	}{
		{CmdStatus, "STATUS status=idle\n"},
		{CmdVersion, "STATUS proto=" + ProtoVer + "\n"},
		{'x', "ERR unknown\n"},
	}
	for _, tt := range tests {
		got, err := s.send(tt.cmd)
		if err != nil {
			t.Fatalf("send(%q) error = %v", tt.cmd, err)
		}
		if got != tt.want {
			t.Errorf("send(%q) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(shortTempDir(t), SockName)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	ln, err := (&socketManager{path: path}).listen()
	if err != nil {
		t.Fatalf("listen() over a stale file error = %v", err)
	}
	ln.Close()
}

func TestSendTimesOutOnSilentServer(t *testing.T) {
	s := &socketManager{path: filepath.Join(shortTempDir(t), SockName)}
	ln, err := s.listen()
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	hold := make(chan struct{})
	defer close(hold)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		c.Close()
	}()

	start := time.Now()
	if _, err := s.send(CmdStatus); err == nil {
		t.Error("expected a timeout")
	}
	if elapsed := time.Since(start); elapsed > dialTimeout+time.Second {
		t.Errorf("send took %v", elapsed)
	}
}

func TestCommandBytesDistinct(t *testing.T) {
	seen := map[byte]bool{}
	for _, c := range []byte{CmdToggle, CmdStatus, CmdVersion, CmdQuit} {
		if seen[c] {
			t.Errorf("duplicate command byte %q", c)
		}
		seen[c] = true
	}
}

func TestSendCommandNoDaemon(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", shortTempDir(t))
	if _, err := SendCommand(CmdStatus); err == nil {
		t.Error("expected an error with no daemon listening")
	}
}

func TestDefaultPaths(t *testing.T) {
	cache := shortTempDir(t)
	t.Setenv("XDG_CACHE_HOME", cache)

	sock, err := SockPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(cache, "whisperclip", SockName); sock != want {
		t.Errorf("SockPath() = %s, want %s", sock, want)
	}
	pid, err := PidPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(cache, "whisperclip", PidName); pid != want {
		t.Errorf("PidPath() = %s, want %s", pid, want)
	}
}
