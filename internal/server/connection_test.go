package server

import (
	"net"
	"testing"
	"time"
)

func TestConnectionReadWrite(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewConnection(serverSide, time.Second, time.Second)
	defer conn.Close()

	go func() {
		_, _ = clientSide.Write([]byte("USER alice\r\n"))
	}()

	line, err := conn.Reader().ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != "USER alice\r\n" {
		t.Errorf("line = %q", line)
	}

	reply := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := clientSide.Read(buf)
		reply <- string(buf[:n])
	}()

	if _, err := conn.Writer().WriteString("+OK\r\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := <-reply; got != "+OK\r\n" {
		t.Errorf("reply = %q", got)
	}
}

func TestConnectionIdleDeadline(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewConnection(serverSide, time.Second, 20*time.Millisecond)
	defer conn.Close()

	if err := conn.SetIdleDeadline(); err != nil {
		t.Fatalf("SetIdleDeadline: %v", err)
	}

	// No client input: the read must time out instead of blocking forever.
	if _, err := conn.Reader().ReadString('\n'); err == nil {
		t.Error("read past the idle deadline should fail")
	}
}

func TestConnectionZeroTimeoutsDisableDeadlines(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewConnection(serverSide, 0, 0)
	defer conn.Close()

	if err := conn.SetIdleDeadline(); err != nil {
		t.Errorf("SetIdleDeadline with zero timeout: %v", err)
	}
	if err := conn.SetCommandDeadline(); err != nil {
		t.Errorf("SetCommandDeadline with zero timeout: %v", err)
	}
}

func TestConnectionCloseIdempotent(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewConnection(serverSide, 0, 0)
	if conn.IsClosed() {
		t.Error("new connection must not report closed")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.IsClosed() {
		t.Error("IsClosed after Close should be true")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
