package email

import (
	"net"
	"testing"
	"time"

	"github.com/Fannysbth/kel1paw/internal/config"
)

func TestSendBoundedByTimeout(t *testing.T) {
	// A server that accepts the connection but never sends the SMTP
	// greeting. Without a deadline the client would block forever waiting
	// for it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start listener: %v", err)
	}
	defer func() {
		_ = ln.Close()
	}()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() {
			_ = conn.Close()
		}()
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split listener address: %v", err)
	}

	svc := NewService(&config.EmailConfig{
		SMTPHost: host,
		SMTPPort: port,
		SMTPFrom: "noreply@kel1paw.id",
		Timeout:  200 * time.Millisecond,
	})

	start := time.Now()
	err = svc.SendRequestRejected("requester@ugm.ac.id", "Air Quality Monitor")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected an error from a server that never responds")
	}
	if elapsed > 2*time.Second {
		t.Errorf("Send returned after %v, the deadline did not bound the exchange", elapsed)
	}
}

func TestSendDialFailure(t *testing.T) {
	// Grab a free port and close it again so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start listener: %v", err)
	}
	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split listener address: %v", err)
	}
	_ = ln.Close()

	svc := NewService(&config.EmailConfig{
		SMTPHost: host,
		SMTPPort: port,
		SMTPFrom: "noreply@kel1paw.id",
		Timeout:  time.Second,
	})

	if err := svc.SendRequestApproved("requester@ugm.ac.id", "Air Quality Monitor", ""); err == nil {
		t.Error("Expected an error when no server is listening")
	}
}
