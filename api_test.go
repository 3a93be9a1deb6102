package smartsock

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"
)

// Test logger setup. Kept as the plain stdlib logger the original
// end-to-end test used, rather than switching it to zap, so the repo
// still shows the pre-zap baseline style for at least one test.
var testLogger *log.Logger

func init() {
	testLogger = log.New(os.Stdout, "[SMARTSOCK-TEST] ", log.LstdFlags|log.Lmicroseconds)
}

func TestBasicConnection(t *testing.T) {
	testLogger.Println("=== Starting TestBasicConnection ===")

	listener, err := Listen("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer func() {
		testLogger.Println("Closing listener")
		listener.Close()
	}()

	addr := listener.Addr().String()
	testLogger.Printf("Listener bound to address: %s", addr)

	serverErr := make(chan error, 1)
	serverData := make(chan []byte, 1)

	go func() {
		testLogger.Println("Server: Waiting for connection...")
		conn, err := listener.Accept()
		if err != nil {
			serverErr <- err
			return
		}
		defer conn.Close()

		testLogger.Printf("Server: Accepted connection from %s", conn.RemoteAddr())

		buffer := make([]byte, 1024)
		n, err := conn.Read(buffer)
		if err != nil {
			serverErr <- err
			return
		}
		testLogger.Printf("Server: Read %d bytes: %q", n, buffer[:n])
		serverData <- append([]byte(nil), buffer[:n]...)

		if _, err := conn.Write(buffer[:n]); err != nil {
			serverErr <- err
			return
		}
	}()

	time.Sleep(100 * time.Millisecond)

	conn, err := Dial("udp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	testData := []byte("Hello, smartsock!")
	if _, err := conn.Write(testData); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buffer := make([]byte, 1024)
	n, err := conn.Read(buffer)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	if !bytes.Equal(testData, buffer[:n]) {
		t.Fatalf("Data mismatch: expected %q, got %q", testData, buffer[:n])
	}

	select {
	case err := <-serverErr:
		t.Fatalf("Server error: %v", err)
	case receivedData := <-serverData:
		if !bytes.Equal(testData, receivedData) {
			t.Fatalf("Server received wrong data: expected %q, got %q", testData, receivedData)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for server to receive data")
	}

	testLogger.Println("=== TestBasicConnection completed successfully ===")
}

func TestMultipleConnections(t *testing.T) {
	testLogger.Println("=== Starting TestMultipleConnections ===")

	listener, err := Listen("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().String()
	numConnections := 3

	acceptedErr := make(chan error, numConnections)
	for i := 0; i < numConnections; i++ {
		go func(idx int) {
			conn, err := listener.Accept()
			if err != nil {
				acceptedErr <- err
				return
			}
			defer conn.Close()

			buf := make([]byte, 64)
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			n, err := conn.Read(buf)
			if err != nil {
				acceptedErr <- err
				return
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				acceptedErr <- err
				return
			}
			acceptedErr <- nil
		}(i)
	}

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < numConnections; i++ {
		conn, err := Dial("udp", addr)
		if err != nil {
			t.Fatalf("client %d: dial failed: %v", i, err)
		}
		payload := []byte{byte(i)}
		if _, err := conn.Write(payload); err != nil {
			t.Fatalf("client %d: write failed: %v", i, err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("client %d: read failed: %v", i, err)
		}
		if n != 1 || buf[0] != byte(i) {
			t.Fatalf("client %d: echo mismatch: got %v", i, buf[:n])
		}
		conn.Close()
	}

	for i := 0; i < numConnections; i++ {
		if err := <-acceptedErr; err != nil {
			t.Fatalf("server goroutine %d failed: %v", i, err)
		}
	}

	testLogger.Println("=== TestMultipleConnections completed successfully ===")
}
