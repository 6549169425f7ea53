package proxy

import (
	"context"
	"errors"
	"net"
	"testing"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client == nil {
			t.Fatal("expected non-nil client")
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q, expected %q", client.ProxyAddress(), "127.0.0.1:9050")
		}
	})

	t.Run("localhost:port is valid", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("localhost:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client == nil {
			t.Fatal("expected non-nil client")
		}
	})

	t.Run("empty address returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address without port returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address with empty host returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(":9050")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address with empty port returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1:")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address with multiple colons returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1:9050:extra")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests the proxy address validation function.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:9050", true},
		{"valid hostname with port", "proxy.example.com:1080", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"multiple colons", "127.0.0.1:9050:extra", false},
		{"only colon", ":", false},
		{"port zero", "127.0.0.1:0", false},
		{"port too large", "127.0.0.1:70000", false},
		{"non-numeric port", "127.0.0.1:abc", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := isValidProxyAddress(tc.address)
			if result != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, result, tc.expected)
			}
		})
	}
}

// TestStatus tests Status String and Error methods.
func TestStatus(t *testing.T) {
	t.Parallel()

	t.Run("String method returns correct values", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			status   Status
			expected string
		}{
			{StatusOK, "OK"},
			{StatusWrongType, "wrong type (not SOCKS5)"},
			{StatusCannotConnect, "cannot connect"},
			{StatusTimeout, "timeout"},
			{Status(99), "unknown"},
		}

		for _, tc := range testCases {
			if tc.status.String() != tc.expected {
				t.Errorf("Status(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.expected)
			}
		}
	})

	t.Run("Error method returns correct errors", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			status      Status
			expectedErr error
		}{
			{StatusOK, nil},
			{StatusWrongType, ErrProxyNotSOCKS5},
			{StatusCannotConnect, ErrProxyCannotConnect},
			{StatusTimeout, ErrProxyTimeout},
		}

		for _, tc := range testCases {
			err := tc.status.Error()
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("Status(%d).Error() = %v, expected %v", tc.status, err, tc.expectedErr)
			}
		}
	})

	t.Run("Unknown status returns error", func(t *testing.T) {
		t.Parallel()

		unknown := Status(99)
		err := unknown.Error()
		if err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

// TestDialer tests the Dialer method.
func TestDialer(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	dialer := client.Dialer()
	if dialer == nil {
		t.Error("expected non-nil dialer")
	}
}

// TestCheckConnection tests the SOCKS5 proxy verification.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("returns CannotConnect for non-existent proxy", func(t *testing.T) {
		t.Parallel()

		// Use a port that's unlikely to be in use
		client, err := NewClient("127.0.0.1:59999")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != StatusCannotConnect {
			t.Errorf("expected StatusCannotConnect, got %v", status)
		}
	})

	t.Run("returns WrongType for non-SOCKS5 server", func(t *testing.T) {
		t.Parallel()

		// Start a mock server that doesn't speak SOCKS5
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			// Read the client's SOCKS5 greeting first (important for Windows)
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			// Send HTTP response instead of SOCKS5
			_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != StatusWrongType {
			t.Errorf("expected StatusWrongType, got %v", status)
		}
	})

	t.Run("returns WrongType for SOCKS5 requiring auth", func(t *testing.T) {
		t.Parallel()

		// Start a mock SOCKS5 server that requires auth
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			// Read client greeting
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			// Respond with SOCKS5 version but require auth (0xFF = no acceptable methods)
			_, _ = conn.Write([]byte{0x05, 0xFF})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != StatusWrongType {
			t.Errorf("expected StatusWrongType, got %v", status)
		}
	})

	t.Run("returns OK for valid SOCKS5 proxy", func(t *testing.T) {
		t.Parallel()

		// Start a mock SOCKS5 server
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			// Read client greeting (version + num methods + methods)
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)

			// Respond with SOCKS5 version, no auth required
			_, _ = conn.Write([]byte{0x05, 0x00})

			// Read CONNECT request
			connectBuf := make([]byte, 256)
			_, _ = conn.Read(connectBuf)

			// Respond with host unreachable (failure is fine for verification)
			// version + reply + reserved + addr type + addr + port
			_, _ = conn.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != StatusOK {
			t.Errorf("expected StatusOK, got %v", status)
		}
	})

	t.Run("returns WrongType for wrong version in CONNECT response", func(t *testing.T) {
		t.Parallel()

		// Start a mock server that sends wrong version in CONNECT response
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			// Read client greeting
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)

			// Respond with SOCKS5 version, no auth required
			_, _ = conn.Write([]byte{0x05, 0x00})

			// Read CONNECT request
			connectBuf := make([]byte, 256)
			_, _ = conn.Read(connectBuf)

			// Respond with wrong version (0x04 instead of 0x05)
			_, _ = conn.Write([]byte{0x04, 0x00, 0x00, 0x01})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != StatusWrongType {
			t.Errorf("expected StatusWrongType, got %v", status)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59998")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		status := client.CheckConnection(ctx)
		// Should return CannotConnect or Timeout due to cancelled context
		if status != StatusCannotConnect && status != StatusTimeout {
			t.Errorf("expected StatusCannotConnect or StatusTimeout, got %v", status)
		}
	})
}
