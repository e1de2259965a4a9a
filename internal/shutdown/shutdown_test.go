package shutdown

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l.WithField("test", true)
}

func TestGracefulServe_DrainsOnSignal(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	lis := httptest.NewServer(http.NewServeMux())
	defer lis.Close()
	srv.Addr = lis.Listener.Addr().String()

	done := make(chan error, 1)
	go func() {
		done <- GracefulServe(srv, 2*time.Second, testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("GracefulServe returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("GracefulServe did not return after SIGTERM")
	}
}

func TestRun_StopsServerAndScheduler(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	lis := httptest.NewServer(http.NewServeMux())
	defer lis.Close()
	srv.Addr = lis.Listener.Addr().String()

	var stopCalled bool
	stop := func(ctx context.Context) {
		stopCalled = true
	}

	done := make(chan error, 1)
	go func() {
		done <- Run(srv, stop, 2*time.Second, testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
		if !stopCalled {
			t.Error("expected stop() to be called before Run returned")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after SIGINT")
	}
}

func TestRun_NilServerStillStops(t *testing.T) {
	var stopCalled bool
	stop := func(ctx context.Context) { stopCalled = true }

	done := make(chan error, 1)
	go func() {
		done <- Run(nil, stop, time.Second, testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
		if !stopCalled {
			t.Error("expected stop() to be called")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after SIGTERM")
	}
}
