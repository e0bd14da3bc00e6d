package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// Shutdown must let an in-flight recommendation request finish before the
// listener closes.
func TestShutdownWaitsForInFlightRequests(t *testing.T) {
	addr := freeAddr(t)

	handlerStarted := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	completed := false

	mux := http.NewServeMux()
	mux.HandleFunc("/api/recommendations/events", func(w http.ResponseWriter, r *http.Request) {
		close(handlerStarted)
		<-release
		w.WriteHeader(http.StatusOK)
		mu.Lock()
		completed = true
		mu.Unlock()
	})

	server := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serverStopped := make(chan struct{})
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.Errorf("serve: %v", err)
		}
		close(serverStopped)
	}()

	requestDone := make(chan struct{})
	go func() {
		resp, err := http.Get("http://" + addr + "/api/recommendations/events")
		if err == nil {
			resp.Body.Close()
		}
		close(requestDone)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not start")
	}

	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
		close(shutdownDone)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)

	for _, step := range []struct {
		name string
		ch   <-chan struct{}
	}{
		{"request", requestDone},
		{"shutdown", shutdownDone},
		{"server stop", serverStopped},
	} {
		select {
		case <-step.ch:
		case <-time.After(10 * time.Second):
			t.Fatalf("%s did not complete", step.name)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !completed {
		t.Error("in-flight request was cut off before completing")
	}
}

func TestSignalNotifyCatchesTermination(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			time.Sleep(20 * time.Millisecond)
			syscall.Kill(syscall.Getpid(), sig)
		}()

		select {
		case got := <-quit:
			if got != sig {
				t.Errorf("expected %v, got %v", sig, got)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("did not receive %v in time", sig)
		}
		signal.Stop(quit)
	}
}
