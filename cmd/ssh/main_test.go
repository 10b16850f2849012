package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"hodl-digest/internal/config"
	"hodl-digest/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

type fakeSSHContext struct {
	ssh.Context
	user string
}

func (f fakeSSHContext) User() string { return f.user }

func testPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func TestFingerprintAuth(t *testing.T) {
	allowedKey := testPublicKey(t)
	otherKey := testPublicKey(t)
	ctx := fakeSSHContext{user: "livid"}

	auth := fingerprintAuth([]string{gossh.FingerprintSHA256(allowedKey)})
	if !auth(ctx, allowedKey) {
		t.Fatal("listed fingerprint should be accepted")
	}
	if auth(ctx, otherKey) {
		t.Fatal("unlisted fingerprint should be rejected")
	}
	if fingerprintAuth(nil)(ctx, allowedKey) {
		t.Fatal("empty allow list should reject every key")
	}
}

func TestMainBootstrap(t *testing.T) {
	var serverOpts int
	restore := stubSSHDeps(&serverOpts)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if serverOpts != 4 {
		t.Fatalf("expected address, host key, auth and middleware options, got %d", serverOpts)
	}
}

func stubSSHDeps(serverOpts *int) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewReader := newSnapshotReaderFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
			ReportLocation: time.UTC,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newSnapshotReaderFunc = func(trace.Tracer, string) service.SnapshotReader { return nil }
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		*serverOpts = len(ops)
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newSnapshotReaderFunc = origNewReader
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
