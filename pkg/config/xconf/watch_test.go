package xconf_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xobs/pkg/config/xconf"
)

type reloadResult struct {
	name string
	err  error
}

func TestWatch_Reload(t *testing.T) {
	path := writeFile(t, "config.yaml", "app:\n  name: before\n")
	cfg := mustNew(t, path)

	results := make(chan reloadResult, 4)
	w, err := xconf.Watch(cfg, func(c *xconf.Config, err error) {
		select {
		case results <- reloadResult{name: c.Koanf().String("app.name"), err: err}:
		default:
		}
	}, xconf.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// fsnotify 注册完成后再写入
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: after\n"), 0o600))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, "after", r.name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatch_ReloadFailureKeepsConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", "app:\n  name: stable\n")
	cfg := mustNew(t, path)

	results := make(chan reloadResult, 4)
	w, err := xconf.Watch(cfg, func(c *xconf.Config, err error) {
		select {
		case results <- reloadResult{name: c.Koanf().String("app.name"), err: err}:
		default:
		}
	}, xconf.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("app: [broken"), 0o600))

	select {
	case r := <-results:
		assert.ErrorIs(t, r.err, xconf.ErrParseFailed)
		assert.Equal(t, "stable", r.name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_Errors(t *testing.T) {
	_, err := xconf.Watch(nil, nil)
	assert.ErrorIs(t, err, xconf.ErrNilConfig)

	cfg, err := xconf.NewFromBytes(nil, xconf.FormatYAML)
	require.NoError(t, err)
	_, err = xconf.Watch(cfg, nil)
	assert.ErrorIs(t, err, xconf.ErrNotFileBacked)
}

func TestWatch_RunReturnsOnCancel(t *testing.T) {
	cfg := mustNew(t, writeFile(t, "config.yaml", "a: 1\n"))
	w, err := xconf.Watch(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
