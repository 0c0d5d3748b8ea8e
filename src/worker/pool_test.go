package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	p := New(1, nil)
	defer p.Close()
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := func(context.Context) (string, error) {
		close(started)
		<-release
		return "done", nil
	}

	done := make(chan string, 1)
	require.True(t, p.Submit(ctx, blocking, func(text string, _ error) { done <- text }), "first submit should succeed")
	<-started

	// Worker busy: the single queue slot takes one more, the next must drop.
	noop := func(context.Context) (string, error) { return "", nil }
	ok2 := p.Submit(ctx, noop, func(string, error) {})
	ok3 := p.Submit(ctx, noop, func(string, error) {})
	assert.True(t, ok2)
	assert.False(t, ok3, "expected submit to drop due to full queue")

	close(release)
	select {
	case text := <-done:
		assert.Equal(t, "done", text)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
}

func TestPoolPassesErrorsAndContext(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	boom := errors.New("boom")

	got := make(chan error, 1)
	ok := p.Submit(ctx, func(ctx context.Context) (string, error) {
		assert.Equal(t, "value", ctx.Value(key{}))
		return "", boom
	}, func(_ string, err error) { got <- err })
	require.True(t, ok)

	select {
	case err := <-got:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestPoolCloseTwice(t *testing.T) {
	p := New(2, nil)
	p.Close()
	p.Close()
}

func TestPoolCancelledJobFreesWorker(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	// The job ignores its context, like a request with no HTTP timeout.
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	stuck := func(context.Context) (string, error) {
		close(started)
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	require.True(t, p.Submit(ctx, stuck, func(_ string, err error) { first <- err }))
	<-started
	cancel()

	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled job kept the worker")
	}

	next := make(chan string, 1)
	require.True(t, p.Submit(context.Background(), func(context.Context) (string, error) {
		return "next", nil
	}, func(text string, _ error) { next <- text }))

	select {
	case text := <-next:
		assert.Equal(t, "next", text)
	case <-time.After(2 * time.Second):
		t.Fatal("worker not released after cancellation")
	}
}

func TestPoolSkipsJobCancelledWhileQueued(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	got := make(chan error, 1)
	require.True(t, p.Submit(ctx, func(context.Context) (string, error) {
		ran = true
		return "", nil
	}, func(_ string, err error) { got <- err }))

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}
