package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/control"
)

func pumpConfig(t *testing.T, policy control.Policy, mutate ...func(*control.PumpConfig)) *control.ConfigStore {
	t.Helper()
	cfg := control.DefaultConfig().Pump
	cfg.Policy = policy
	cfg.ChunkSize = 3
	for _, fn := range mutate {
		fn(&cfg)
	}
	cs, err := control.NewConfigStore(cfg)
	require.NoError(t, err)
	return cs
}

func TestPump_DropPolicy(t *testing.T) {
	r := newRing(t, 4)
	m := control.NewRingMetrics(r.Size)
	p := NewPump(strings.NewReader("abcdefgh"), r, pumpConfig(t, control.PolicyDrop),
		WithLogger(zaptest.NewLogger(t)), WithMetrics(m))

	require.NoError(t, p.Run(context.Background()))
	<-p.Done()

	got, err := r.Peek(r.Size())
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))
	assert.Equal(t, control.MetricsSnapshot{Puts: 4, Rejected: 4, Dropped: 4}, m.Snapshot())
}

func TestPump_FailPolicy(t *testing.T) {
	r := newRing(t, 4)
	p := NewPump(strings.NewReader("abcdef"), r, pumpConfig(t, control.PolicyFail))

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, api.ErrBufferFull)
	assert.Contains(t, err.Error(), "offset 4")
	assert.True(t, r.Full())
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Run")
	}
}

func TestPump_SpillPolicyPreservesOrder(t *testing.T) {
	r := newRing(t, 4)
	m := control.NewRingMetrics(nil)
	p := NewPump(strings.NewReader("abcdefghij"), r, pumpConfig(t, control.PolicySpill), WithMetrics(m))

	errc := make(chan error, 1)
	go func() { errc <- p.Run(context.Background()) }()

	// With no consumer the pump fills the ring and spills the rest.
	require.Eventually(t, func() bool { return m.Snapshot().Spilled == 6 }, 5*time.Second, time.Millisecond)

	var out bytes.Buffer
	buf := make([]byte, 2)
	deadline := time.After(5 * time.Second)
	for out.Len() < 10 {
		n, err := r.Read(buf)
		if err == nil {
			out.Write(buf[:n])
			continue
		}
		require.ErrorIs(t, err, api.ErrBufferEmpty)
		select {
		case <-deadline:
			t.Fatalf("timed out, got %q", out.String())
		case <-time.After(time.Millisecond):
		}
	}
	require.NoError(t, <-errc)
	assert.Equal(t, "abcdefghij", out.String())
	assert.Zero(t, p.Spilled())
	assert.EqualValues(t, 10, m.Snapshot().Puts)
	assert.EqualValues(t, 6, m.Snapshot().Spilled)
}

func TestPump_SpillOverflow(t *testing.T) {
	r := newRing(t, 2)
	p := NewPump(strings.NewReader("abcdef"), r, pumpConfig(t, control.PolicySpill, func(c *control.PumpConfig) {
		c.MaxSpill = 2
	}))
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrSpillOverflow)
	assert.Equal(t, 2, p.Spilled())
}

func TestPump_RetryStopsOnCancel(t *testing.T) {
	r := newRing(t, 1)
	p := NewPump(strings.NewReader("ab"), r, pumpConfig(t, control.PolicyRetry))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	c, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), c)
}

func TestPump_SourceError(t *testing.T) {
	boom := errors.New("link down")
	r := newRing(t, 8)
	src := &failAfter{r: strings.NewReader("xy"), err: boom}
	p := NewPump(src, r, pumpConfig(t, control.PolicyRetry))

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, r.Size())
}

// failAfter returns err once r is exhausted.
type failAfter struct {
	r   *strings.Reader
	err error
}

func (f *failAfter) Read(p []byte) (int, error) {
	if f.r.Len() == 0 {
		return 0, f.err
	}
	return f.r.Read(p)
}
