package muxer

import (
	"context"
	"testing"
	"time"

	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

type fakeTransport struct {
	written   [][]byte
	onWrite   func([]byte)
	writeErr  error
}

func (f *fakeTransport) WriteFrame(frame []byte) error {
	f.written = append(f.written, frame)
	if f.onWrite != nil {
		f.onWrite(frame)
	}
	return f.writeErr
}

func TestSendDeliverRoundTrip(t *testing.T) {
	m := New(time.Second)
	var sentSeq uint32
	ft := &fakeTransport{onWrite: func(frame []byte) {
		env, err := wire.Unmarshal(frame)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		sentSeq = env.Seq
		go m.Deliver(env.Seq, &wire.Envelope{Seq: env.Seq, ActionCode: wire.CodeOK})
	}}

	resp, err := m.Send(context.Background(), ft, &wire.Envelope{Action: wire.ActionRequest})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.Seq != sentSeq || resp.ActionCode != wire.CodeOK {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSendAssignsIncrementingSeq(t *testing.T) {
	m := New(time.Second)
	var seqs []uint32
	ft := &fakeTransport{onWrite: func(frame []byte) {
		env, _ := wire.Unmarshal(frame)
		seqs = append(seqs, env.Seq)
		go m.Deliver(env.Seq, &wire.Envelope{Seq: env.Seq, ActionCode: wire.CodeOK})
	}}

	for i := 0; i < 3; i++ {
		if _, err := m.Send(context.Background(), ft, &wire.Envelope{Action: wire.ActionRequest}); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("expected strictly increasing seqs, got %v", seqs)
		}
	}
}

func TestSendTimesOut(t *testing.T) {
	m := New(20 * time.Millisecond)
	ft := &fakeTransport{}
	_, err := m.Send(context.Background(), ft, &wire.Envelope{Action: wire.ActionRequest})
	if err == nil {
		t.Fatal("expected a timeout error when nothing delivers a response")
	}
}

func TestSendRespectsContextCancellation(t *testing.T) {
	m := New(time.Minute)
	ft := &fakeTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Send(ctx, ft, &wire.Envelope{Action: wire.ActionRequest})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDeliverAfterTimeoutIsDroppedNotLeaked(t *testing.T) {
	m := New(10 * time.Millisecond)
	ft := &fakeTransport{}
	var capturedSeq uint32
	ft.onWrite = func(frame []byte) {
		env, _ := wire.Unmarshal(frame)
		capturedSeq = env.Seq
	}

	_, err := m.Send(context.Background(), ft, &wire.Envelope{Action: wire.ActionRequest})
	if err == nil {
		t.Fatal("expected a timeout error")
	}

	before := m.DroppedLate()
	m.Deliver(capturedSeq, &wire.Envelope{Seq: capturedSeq, ActionCode: wire.CodeOK})
	if m.DroppedLate() != before+1 {
		t.Fatalf("expected DroppedLate to increment for a late delivery, got %d -> %d", before, m.DroppedLate())
	}

	m.mu.Lock()
	_, stillPresent := m.slots[capturedSeq]
	m.mu.Unlock()
	if stillPresent {
		t.Fatal("slot for a timed-out request was not removed, this leaks memory")
	}
}

func TestDeliverUnknownSeqIsDropped(t *testing.T) {
	m := New(time.Second)
	before := m.DroppedLate()
	m.Deliver(999999, &wire.Envelope{Seq: 999999})
	if m.DroppedLate() != before+1 {
		t.Fatal("expected DroppedLate to count a response with no matching slot")
	}
}
