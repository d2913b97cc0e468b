package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/launchdeck-platform/models"
)

func collect(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d events, wanted %d", len(out), n)
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events, wanted %d", len(out), n)
		}
	}
	return out
}

func waitClosed(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel, got event seq %d", ev.Seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close")
	}
}

func TestAppendAssignsMonotonicSequences(t *testing.T) {
	bus := NewBus(0)
	for i := 0; i < 5; i++ {
		seq := bus.Append(Event{Kind: EventKindLog, Message: "line"})
		if seq != int64(i) {
			t.Fatalf("append %d: got seq %d", i, seq)
		}
	}
	if got := bus.NextSeq(); got != 5 {
		t.Fatalf("NextSeq = %d, want 5", got)
	}
}

func TestAttachReplaysThenFollowsLive(t *testing.T) {
	bus := NewBus(0)
	bus.Append(Event{Kind: EventKindLog, Message: "one"})
	bus.Append(Event{Kind: EventKindLog, Message: "two"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Attach(ctx, 0)

	replayed := collect(t, ch, 2)
	if replayed[0].Message != "one" || replayed[1].Message != "two" {
		t.Fatalf("replay out of order: %v", replayed)
	}

	bus.Append(Event{Kind: EventKindLog, Message: "three"})
	live := collect(t, ch, 1)
	if live[0].Message != "three" || live[0].Seq != 2 {
		t.Fatalf("live event wrong: %+v", live[0])
	}
}

func TestAttachFromMidSequenceSkipsDelivered(t *testing.T) {
	bus := NewBus(0)
	for _, msg := range []string{"a", "b", "c", "d"} {
		bus.Append(Event{Kind: EventKindLog, Message: msg})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Attach(ctx, 2)

	got := collect(t, ch, 2)
	if got[0].Seq != 2 || got[1].Seq != 3 {
		t.Fatalf("resume delivered seqs %d,%d, want 2,3", got[0].Seq, got[1].Seq)
	}
}

func TestExactlyOnceAcrossSubscribers(t *testing.T) {
	bus := NewBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := bus.Attach(ctx, 0)
	b := bus.Attach(ctx, 0)

	for i := 0; i < 10; i++ {
		bus.Append(Event{Kind: EventKindLog, Message: "line"})
	}
	bus.Seal(models.DeploymentStatusReady, "https://app.example", 42)

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		events := collect(t, ch, 11)
		for i, ev := range events {
			if ev.Seq != int64(i) {
				t.Fatalf("subscriber %s: event %d has seq %d", name, i, ev.Seq)
			}
		}
		if events[10].Kind != EventKindComplete {
			t.Fatalf("subscriber %s: last event kind %s", name, events[10].Kind)
		}
		waitClosed(t, ch)
	}
}

func TestSealAppendsCompleteAndClosesReaders(t *testing.T) {
	bus := NewBus(0)
	bus.Append(Event{Kind: EventKindLog, Message: "building"})
	bus.Seal(models.DeploymentStatusReady, "https://demo.launchdeck.app", 95)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Attach(ctx, 0)

	events := collect(t, ch, 2)
	complete := events[1]
	if complete.Kind != EventKindComplete {
		t.Fatalf("expected complete event, got %s", complete.Kind)
	}
	if complete.Status != models.DeploymentStatusReady || complete.URL != "https://demo.launchdeck.app" || complete.Duration != 95 {
		t.Fatalf("complete payload wrong: %+v", complete)
	}
	waitClosed(t, ch)
}

func TestAppendAfterSealIsIgnored(t *testing.T) {
	bus := NewBus(0)
	bus.Seal(models.DeploymentStatusError, "", 0)
	if seq := bus.Append(Event{Kind: EventKindLog, Message: "late"}); seq != -1 {
		t.Fatalf("append after seal returned %d, want -1", seq)
	}
	if got := bus.NextSeq(); got != 1 {
		t.Fatalf("NextSeq changed after rejected append: %d", got)
	}
}

func TestSealTwiceIsNoop(t *testing.T) {
	bus := NewBus(0)
	bus.Seal(models.DeploymentStatusCancelled, "", 0)
	bus.Seal(models.DeploymentStatusReady, "", 0)
	if got := bus.NextSeq(); got != 1 {
		t.Fatalf("second seal appended an event: next=%d", got)
	}
}

func TestAttachHonorsStartSequence(t *testing.T) {
	// A bus recreated after restart starts numbering where the
	// persisted log left off.
	bus := NewBus(7)
	if seq := bus.Append(Event{Kind: EventKindLog, Message: "resumed"}); seq != 7 {
		t.Fatalf("first seq after restart = %d, want 7", seq)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Attach(ctx, 0)
	got := collect(t, ch, 1)
	if got[0].Seq != 7 {
		t.Fatalf("attach from 0 on restarted bus delivered seq %d", got[0].Seq)
	}
}

func TestContextCancelClosesSubscriber(t *testing.T) {
	bus := NewBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	ch := bus.Attach(ctx, 0)
	cancel()
	waitClosed(t, ch)
}

func TestRegistryGetOrCreateKeepsExistingNumbering(t *testing.T) {
	registry := NewRegistry()
	first := registry.GetOrCreate("dep-1", 5)
	second := registry.GetOrCreate("dep-1", 99)
	if first != second {
		t.Fatal("GetOrCreate returned a different bus for the same id")
	}
	if seq := second.Append(Event{Kind: EventKindLog}); seq != 5 {
		t.Fatalf("existing bus renumbered: seq=%d", seq)
	}

	registry.Remove("dep-1")
	if _, ok := registry.Get("dep-1"); ok {
		t.Fatal("bus still present after Remove")
	}
}
