package iso8583

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

func TestProcessorProcess(t *testing.T) {
	p := NewProcessor(newTestPackager(t), WithLogger(logger.Nop()))
	msg, err := p.Process(packCases["financial-request"].text)
	if err != nil {
		t.Fatalf("failed to process: %v", err)
	}
	defer msg.Release()
	if v, _ := msg.GetField(41); v != "TERM0001" {
		t.Fatalf("field 41 %q", v)
	}
}

func TestProcessorBatchKeepsOrder(t *testing.T) {
	p := NewProcessor(newTestPackager(t), WithConcurrency(2))

	names := []string{"financial-request", "network-request", "odd-pan-and-ascii", "empty"}
	texts := make([]string, len(names))
	for i, name := range names {
		texts[i] = packCases[name].text
	}

	results, err := p.ProcessBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("failed to process batch: %v", err)
	}
	defer releaseAll(results)
	for i, name := range names {
		if results[i] == nil || results[i].MTI() != packCases[name].mti {
			t.Fatalf("slot %d: expected %s", i, name)
		}
	}
}

func TestProcessorBatchErrors(t *testing.T) {
	var mu sync.Mutex
	var handled []error
	p := NewProcessor(newTestPackager(t), WithErrorHandler(func(err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	}))

	texts := []string{packCases["empty"].text, "02", packCases["network-request"].text, "XYZ1"}
	results, err := p.ProcessBatch(context.Background(), texts)
	if !errors.Is(err, ErrInvalidMTI) {
		t.Fatalf("expected first error ErrInvalidMTI, got %v", err)
	}
	defer releaseAll(results)
	if results[0] == nil || results[1] != nil || results[2] == nil || results[3] != nil {
		t.Fatalf("unexpected slots %v", results)
	}
	if len(handled) != 2 {
		t.Fatalf("error handler called %d times", len(handled))
	}
}

func TestProcessorBatchCancelled(t *testing.T) {
	p := NewProcessor(newTestPackager(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	texts := []string{packCases["empty"].text, packCases["network-request"].text}
	// A free semaphore slot must not let a cancelled batch run.
	for i := 0; i < 100; i++ {
		results, err := p.ProcessBatch(ctx, texts)
		if !errors.Is(err, context.Canceled) || results != nil {
			t.Fatalf("run %d: expected context.Canceled, got %v", i, err)
		}
	}
}

func TestProcessorStream(t *testing.T) {
	var mu sync.Mutex
	failures := 0
	p := NewProcessor(newTestPackager(t), WithConcurrency(3), WithErrorHandler(func(error) {
		mu.Lock()
		failures++
		mu.Unlock()
	}))

	input := make(chan string)
	output := make(chan *Message, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.ProcessStream(ctx, input, output)
	}()

	for _, text := range []string{packCases["financial-request"].text, "bad", packCases["network-request"].text} {
		input <- text
	}
	close(input)

	if err := <-done; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	close(output)

	var mtis []string
	for msg := range output {
		mtis = append(mtis, msg.MTI())
		msg.Release()
	}
	sort.Strings(mtis)
	if len(mtis) != 2 || mtis[0] != "0200" || mtis[1] != "0800" {
		t.Fatalf("stream produced %v", mtis)
	}
	if failures != 1 {
		t.Fatalf("expected 1 failure, got %d", failures)
	}
}
