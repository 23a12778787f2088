package iso8583

import (
	"context"
	"sync"

	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

// Processor unpacks ByteText messages concurrently with a bounded number of
// goroutines.
type Processor struct {
	packager     *Packager
	concurrency  int
	errorHandler func(error)
}

// ProcessorOption defines a function signature for configuring a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency sets the maximum number of concurrent goroutines.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithErrorHandler sets the callback for errors met during batch or stream
// processing.
func WithErrorHandler(handler func(error)) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}

// WithLogger reports processing errors through log.
func WithLogger(log *logger.Logger) ProcessorOption {
	return WithErrorHandler(func(err error) {
		log.Warn().Err(err).Msg("failed to unpack message")
	})
}

// NewProcessor returns a Processor with a concurrency of 4 and a silent
// error handler.
func NewProcessor(packager *Packager, opts ...ProcessorOption) *Processor {
	p := &Processor{
		packager:    packager,
		concurrency: 4,
	}
	WithLogger(logger.Nop())(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process unpacks a single message. The caller owns the result.
func (p *Processor) Process(text string) (*Message, error) {
	return p.packager.Unpack(text)
}

// ProcessBatch unpacks texts concurrently. Results keep the input order;
// failed slots are nil and the first error (by position) is returned along
// with the partial results.
func (p *Processor) ProcessBatch(ctx context.Context, texts []string) ([]*Message, error) {
	results := make([]*Message, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			releaseAll(results)
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			releaseAll(results)
			return nil, ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			msg, err := p.packager.Unpack(text)
			if err != nil {
				errs[idx] = err
				if p.errorHandler != nil {
					p.errorHandler(err)
				}
				return
			}
			results[idx] = msg
		}(i, text)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		releaseAll(results)
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ProcessStream unpacks messages from input and sends them to output until
// input is closed or ctx is done. Messages that fail to unpack go to the
// error handler. Output order is not guaranteed.
func (p *Processor) ProcessStream(ctx context.Context, input <-chan string, output chan<- *Message) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()

		case text, ok := <-input:
			if !ok {
				wg.Wait()
				return nil
			}

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}

			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				defer func() { <-semaphore }()

				msg, err := p.packager.Unpack(text)
				if err != nil {
					if p.errorHandler != nil {
						p.errorHandler(err)
					}
					return
				}

				select {
				case output <- msg:
				case <-ctx.Done():
					msg.Release()
				}
			}(text)
		}
	}
}

func releaseAll(msgs []*Message) {
	for _, m := range msgs {
		if m != nil {
			m.Release()
		}
	}
}
