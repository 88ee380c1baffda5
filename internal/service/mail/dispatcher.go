package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Dispatcher drains a queue of outbound messages with a small worker pool.
// Enqueueing never blocks a ledger operation: when the queue is full the
// message is dropped and the drop is logged.
type Dispatcher struct {
	ctx    context.Context
	log    *zerolog.Logger
	client *Client
	queue  chan Message
	wg     *sync.WaitGroup
}

type sendWorker struct {
	ID     int
	ctx    context.Context
	log    *zerolog.Logger
	client *Client
	queue  chan Message
}

// InitDispatcher initializes the mail dispatcher.
func InitDispatcher(ctx context.Context, client *Client, log *zerolog.Logger, wg *sync.WaitGroup, workerNumber int) *Dispatcher {
	if workerNumber <= 0 {
		workerNumber = 1
	}
	dispatcher := Dispatcher{
		ctx:    ctx,
		log:    log,
		client: client,
		queue:  make(chan Message, 100),
		wg:     wg,
	}
	dispatcher.listenAndSend(workerNumber)
	return &dispatcher
}

// Enqueue hands a message to the worker pool. The returned flag reports
// whether the message was accepted.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn().Msg(fmt.Sprintf("mail queue is full, dropping message for %s", msg.To))
		return false
	}
}

func (d *Dispatcher) listenAndSend(workerNumber int) {
	d.wg.Add(1)
	go func() {
		d.log.Info().Msg("started listening to queue for outbound messages")
		defer d.wg.Done()
		g, _ := errgroup.WithContext(d.ctx)
		for i := 0; i < workerNumber; i++ {
			w := &sendWorker{ID: i, ctx: d.ctx, log: d.log, client: d.client, queue: d.queue}
			g.Go(w.sendAsync)
		}
		<-d.ctx.Done()
		close(d.queue)
		d.log.Info().Msg("closed queue for outbound messages")
		err := g.Wait()
		if err != nil {
			d.log.Error().Err(err).Msg("closing errgroup failed")
		}
		d.log.Info().Msg("stopped listening to queue for outbound messages")
	}()
}

func (w *sendWorker) sendAsync() error {
	for msg := range w.queue {
		err := w.client.Send(w.ctx, msg)
		if err != nil {
			// best-effort delivery, failures are swallowed
			w.log.Warn().Err(err).Msg(fmt.Sprintf("WID %v, message for %s could not be sent", w.ID, msg.To))
			continue
		}
		w.log.Info().Msg(fmt.Sprintf("WID %v, message for %s sent", w.ID, msg.To))
	}
	return nil
}
