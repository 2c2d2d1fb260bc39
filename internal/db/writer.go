package db

import (
	"context"
	"database/sql"
)

// TxFn runs inside a write transaction owned by the Writer.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Writer serializes all write transactions through a single goroutine.
// SQLite permits one writer at a time; queueing here keeps contention out
// of the driver and gives every mutation its own transaction.
type Writer struct {
	conn *sql.DB
	jobs chan job
	done chan struct{}
}

func NewWriter(conn *sql.DB) *Writer {
	w := &Writer{
		conn: conn,
		jobs: make(chan job, 256),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close drains the queue and stops the loop.
func (w *Writer) Close() {
	close(w.jobs)
	<-w.done
}

// Do runs fn in a transaction on the writer goroutine and returns its
// result. If the caller's context expires while the job is queued or
// running, Do returns early; the transaction itself still completes and
// its result is discarded into the buffered channel.
func (w *Writer) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)

	select {
	case w.jobs <- job{ctx: ctx, fn: fn, ch: ch}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer close(w.done)

	for j := range w.jobs {
		tx, err := w.conn.BeginTx(j.ctx, nil)
		if err != nil {
			j.ch <- err
			continue
		}
		if err := j.fn(j.ctx, tx); err != nil {
			_ = tx.Rollback()
			j.ch <- err
			continue
		}
		j.ch <- tx.Commit()
	}
}
