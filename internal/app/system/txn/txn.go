// internal/app/system/txn/txn.go
//
// Package txn runs MongoDB multi-document transactions and detects
// deployments (standalone servers, some managed offerings) that cannot
// run them, so callers can switch to a non-transactional strategy.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotSupported is returned by Runner.Do when the deployment rejected
// the transaction. Nothing inside fn has been committed in that case.
var ErrNotSupported = errors.New("transactions not supported by deployment")

// Server error codes that mean "no transactions here".
const (
	codeIllegalOperation     = 20
	codeNoReplicationEnabled = 51
	codeNotSupportedInTxn    = 263
)

// IsNotSupported reports whether err indicates that the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case codeIllegalOperation, codeNoReplicationEnabled, codeNotSupportedInTxn:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }

	switch {
	case has("transaction") && (has("replica set") || has("session")):
		return true
	case has("session") && has("not supported"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Runner executes functions inside transactions on one client. Once the
// deployment rejects a transaction the Runner remembers it and reports
// Supported() == false for the rest of the process.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New returns a Runner for client. A nil client yields a Runner that never
// supports transactions.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	r := &Runner{client: client, log: logger}
	if client == nil {
		r.unsupported.Store(true)
	}
	return r
}

// Supported reports whether transactions are still believed to work.
func (r *Runner) Supported() bool {
	return r != nil && !r.unsupported.Load()
}

// Do runs fn inside a transaction. The context passed to fn carries the
// session and must be used for every operation that should commit
// atomically. Errors produced by fn are returned unchanged unless they
// show that the deployment cannot run transactions.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.Supported() {
		return ErrNotSupported
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return r.classify(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err == nil {
		return nil
	}
	return r.classify(err)
}

func (r *Runner) classify(err error) error {
	if !IsNotSupported(err) {
		return err
	}
	if r.unsupported.CompareAndSwap(false, true) && r.log != nil {
		r.log.Warn("mongo transactions unavailable; falling back to outbox mirroring", zap.Error(err))
	}
	return fmt.Errorf("%w: %v", ErrNotSupported, err)
}
