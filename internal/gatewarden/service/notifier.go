package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ashvale/gatewarden/internal/gatewarden/types"
	"github.com/ashvale/gatewarden/internal/metrics"
)

// Approver is one chat member eligible to act on verification requests.
type Approver struct {
	ID   string
	Name string
}

// ApproverDirectory enumerates the current approver set: platform
// administrators or members of the configured role allow-list, excluding
// automated accounts.
type ApproverDirectory interface {
	Approvers(ctx context.Context) ([]Approver, error)
}

// DirectMessenger delivers one private message to one recipient.
type DirectMessenger interface {
	SendDirect(ctx context.Context, recipientID, text string) error
}

const defaultNotifyWorkers = 4

// Notifier fans one verification request out to every current approver.
// Deliveries run on a bounded worker pool; a failure to reach one
// approver is skipped and never aborts the siblings or the request.
type Notifier struct {
	directory ApproverDirectory
	messenger DirectMessenger
	prefix    string
	workers   int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewNotifier(dir ApproverDirectory, msgr DirectMessenger, prefix string, workers int, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	if prefix == "" {
		prefix = "!"
	}
	if workers <= 0 {
		workers = defaultNotifyWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		directory: dir,
		messenger: msgr,
		prefix:    prefix,
		workers:   workers,
		logger:    logger,
		metrics:   m,
	}
}

// Notify delivers req to every approver and returns the count of
// successful deliveries. It never returns an error: an empty or
// unreachable approver set simply yields zero.
func (n *Notifier) Notify(ctx context.Context, req types.VerificationRequest) int {
	if n == nil || n.directory == nil || n.messenger == nil {
		return 0
	}

	approvers, err := n.directory.Approvers(ctx)
	if err != nil {
		n.logger.Warn("approver enumeration failed", "error", err)
		return 0
	}
	if len(approvers) == 0 {
		return 0
	}

	text := ApprovalMessage(n.prefix, req)

	var delivered atomic.Int64
	sem := make(chan struct{}, n.workers)
	var wg sync.WaitGroup

	for _, a := range approvers {
		wg.Add(1)
		sem <- struct{}{}
		go func(a Approver) {
			defer wg.Done()
			defer func() { <-sem }()

			err := n.messenger.SendDirect(ctx, a.ID, text)
			n.metrics.RecordDelivery(err == nil)
			if err != nil {
				// Approver may have DMs closed; skip and move on.
				n.logger.Debug("approver DM failed",
					"approver", a.ID, "error", err)
				return
			}
			delivered.Add(1)
		}(a)
	}
	wg.Wait()

	return int(delivered.Load())
}

// ApprovalMessage renders the private message an approver receives:
// the resolved identity, the literal admit command, and a profile link.
func ApprovalMessage(prefix string, req types.VerificationRequest) string {
	return fmt.Sprintf(
		"Verification request\n"+
			"Player: %s (id %d)\n"+
			"Requested by: %s\n"+
			"Approve: %swhitelist add %d\n"+
			"Remove: %swhitelist remove %d\n"+
			"Profile: %s",
		req.Username, req.UserID,
		req.Requester,
		prefix, req.UserID,
		prefix, req.UserID,
		req.ProfileURL,
	)
}
