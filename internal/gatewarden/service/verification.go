package service

import (
	"context"
	"strings"

	"github.com/ashvale/gatewarden/internal/gatewarden/store"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
	"github.com/ashvale/gatewarden/internal/metrics"
	"github.com/ashvale/gatewarden/internal/roblox"
)

// Outcome classifies the result of a verification request.
type Outcome string

const (
	// OutcomeResolutionFailed: the directory had no match or was
	// unreachable. Surfaced to the requester as a spelling hint.
	OutcomeResolutionFailed Outcome = "resolution_failed"
	// OutcomeAlreadyAdmitted: the resolved id is already whitelisted;
	// no notification is sent.
	OutcomeAlreadyAdmitted Outcome = "already_admitted"
	// OutcomePendingApproval: approvers have been notified.
	OutcomePendingApproval Outcome = "pending_approval"
)

// VerifyResult is what the requesting front-end reports back.
type VerifyResult struct {
	Outcome    Outcome
	UserID     int64
	Username   string
	ProfileURL string
	Notified   int
}

// Workflow orchestrates "request access": resolve the name, consult the
// registry, and fan out an approval request when the player is not yet
// admitted.
//
// The registry read and a later approval are deliberately not one
// transaction: the registry may change through any front-end in between,
// and a duplicate or late approval simply overwrites.
type Workflow struct {
	resolver IdentityResolver
	store    store.WhitelistStore
	notifier *Notifier
	metrics  *metrics.Metrics
}

func NewWorkflow(resolver IdentityResolver, st store.WhitelistStore, notifier *Notifier, m *metrics.Metrics) *Workflow {
	return &Workflow{resolver: resolver, store: st, notifier: notifier, metrics: m}
}

// RequestAccess runs the verification pipeline for one requester. The
// returned error is reserved for internal store failures; resolution
// misses come back as OutcomeResolutionFailed with a nil error.
func (w *Workflow) RequestAccess(ctx context.Context, username, requester string) (VerifyResult, error) {
	username = strings.TrimSpace(username)

	user, err := w.resolver.ResolveByName(ctx, username)
	if err != nil {
		w.metrics.RecordVerification(string(OutcomeResolutionFailed))
		return VerifyResult{Outcome: OutcomeResolutionFailed}, nil
	}

	admitted, err := w.store.Exists(ctx, user.ID)
	if err != nil {
		return VerifyResult{}, err
	}

	profileURL := roblox.ProfileURL(user.ID)
	if admitted {
		w.metrics.RecordVerification(string(OutcomeAlreadyAdmitted))
		return VerifyResult{
			Outcome:    OutcomeAlreadyAdmitted,
			UserID:     user.ID,
			Username:   user.Username,
			ProfileURL: profileURL,
		}, nil
	}

	notified := w.notifier.Notify(ctx, types.VerificationRequest{
		UserID:     user.ID,
		Username:   user.Username,
		Requester:  requester,
		ProfileURL: profileURL,
	})

	w.metrics.RecordVerification(string(OutcomePendingApproval))
	return VerifyResult{
		Outcome:    OutcomePendingApproval,
		UserID:     user.ID,
		Username:   user.Username,
		ProfileURL: profileURL,
		Notified:   notified,
	}, nil
}
