package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ashvale/gatewarden/internal/gatewarden/store"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
	"github.com/ashvale/gatewarden/internal/metrics"
	"github.com/ashvale/gatewarden/internal/roblox"
)

var (
	// ErrUnauthorized means the caller lacks administrator capability.
	// The operation has no side effect.
	ErrUnauthorized = errors.New("administrator capability required")
	// ErrNotWhitelisted means the id has no entry to remove.
	ErrNotWhitelisted = errors.New("user is not whitelisted")
	// ErrInvalidUserID rejects non-positive ids before any store access.
	ErrInvalidUserID = errors.New("user_id must be a positive integer")
)

// IdentityResolver maps player names to canonical ids and back. It is
// satisfied by *roblox.Client.
type IdentityResolver interface {
	ResolveByName(ctx context.Context, username string) (roblox.User, error)
	ResolveByID(ctx context.Context, userID int64) (roblox.User, error)
}

// AdminPolicy decides whether a capability counts as administrator:
// the platform-native admin flag, or membership in the configured role
// allow-list.
type AdminPolicy struct {
	AllowedRoleIDs map[int64]struct{}
}

func NewAdminPolicy(roleIDs []int64) AdminPolicy {
	allowed := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
	}
	return AdminPolicy{AllowedRoleIDs: allowed}
}

func (p AdminPolicy) Allows(c types.Capability) bool {
	if c.Admin {
		return true
	}
	for _, id := range c.RoleIDs {
		if _, ok := p.AllowedRoleIDs[id]; ok {
			return true
		}
	}
	return false
}

// Gateway exposes the boundary operations shared by every front-end, so
// the chat commands and the HTTP routes observe one consistent registry.
type Gateway struct {
	store    store.WhitelistStore
	resolver IdentityResolver
	policy   AdminPolicy
	metrics  *metrics.Metrics
}

func NewGateway(st store.WhitelistStore, resolver IdentityResolver, policy AdminPolicy, m *metrics.Metrics) *Gateway {
	return &Gateway{store: st, resolver: resolver, policy: policy, metrics: m}
}

// Check reports admission status for a game server or front-end. It
// needs no capability.
func (g *Gateway) Check(ctx context.Context, userID int64) (types.CheckResult, error) {
	if userID <= 0 {
		return types.CheckResult{}, ErrInvalidUserID
	}

	entry, ok, err := g.store.Get(ctx, userID)
	if err != nil {
		return types.CheckResult{}, err
	}
	if !ok {
		return types.CheckResult{Whitelisted: false, UserID: userID, Username: "Unknown"}, nil
	}
	return types.CheckResult{
		Whitelisted: true,
		UserID:      userID,
		Username:    entry.Username,
		AddedBy:     entry.AddedBy,
	}, nil
}

// AddInput carries one admission grant.
type AddInput struct {
	UserID   int64
	Username string // optional; reverse-resolved when empty
	Actor    string // approver identity, or types.ActorAPI
	Source   string // which front-end produced the grant
	Caller   types.Capability
}

// Add admits a user, overwriting any prior entry for the same id. When
// no username is supplied it is reverse-resolved first (outside the
// store's lock), falling back to a placeholder; the add itself never
// fails on a lookup miss.
func (g *Gateway) Add(ctx context.Context, in AddInput) (types.WhitelistEntry, error) {
	if !g.policy.Allows(in.Caller) {
		return types.WhitelistEntry{}, ErrUnauthorized
	}
	if in.UserID <= 0 {
		return types.WhitelistEntry{}, ErrInvalidUserID
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = g.lookupName(ctx, in.UserID)
	}

	actor := strings.TrimSpace(in.Actor)
	if actor == "" {
		actor = types.ActorAPI
	}
	source := in.Source
	if source == "" {
		source = types.SourceAPI
	}

	entry := types.WhitelistEntry{
		UserID:   in.UserID,
		Username: username,
		AddedBy:  actor,
		AddedAt:  time.Now().UTC(),
		Source:   source,
	}
	if err := g.store.Put(ctx, entry); err != nil {
		return types.WhitelistEntry{}, err
	}

	g.updateSizeGauge(ctx)
	return entry, nil
}

// Remove revokes admission. ErrNotWhitelisted signals an absent id,
// distinct from an internal store failure.
func (g *Gateway) Remove(ctx context.Context, userID int64, caller types.Capability) (types.WhitelistEntry, error) {
	if !g.policy.Allows(caller) {
		return types.WhitelistEntry{}, ErrUnauthorized
	}
	if userID <= 0 {
		return types.WhitelistEntry{}, ErrInvalidUserID
	}

	entry, found, err := g.store.Remove(ctx, userID)
	if err != nil {
		return types.WhitelistEntry{}, err
	}
	if !found {
		return types.WhitelistEntry{}, ErrNotWhitelisted
	}

	g.updateSizeGauge(ctx)
	return entry, nil
}

// List enumerates the registry. It needs no capability.
func (g *Gateway) List(ctx context.Context) ([]types.WhitelistEntry, error) {
	return g.store.ListAll(ctx)
}

func (g *Gateway) lookupName(ctx context.Context, userID int64) string {
	if g.resolver != nil {
		if user, err := g.resolver.ResolveByID(ctx, userID); err == nil {
			return user.Username
		}
	}
	return types.PlaceholderName(userID)
}

func (g *Gateway) updateSizeGauge(ctx context.Context) {
	if g.metrics == nil {
		return
	}
	if all, err := g.store.ListAll(ctx); err == nil {
		g.metrics.SetWhitelistSize(len(all))
	}
}
