// Package chatbot is the chat-platform front-end: a command router plus
// the collaborator interfaces a platform binding (Discord, Matrix, a dev
// console) must satisfy. The router only talks to the core gateway and
// workflow, so both front-ends share one registry.
package chatbot

import (
	"context"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// Member is the platform's view of one chat user.
type Member struct {
	ID      string
	Name    string
	Mention string
	IsBot   bool
	// IsAdmin is the platform-native administrator flag.
	IsAdmin bool
	RoleIDs []int64
}

// Message is one incoming command event.
type Message struct {
	ChannelID string
	Author    Member
	Content   string
}

// Session is the platform runtime the router drives: channel replies,
// private messages, and member enumeration.
type Session interface {
	Reply(ctx context.Context, channelID, text string) error
	SendDirect(ctx context.Context, userID, text string) error
	Members(ctx context.Context) ([]Member, error)
}

// Capability translates a member into the explicit capability value the
// gateway authorizes against.
func Capability(m Member) types.Capability {
	return types.Capability{Admin: m.IsAdmin, RoleIDs: m.RoleIDs}
}

// Directory adapts a Session into the notifier's collaborator pair:
// approver enumeration and direct delivery.
type Directory struct {
	session Session
	policy  service.AdminPolicy
}

func NewDirectory(s Session, policy service.AdminPolicy) *Directory {
	return &Directory{session: s, policy: policy}
}

// Approvers returns the members currently eligible to act on requests:
// administrators or allow-listed role holders, excluding bot accounts.
func (d *Directory) Approvers(ctx context.Context) ([]service.Approver, error) {
	members, err := d.session.Members(ctx)
	if err != nil {
		return nil, err
	}

	var out []service.Approver
	for _, m := range members {
		if m.IsBot {
			continue
		}
		if !m.IsAdmin && !d.policy.Allows(Capability(m)) {
			continue
		}
		out = append(out, service.Approver{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

func (d *Directory) SendDirect(ctx context.Context, recipientID, text string) error {
	return d.session.SendDirect(ctx, recipientID, text)
}
