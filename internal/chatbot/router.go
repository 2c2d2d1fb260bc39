package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// Router parses prefixed chat commands and dispatches them into the
// core. It holds no registry state of its own.
type Router struct {
	prefix    string
	gateway   *service.Gateway
	workflow  *service.Workflow
	publicURL string
	logger    *slog.Logger
}

type RouterDeps struct {
	Prefix    string // command prefix, default "!"
	Gateway   *service.Gateway
	Workflow  *service.Workflow
	PublicURL string // base URL of the HTTP front-end, for help text
	Logger    *slog.Logger
}

func NewRouter(d RouterDeps) *Router {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "!"
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		prefix:    prefix,
		gateway:   d.Gateway,
		workflow:  d.Workflow,
		publicURL: d.PublicURL,
		logger:    logger,
	}
}

// Handle processes one incoming message. Non-command messages and bot
// authors are ignored. The returned error is a delivery failure on the
// session, never a command outcome.
func (r *Router) Handle(ctx context.Context, s Session, msg Message) error {
	if msg.Author.IsBot || !strings.HasPrefix(msg.Content, r.prefix) {
		return nil
	}

	fields := strings.Fields(strings.TrimPrefix(msg.Content, r.prefix))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	reply := func(text string) error {
		return s.Reply(ctx, msg.ChannelID, text)
	}

	switch cmd {
	case "whitelist":
		return r.handleWhitelist(ctx, msg, args, reply)
	case "verify":
		return r.handleVerify(ctx, msg, args, reply)
	case "status":
		return r.handleStatus(ctx, reply)
	case "ping":
		return reply("Pong!")
	case "commands":
		return reply(r.commandsText())
	case "setup":
		return reply(r.setupText())
	default:
		return reply(fmt.Sprintf("Command not found. Use %scommands for available commands.", r.prefix))
	}
}

func (r *Router) handleWhitelist(ctx context.Context, msg Message, args []string, reply func(string) error) error {
	if len(args) == 0 {
		return reply("Invalid action. Use add, remove, list, check, or api.")
	}
	action := strings.ToLower(args[0])
	caller := Capability(msg.Author)

	switch action {
	case "add":
		id, ok := parseUserID(args[1:])
		if !ok {
			return reply(fmt.Sprintf("Please provide a UserID: %swhitelist add USERID", r.prefix))
		}
		entry, err := r.gateway.Add(ctx, service.AddInput{
			UserID: id,
			Actor:  msg.Author.Name,
			Source: types.SourceChat,
			Caller: caller,
		})
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			return reply("You don't have permission to use this command.")
		case err != nil:
			r.logger.Error("whitelist add failed", "user_id", id, "error", err)
			return reply("Failed to add user to the whitelist.")
		}
		return reply(fmt.Sprintf("%s (%d) has been added to the whitelist by %s.",
			entry.Username, entry.UserID, msg.Author.Name))

	case "remove":
		id, ok := parseUserID(args[1:])
		if !ok {
			return reply(fmt.Sprintf("Please provide a UserID: %swhitelist remove USERID", r.prefix))
		}
		entry, err := r.gateway.Remove(ctx, id, caller)
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			return reply("You don't have permission to use this command.")
		case errors.Is(err, service.ErrNotWhitelisted):
			return reply(fmt.Sprintf("User %d is not in the whitelist.", id))
		case err != nil:
			r.logger.Error("whitelist remove failed", "user_id", id, "error", err)
			return reply("Failed to remove user from the whitelist.")
		}
		return reply(fmt.Sprintf("%s (%d) has been removed from the whitelist.",
			entry.Username, entry.UserID))

	case "check":
		id, ok := parseUserID(args[1:])
		if !ok {
			return reply(fmt.Sprintf("Please provide a UserID: %swhitelist check USERID", r.prefix))
		}
		res, err := r.gateway.Check(ctx, id)
		if err != nil {
			r.logger.Error("whitelist check failed", "user_id", id, "error", err)
			return reply(fmt.Sprintf("Could not check whitelist status for user %d.", id))
		}
		if res.Whitelisted {
			return reply(fmt.Sprintf("%d (%s): whitelisted, added by %s.", id, res.Username, res.AddedBy))
		}
		return reply(fmt.Sprintf("%d: not whitelisted.", id))

	case "list":
		entries, err := r.gateway.List(ctx)
		if err != nil {
			r.logger.Error("whitelist list failed", "error", err)
			return reply("Could not fetch the whitelist.")
		}
		return reply(listText(entries))

	case "api":
		return reply(fmt.Sprintf(
			"Web admin panel: %s/admin\nCheck: %s/check_whitelist?user_id=USERID\nFull list: %s/whitelist",
			r.publicURL, r.publicURL, r.publicURL))

	default:
		return reply("Invalid action. Use add, remove, list, check, or api.")
	}
}

func (r *Router) handleVerify(ctx context.Context, msg Message, args []string, reply func(string) error) error {
	if len(args) == 0 {
		return reply(fmt.Sprintf("Please provide your Roblox username: %sverify YourRobloxUsername", r.prefix))
	}

	res, err := r.workflow.RequestAccess(ctx, args[0], msg.Author.Name)
	if err != nil {
		r.logger.Error("verification failed", "username", args[0], "error", err)
		return reply("An error occurred while executing the command.")
	}

	switch res.Outcome {
	case service.OutcomeResolutionFailed:
		return reply("Could not verify Roblox username. Please check the spelling.")
	case service.OutcomeAlreadyAdmitted:
		return reply(fmt.Sprintf("%s (%d) is already whitelisted.", res.Username, res.UserID))
	default:
		return reply(fmt.Sprintf("Verification request for %s sent to %d admins.",
			res.Username, res.Notified))
	}
}

func (r *Router) handleStatus(ctx context.Context, reply func(string) error) error {
	entries, err := r.gateway.List(ctx)
	if err != nil {
		return reply("Gatewarden online. Whitelist unavailable.")
	}
	return reply(fmt.Sprintf("Gatewarden online. Whitelisted users: %d. Web panel: %s/admin",
		len(entries), r.publicURL))
}

func (r *Router) commandsText() string {
	p := r.prefix
	return fmt.Sprintf(
		"Admin commands:\n"+
			"  %swhitelist add USERID — add user\n"+
			"  %swhitelist remove USERID — remove user\n"+
			"Player commands:\n"+
			"  %swhitelist check USERID — check status\n"+
			"  %swhitelist list — show users\n"+
			"  %swhitelist api — API endpoints\n"+
			"  %sverify ROBLOX_USERNAME — request access\n"+
			"  %sstatus — system status\n"+
			"  %sping — test bot",
		p, p, p, p, p, p, p, p)
}

func (r *Router) setupText() string {
	return fmt.Sprintf(
		"The whitelist system is up.\nWeb admin panel: %s/admin\nUse %scommands for the full command list.",
		r.publicURL, r.prefix)
}

// listText shows the first 10 ids plus a total, mirroring the chat
// platform's message-length constraints.
func listText(entries []types.WhitelistEntry) string {
	if len(entries) == 0 {
		return "No users whitelisted."
	}

	shown := entries
	if len(shown) > 10 {
		shown = shown[:10]
	}
	var b strings.Builder
	b.WriteString("Whitelisted users:\n")
	for _, e := range shown {
		fmt.Fprintf(&b, "  %d — %s\n", e.UserID, e.Username)
	}
	fmt.Fprintf(&b, "Total: %d users", len(entries))
	return b.String()
}

func parseUserID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
