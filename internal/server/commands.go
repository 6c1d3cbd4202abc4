package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/audit"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/repository"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/validation"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

// errExit signals a graceful /exit from the command loop.
var errExit = errors.New("exit requested")

type commandHandler func(ctx context.Context, h *conn, args []string) error

// command declares a dispatch-table entry: required argument count,
// whether the last argument absorbs the rest of the line, and whether
// the caller's session must carry the admin role.
type command struct {
	arity int
	rest  bool
	admin bool
	usage string
	run   commandHandler
}

var commandTable = map[string]command{
	"/rooms":  {run: cmdRooms},
	"/join":   {arity: 1, usage: "/join <room>", run: cmdJoin},
	"/create": {arity: 1, usage: "/create <room>", run: cmdCreate},
	"/users":  {run: cmdUsers},
	"/msg":    {arity: 2, rest: true, usage: "/msg <user> <text>", run: cmdMsg},
	"/pm":     {arity: 2, rest: true, usage: "/pm <user> <text>", run: cmdMsg},
	"/inbox":  {run: cmdInbox},
	"/chat":   {arity: 1, usage: "/chat <user>", run: cmdChat},
	"/myinfo": {run: cmdMyInfo},
	"/help":   {run: cmdHelp},
	"/exit":   {run: cmdExit},

	"/debug_db":        {admin: true, run: cmdDebugDB},
	"/admin_stats":     {admin: true, run: cmdAdminStats},
	"/admin_broadcast": {arity: 1, rest: true, admin: true, usage: "/admin_broadcast <message>", run: cmdAdminBroadcast},
	"/admin_kick":      {arity: 1, admin: true, usage: "/admin_kick <user>", run: cmdAdminKick},
}

// dispatch resolves a /-prefixed line through the command table.
func (h *conn) dispatch(ctx context.Context, line string) error {
	name := line
	if i := strings.IndexByte(line, ' '); i >= 0 {
		name = line[:i]
	}

	cmd, ok := commandTable[name]
	if !ok {
		h.sess.Send(domain.ErrorLine("unknown command"))
		return nil
	}

	if cmd.admin && !h.sess.Admin {
		h.sess.Send(domain.ErrorLine("permission denied"))
		return nil
	}

	args, ok := parseArgs(line, cmd)
	if !ok {
		h.sess.Send(domain.ErrorLine("usage: " + cmd.usage))
		return nil
	}

	return cmd.run(ctx, h, args)
}

func parseArgs(line string, cmd command) ([]string, bool) {
	if cmd.arity == 0 {
		return nil, true
	}

	if cmd.rest {
		parts := strings.SplitN(line, " ", cmd.arity+1)
		if len(parts) < cmd.arity+1 {
			return nil, false
		}
		args := parts[1:]
		last := strings.TrimSpace(args[len(args)-1])
		if last == "" {
			return nil, false
		}
		args[len(args)-1] = last
		return args, true
	}

	fields := strings.Fields(line)
	if len(fields) != cmd.arity+1 {
		return nil, false
	}
	return fields[1:], true
}

func cmdRooms(ctx context.Context, h *conn, args []string) error {
	var b strings.Builder
	b.WriteString("Available rooms:")
	for _, name := range h.srv.rooms.names() {
		b.WriteString("\n- " + name)
	}
	h.sess.Send(b.String())
	return nil
}

func cmdJoin(ctx context.Context, h *conn, args []string) error {
	name := args[0]
	id, ok := h.srv.rooms.idByName(name)
	if !ok {
		h.sess.Send(domain.ErrorLine("room " + name + " not found"))
		return nil
	}

	h.sess.JoinRoom(id)
	audit.LogWithDetail(ctx, audit.ActionJoinRoom, h.sess.Username, name, "joined room")
	h.sess.Send("You joined room " + name)
	h.srv.sendHistory(ctx, h.sess, id)
	return nil
}

func cmdCreate(ctx context.Context, h *conn, args []string) error {
	name := args[0]
	if err := validation.CheckRoomName(name); err != nil {
		h.sess.Send(domain.ErrorLine(err.Error()))
		return nil
	}

	room, err := h.srv.store.CreateRoom(ctx, name, h.sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			h.sess.Send(domain.ErrorLine(err.Error()))
			return nil
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to create room")
		h.sess.Send(domain.ErrorLine("could not create room"))
		return nil
	}

	h.srv.rooms.insert(room)
	audit.LogWithDetail(ctx, audit.ActionCreateRoom, h.sess.Username, name, "room created")
	h.sess.Send("Room " + name + " created")
	return nil
}

func cmdUsers(ctx context.Context, h *conn, args []string) error {
	var b strings.Builder
	b.WriteString("Online users:")
	for _, name := range onlineNames(h) {
		b.WriteString("\n- " + name)
	}
	h.sess.Send(b.String())
	return nil
}

func cmdMsg(ctx context.Context, h *conn, args []string) error {
	target, text := args[0], args[1]

	if err := validation.CheckMessage(text); err != nil {
		h.sess.Send(domain.ErrorLine(err.Error()))
		return nil
	}
	if target == h.sess.Username {
		h.sess.Send(domain.ErrorLine("you cannot message yourself"))
		return nil
	}
	if spam, reason := validation.IsSpam(text, h.sess.RecentMessages()); spam {
		audit.LogWithDetail(ctx, audit.ActionSpamRejected, h.sess.Username, reason, "direct message rejected")
		h.sess.Send(domain.ErrorLine(reason))
		return nil
	}

	// Offline targets never reach the store: resolve first, persist after.
	sess, online := h.srv.reg.ResolveName(target)
	if !online {
		h.sess.Send(domain.ErrorLine("user " + target + " is not online"))
		return nil
	}

	if _, err := h.srv.store.AppendDM(ctx, h.sess.UserID, sess.UserID, text); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to persist direct message")
		h.sess.Send(domain.ErrorLine("could not send direct message"))
		return nil
	}

	if err := h.srv.router.Unicast(sess, domain.DMLine(h.sess.Username, text)); err != nil {
		h.sess.Send(domain.ErrorLine("user " + target + " went offline"))
		return nil
	}

	audit.LogWithDetail(ctx, audit.ActionSendDM, h.sess.Username, target, "direct message sent")
	h.sess.Send(domain.DMConfirmLine(target, text))
	return nil
}

func cmdInbox(ctx context.Context, h *conn, args []string) error {
	dms, err := h.srv.store.Inbox(ctx, h.sess.UserID, h.srv.cfg.InboxLimit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load inbox")
		h.sess.Send(domain.ErrorLine("could not load direct messages"))
		return nil
	}
	if len(dms) == 0 {
		h.sess.Send("No direct messages.")
		return nil
	}

	var b strings.Builder
	b.WriteString("Your direct messages:")
	for _, dm := range dms {
		marker := ""
		if !dm.Read && dm.To == h.sess.Username {
			marker = " (new)"
		}
		b.WriteString(fmt.Sprintf("\n[%s] %s -> %s: %s%s",
			dm.CreatedAt.Format("15:04"), dm.From, dm.To, dm.Content, marker))
	}
	h.sess.Send(b.String())
	return nil
}

func cmdChat(ctx context.Context, h *conn, args []string) error {
	target := args[0]

	other, err := h.srv.store.UserByName(ctx, target)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.sess.Send(domain.ErrorLine("user " + target + " not found"))
			return nil
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to resolve chat partner")
		h.sess.Send(domain.ErrorLine("could not load conversation"))
		return nil
	}

	thread, err := h.srv.store.DMThread(ctx, h.sess.UserID, other.ID, h.srv.cfg.ThreadLimit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load dm thread")
		h.sess.Send(domain.ErrorLine("could not load conversation"))
		return nil
	}
	if _, err := h.srv.store.MarkRead(ctx, h.sess.UserID, other.ID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to mark thread read")
	}

	if len(thread) == 0 {
		h.sess.Send("No messages with " + target + " yet.")
		return nil
	}

	var b strings.Builder
	b.WriteString("Conversation with " + target + ":")
	for _, dm := range thread {
		b.WriteString(fmt.Sprintf("\n[%s] %s: %s", dm.CreatedAt.Format("15:04"), dm.From, dm.Content))
	}
	h.sess.Send(b.String())
	return nil
}

func cmdMyInfo(ctx context.Context, h *conn, args []string) error {
	roomName, _ := h.srv.rooms.nameByID(h.sess.RoomID())

	agg, err := h.srv.store.UserAggregates(ctx, h.sess.UserID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load user aggregates")
		h.sess.Send(domain.ErrorLine("could not load your info"))
		return nil
	}

	h.sess.Send(fmt.Sprintf(
		"Your info:\nName: %s\nID: %d\nCurrent room: %s\nMessages sent: %d\nDMs sent: %d\nDMs received: %d",
		h.sess.Username, h.sess.UserID, roomName,
		agg.MessagesSent, agg.DMsSent, agg.DMsReceived))
	return nil
}

func cmdHelp(ctx context.Context, h *conn, args []string) error {
	h.sess.Send(domain.HelpText)
	return nil
}

func cmdExit(ctx context.Context, h *conn, args []string) error {
	h.sess.Send("Goodbye!")
	return errExit
}

func cmdDebugDB(ctx context.Context, h *conn, args []string) error {
	stats, err := h.srv.store.Stats(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load store stats")
		h.sess.Send(domain.ErrorLine("could not load database info"))
		return nil
	}

	h.sess.Send(fmt.Sprintf(
		"Database info:\nUsers in database: %d\nUsers online: %d\nRooms: %d\nTotal messages: %d\nTotal direct messages: %d",
		stats.Users, h.srv.reg.Len(), stats.Rooms, stats.Messages, stats.DirectMessages))
	return nil
}

func cmdAdminStats(ctx context.Context, h *conn, args []string) error {
	occupancy := make(map[uint]int)
	for _, s := range h.srv.reg.Snapshot() {
		occupancy[s.RoomID()]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Server stats:\nUptime: %s\nActive sessions: %d",
		time.Since(h.srv.startedAt).Round(time.Second), h.srv.reg.Len())
	for _, name := range h.srv.rooms.names() {
		id, _ := h.srv.rooms.idByName(name)
		fmt.Fprintf(&b, "\nRoom %s: %d online", name, occupancy[id])
	}
	h.sess.Send(b.String())
	return nil
}

func cmdAdminBroadcast(ctx context.Context, h *conn, args []string) error {
	audit.Log(ctx, audit.ActionBroadcast, h.sess.Username, "admin broadcast")
	h.srv.router.BroadcastSystem(args[0])
	return nil
}

func cmdAdminKick(ctx context.Context, h *conn, args []string) error {
	target := args[0]
	if target == h.sess.Username {
		h.sess.Send(domain.ErrorLine("you cannot kick yourself"))
		return nil
	}

	sess, online := h.srv.reg.ResolveName(target)
	if !online {
		h.sess.Send(domain.ErrorLine("user " + target + " is not online"))
		return nil
	}

	sess.Send(domain.SystemNotice("you have been kicked by an administrator"))
	h.srv.teardown(sess, "kicked")
	audit.LogWithDetail(ctx, audit.ActionKick, h.sess.Username, target, "user kicked")
	h.sess.Send("User " + target + " has been kicked")
	return nil
}

func onlineNames(h *conn) []string {
	sessions := h.srv.reg.Snapshot()
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Username)
	}
	sort.Strings(names)
	return names
}
