package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/audit"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/registry"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/repository"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/validation"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

// conn drives one connection through the
// UNAUTHENTICATED → ACTIVE → CLOSED state machine. Lines are
// newline-framed; the blocking line read is the handler's only
// suspension point besides writes.
type conn struct {
	srv     *Server
	c       net.Conn
	id      string
	scanner *bufio.Scanner
	limiter *rate.Limiter
	sess    *domain.Session // nil until ACTIVE
}

func newConn(s *Server, c net.Conn) *conn {
	scanner := bufio.NewScanner(c)
	maxLine := s.cfg.MaxLineBytes
	if maxLine <= 0 {
		maxLine = 4096
	}
	scanner.Buffer(make([]byte, 0, 256), maxLine)

	return &conn{
		srv:     s,
		c:       c,
		id:      uuid.New().String(),
		scanner: scanner,
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.RateBurst),
	}
}

func (h *conn) handle(ctx context.Context) {
	ctx = log.WithLogger(ctx, log.L().With().
		Str(log.FieldConnID, h.id).
		Str(log.FieldRemoteAddr, h.c.RemoteAddr().String()).
		Logger())

	log.Ctx(ctx).Debug().Msg("connection accepted")

	sess, err := h.authenticate(ctx)
	if err != nil || sess == nil {
		h.c.Close()
		return
	}
	h.sess = sess

	h.active(ctx)
	audit.Log(ctx, audit.ActionDisconnect, h.sess.Username, "connection closed")
	h.srv.teardown(h.sess, "disconnected")
}

// writeLine writes directly to the raw connection; used only before a
// session exists.
func (h *conn) writeLine(line string) error {
	if h.srv.cfg.WriteTimeout > 0 {
		h.c.SetWriteDeadline(time.Now().Add(h.srv.cfg.WriteTimeout))
	}
	_, err := h.c.Write([]byte(line + "\n"))
	return err
}

// readLine blocks for the next newline-framed input line, sanitized.
// ok is false when the peer closed or the read failed. An over-limit
// line is a protocol error: the peer is told why before the connection
// goes down, instead of a silent drop.
func (h *conn) readLine() (string, bool) {
	if !h.scanner.Scan() {
		if errors.Is(h.scanner.Err(), bufio.ErrTooLong) {
			h.reply(domain.ErrorLine("line too long"))
		}
		return "", false
	}
	return validation.Sanitize(strings.TrimSpace(h.scanner.Text())), true
}

// reply writes one line through the session when one exists, otherwise
// directly to the raw connection.
func (h *conn) reply(line string) {
	if h.sess != nil {
		h.sess.Send(line)
		return
	}
	h.writeLine(line)
}

// authenticate loops on the auth menu until a successful /login, an
// /exit, or a transport failure. A successful /register keeps the
// connection open for a subsequent /login; it never auto-authenticates.
func (h *conn) authenticate(ctx context.Context) (*domain.Session, error) {
	for {
		if err := h.writeLine(domain.AuthMenu); err != nil {
			return nil, err
		}

		line, ok := h.readLine()
		if !ok {
			return nil, nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "/login":
			if len(fields) != 3 {
				h.writeLine(domain.ErrorLine("usage: /login <username> <password>"))
				continue
			}
			sess, err := h.login(ctx, fields[1], fields[2])
			if err != nil {
				h.writeLine(domain.ErrorLine(err.Error()))
				continue
			}
			return sess, nil

		case "/register":
			if len(fields) != 3 {
				h.writeLine(domain.ErrorLine("usage: /register <username> <password>"))
				continue
			}
			if err := h.register(ctx, fields[1], fields[2]); err != nil {
				h.writeLine(domain.ErrorLine(err.Error()))
				continue
			}
			h.writeLine("Registration successful! Now log in.")

		case "/exit":
			return nil, nil

		default:
			h.writeLine(domain.ErrorLine("unknown command"))
		}
	}
}

func (h *conn) login(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := h.srv.store.VerifyUser(ctx, username, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, username, "bad credentials", "login rejected")
			return nil, err
		}
		log.Ctx(ctx).Error().Err(err).Msg("login store failure")
		return nil, errors.New("login is temporarily unavailable")
	}

	sess := domain.NewSession(h.id, h.c, user.ID, user.Username, user.IsAdmin(), h.srv.cfg.WriteTimeout)
	if err := h.srv.reg.Register(sess); err != nil {
		if errors.Is(err, registry.ErrNameOnline) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, username, "already online", "login rejected")
			return nil, errors.New("this account is already logged in")
		}
		return nil, errors.New("could not start a session")
	}

	audit.Log(ctx, audit.ActionLogin, user.Username, "user authenticated")
	return sess, nil
}

func (h *conn) register(ctx context.Context, username, password string) error {
	if err := validation.CheckUsername(username); err != nil {
		return err
	}
	if err := validation.CheckPassword(password); err != nil {
		return err
	}

	if err := h.srv.store.CreateAccount(ctx, username, password); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return err
		}
		log.Ctx(ctx).Error().Err(err).Msg("register store failure")
		return errors.New("registration is temporarily unavailable")
	}

	audit.Log(ctx, audit.ActionRegister, username, "account created")
	return nil
}

// active is the post-authentication loop: announce the join, replay the
// default room's history, then dispatch commands and room messages until
// the peer leaves.
func (h *conn) active(ctx context.Context) {
	ctx = log.WithLogger(ctx, log.Ctx(ctx).With().
		Str(log.FieldUsername, h.sess.Username).
		Logger())

	h.sess.Send("Login successful!")
	h.srv.router.BroadcastSystem("user " + h.sess.Username + " joined the chat")
	h.srv.sendHistory(ctx, h.sess, domain.GeneralRoomID)
	h.sess.Send(domain.HelpText)

	for {
		line, ok := h.readLine()
		if !ok {
			return
		}
		if line == "" {
			continue
		}

		if !h.limiter.Allow() {
			h.sess.Send(domain.ErrorLine("you are sending too fast, slow down"))
			continue
		}

		if strings.HasPrefix(line, "/") {
			if h.dispatch(ctx, line) == errExit {
				return
			}
			continue
		}

		h.roomMessage(ctx, line)
	}
}

// roomMessage validates, spam-checks, persists and fans out one room
// message. A rejected message is neither persisted nor broadcast.
func (h *conn) roomMessage(ctx context.Context, text string) {
	if err := validation.CheckMessage(text); err != nil {
		h.sess.Send(domain.ErrorLine(err.Error()))
		return
	}

	if spam, reason := validation.IsSpam(text, h.sess.RecentMessages()); spam {
		audit.LogWithDetail(ctx, audit.ActionSpamRejected, h.sess.Username, reason, "message rejected")
		h.sess.Send(domain.ErrorLine(reason))
		return
	}

	roomID := h.sess.RoomID()
	if _, err := h.srv.store.AppendRoomMessage(ctx, h.sess.UserID, roomID, text); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to persist message")
		h.sess.Send(domain.ErrorLine("could not send message"))
		return
	}
	if err := h.srv.cache.Invalidate(ctx, roomID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("history cache invalidation failed")
	}

	h.sess.RecordMessage(text, time.Now())
	audit.Log(ctx, audit.ActionSendMessage, h.sess.Username, "room message sent")
	h.srv.router.BroadcastToRoom(domain.RoomLine(h.sess.Username, text), roomID, h.sess.ID)
}
