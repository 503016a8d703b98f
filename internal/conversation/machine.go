package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/avatarbot/core/logger"
	"github.com/m3rciful/avatarbot/internal/catalog"
	"github.com/m3rciful/avatarbot/internal/session"
)

// Machine owns the session transitions. It is the only caller of Store.Update.
type Machine struct {
	store       session.Store
	menuColumns int
}

func newMachine(store session.Store, menuColumns int) *Machine {
	return &Machine{store: store, menuColumns: menuColumns}
}

func (m *Machine) start(ctx context.Context, msg TextMessage) (Reply, error) {
	_, err := m.store.Create(msg.UserID)
	if errors.Is(err, session.ErrDuplicateSession) {
		_, err = m.store.Update(msg.UserID, func(s *session.Session) error {
			*s = session.New(s.UserID)
			return nil
		})
	}
	if err != nil {
		return nil, err
	}
	logTransition(ctx, msg.UserID, "start", session.Idle)
	return greetingReply(msg.DisplayName), nil
}

func (m *Machine) generate(ctx context.Context, msg TextMessage) (Reply, error) {
	if err := m.setPending(ctx, msg.UserID, "generate", session.AwaitingStyleChoice); err != nil {
		return nil, err
	}
	return styleMenuReply(m.menuColumns), nil
}

func (m *Machine) setSize(ctx context.Context, msg TextMessage) (Reply, error) {
	if err := m.setPending(ctx, msg.UserID, "set_size", session.AwaitingSize); err != nil {
		return nil, err
	}
	return sizePromptReply(), nil
}

func (m *Machine) setSeed(ctx context.Context, msg TextMessage) (Reply, error) {
	if err := m.setPending(ctx, msg.UserID, "set_seed", session.AwaitingSeed); err != nil {
		return nil, err
	}
	return seedPromptReply(), nil
}

func (m *Machine) continueSize(ctx context.Context, msg TextMessage) (Reply, error) {
	raw := strings.TrimSpace(msg.Text)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return sizeNotIntegerReply(raw), &ValidationError{Field: "size", Input: raw, Reason: "not an integer"}
	}
	if value <= 0 {
		return sizeNotPositiveReply(value), &ValidationError{Field: "size", Input: raw, Reason: "must be at least 1"}
	}
	s, err := m.store.Update(msg.UserID, func(s *session.Session) error {
		s.ImageSize = value
		s.Pending = session.Idle
		return nil
	})
	if err != nil {
		return nil, err
	}
	logTransition(ctx, msg.UserID, "size_input", s.Pending, slog.Int("size", s.ImageSize))
	return sizeAcceptedReply(s.ImageSize), nil
}

func (m *Machine) continueSeed(ctx context.Context, msg TextMessage) (Reply, error) {
	seed := strings.TrimSpace(msg.Text)
	if seed == "" {
		seed = session.DefaultImageSeed
	}
	s, err := m.store.Update(msg.UserID, func(s *session.Session) error {
		s.ImageSeed = seed
		s.Pending = session.Idle
		return nil
	})
	if err != nil {
		return nil, err
	}
	logTransition(ctx, msg.UserID, "seed_input", s.Pending)
	return seedAcceptedReply(s.ImageSeed), nil
}

func (m *Machine) selectStyle(ctx context.Context, cb Callback) (Reply, error) {
	if _, err := m.store.Get(cb.UserID); err != nil {
		return nil, err
	}
	if !catalog.Contains(cb.Token) {
		return styleUnknownReply(), ErrUnknownStyle
	}
	s, err := m.store.Update(cb.UserID, func(s *session.Session) error {
		s.Pending = session.Idle
		return nil
	})
	if err != nil {
		return nil, err
	}
	logTransition(ctx, cb.UserID, "style_select", s.Pending,
		slog.String("style", cb.Token),
		slog.Int("size", s.ImageSize),
	)
	return imageReply(s, cb.Token), nil
}

// recover puts a desynchronised session back to Idle when it still exists.
func (m *Machine) recover(ctx context.Context, userID int64) bool {
	_, err := m.store.Update(userID, func(s *session.Session) error {
		s.Pending = session.Idle
		return nil
	})
	if err != nil {
		return false
	}
	logTransition(ctx, userID, "recover", session.Idle)
	return true
}

func (m *Machine) setPending(ctx context.Context, userID int64, op string, next session.PendingOperation) error {
	if _, err := m.store.Update(userID, func(s *session.Session) error {
		s.Pending = next
		return nil
	}); err != nil {
		return err
	}
	logTransition(ctx, userID, op, next)
	return nil
}

func logTransition(ctx context.Context, userID int64, op string, next session.PendingOperation, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("op", op),
		slog.String("state", next.String()),
	}
	logger.Debug(ctx, "conv", "conv.transition", append(base, attrs...)...)
}
