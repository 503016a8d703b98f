package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/m3rciful/avatarbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidCommand is returned for commands Telegram would refuse in the menu.
	ErrInvalidCommand = errors.New("telegram: invalid command")
	// ErrDuplicateCommand is returned when a command name is registered twice.
	ErrDuplicateCommand = errors.New("telegram: duplicate command")

	commandNameRe = regexp.MustCompile(`^/[a-z0-9_]{1,32}$`)
)

// Command is a single entry of the bot command menu.
type Command struct {
	Name        string
	Description string
	Hidden      bool
}

// Registry keeps menu commands in registration order.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	commands map[string]Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// RegisterCommand adds cmd to the menu. Names must start with a slash and
// use lowercase letters, digits or underscores.
func (r *Registry) RegisterCommand(cmd Command) error {
	if !commandNameRe.MatchString(cmd.Name) || strings.TrimSpace(cmd.Description) == "" {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", cmd.Name),
			slog.String("reason", "invalid"),
		)
		return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Name]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.command.duplicate",
			slog.String("name", cmd.Name),
		)
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
	return nil
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ListCommands returns the menu in registration order, optionally skipping hidden entries.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.order))
	for _, name := range r.order {
		cmd := r.commands[name]
		if visibleOnly && cmd.Hidden {
			continue
		}
		list = append(list, tele.Command{
			Text:        strings.TrimPrefix(cmd.Name, "/"),
			Description: cmd.Description,
		})
	}
	return list
}

// InitBotCommands publishes the visible commands as the bot menu.
func InitBotCommands(ctx context.Context, bot *tele.Bot, reg *Registry) error {
	if bot == nil || reg == nil || reg.Len() == 0 {
		return nil
	}
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	logger.Info(ctx, "tg.wire", "register.commands",
		slog.Int("commands", len(list)),
	)
	return nil
}
