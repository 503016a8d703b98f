package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/avatarbot/core/logger"
	"github.com/m3rciful/avatarbot/internal/session"
)

// Command keywords recognised by the dispatcher. Matching is exact and case-sensitive.
const (
	CommandStart    = "/start"
	CommandGenerate = "/generate"
	CommandSetSize  = "/set_size"
	CommandSetSeed  = "/set_seed"
	CommandHelp     = "/help"
)

// Keywords lists every command the dispatcher must handle.
var Keywords = []string{CommandStart, CommandGenerate, CommandSetSize, CommandSetSeed, CommandHelp}

// DefaultMenuColumns is the number of style buttons per menu row.
const DefaultMenuColumns = 7

type textHandler func(ctx context.Context, msg TextMessage) (Reply, error)

type command struct {
	name        string
	description string
	handler     textHandler
}

// CommandInfo describes a command for menus and help output.
type CommandInfo struct {
	Keyword     string
	Description string
}

// Result is the outcome of a single dispatch.
type Result struct {
	// Handler names the route taken, for logs.
	Handler string
	// Reply is the content to deliver. It is nil only when the context was done.
	Reply Reply
	// Err carries a recovered error (validation, unknown style, desync) for logging.
	Err error
}

// Outcome classifies the result for logs: ok, rejected (bad user input),
// cancelled or fail.
func (r Result) Outcome() string {
	var verr *ValidationError
	switch {
	case r.Err == nil:
		return "ok"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(r.Err, &verr), errors.Is(r.Err, ErrUnknownStyle):
		return "rejected"
	}
	return "fail"
}

// Options tunes the dispatcher.
type Options struct {
	MenuColumns int
}

// Dispatcher classifies inbound events and routes them to the state machine.
type Dispatcher struct {
	machine  *Machine
	store    session.Store
	commands map[string]command
	locks    userLocks
}

// NewDispatcher builds the command table and validates it against Keywords.
func NewDispatcher(store session.Store, opts Options) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("conversation: nil session store")
	}
	columns := opts.MenuColumns
	if columns <= 0 {
		columns = DefaultMenuColumns
	}
	d := &Dispatcher{
		machine: newMachine(store, columns),
		store:   store,
	}
	d.commands = map[string]command{
		CommandStart:    {name: "start", description: "Start the conversation", handler: d.machine.start},
		CommandGenerate: {name: "generate", description: "Generate a new avatar", handler: d.machine.generate},
		CommandSetSize:  {name: "set_size", description: "Set the avatar size in pixels", handler: d.machine.setSize},
		CommandSetSeed:  {name: "set_seed", description: "Set the seed word", handler: d.machine.setSeed},
		CommandHelp:     {name: "help", description: "Show usage", handler: d.help},
	}
	if err := validateCommands(d.commands, Keywords); err != nil {
		return nil, err
	}
	return d, nil
}

func validateCommands(table map[string]command, keywords []string) error {
	want := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		want[k] = struct{}{}
		cmd, ok := table[k]
		if !ok || cmd.handler == nil {
			return fmt.Errorf("conversation: no handler for command %s", k)
		}
	}
	for k := range table {
		if _, ok := want[k]; !ok {
			return fmt.Errorf("conversation: unexpected command %s", k)
		}
	}
	return nil
}

// Commands returns the command table in Keywords order.
func (d *Dispatcher) Commands() []CommandInfo {
	out := make([]CommandInfo, 0, len(Keywords))
	for _, k := range Keywords {
		out = append(out, CommandInfo{Keyword: k, Description: d.commands[k].description})
	}
	return out
}

// Sessions reports how many users have a session.
func (d *Dispatcher) Sessions() int {
	return d.store.Len()
}

// Dispatch routes ev to exactly one handler and returns its reply.
// Events of the same user are processed one at a time.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Result{Handler: "cancelled", Err: err}
	}
	if ev == nil {
		return Result{Handler: "unknown_event", Reply: internalErrorReply(),
			Err: errors.New("conversation: nil event")}
	}

	unlock := d.locks.lock(ev.Sender())
	defer unlock()

	switch e := ev.(type) {
	case Callback:
		return d.run(ctx, "style_select", e.UserID, func() (Reply, error) {
			return d.machine.selectStyle(ctx, e)
		})
	case TextMessage:
		return d.dispatchText(ctx, e)
	}
	return Result{Handler: "unknown_event", Reply: internalErrorReply(),
		Err: fmt.Errorf("conversation: unsupported event %T", ev)}
}

func (d *Dispatcher) dispatchText(ctx context.Context, msg TextMessage) Result {
	if cmd, ok := d.commands[msg.Text]; ok {
		return d.run(ctx, cmd.name, msg.UserID, func() (Reply, error) {
			return cmd.handler(ctx, msg)
		})
	}

	s, err := d.store.Get(msg.UserID)
	if err != nil {
		return d.run(ctx, "desync", msg.UserID, func() (Reply, error) {
			return nil, err
		})
	}

	switch s.Pending {
	case session.AwaitingSize:
		return d.run(ctx, "size_input", msg.UserID, func() (Reply, error) {
			return d.machine.continueSize(ctx, msg)
		})
	case session.AwaitingSeed:
		return d.run(ctx, "seed_input", msg.UserID, func() (Reply, error) {
			return d.machine.continueSeed(ctx, msg)
		})
	default:
		return Result{Handler: "unrecognized", Reply: unrecognizedReply(msg.Text)}
	}
}

// run converts handler errors into replies so no error escapes a dispatch.
func (d *Dispatcher) run(ctx context.Context, name string, userID int64, fn func() (Reply, error)) Result {
	reply, err := fn()
	if reply != nil {
		return Result{Handler: name, Reply: reply, Err: err}
	}
	if err == nil {
		err = errors.New("conversation: handler returned no reply")
	}
	recovered := d.machine.recover(ctx, userID)
	logger.Warn(ctx, "conv", "conv.internal_error",
		slog.String("status", "fail"),
		slog.String("handler", name),
		slog.Int64("user_id", userID),
		slog.Bool("recovered", recovered),
		slog.String("err", err.Error()),
	)
	return Result{Handler: name, Reply: internalErrorReply(), Err: err}
}

func (d *Dispatcher) help(_ context.Context, _ TextMessage) (Reply, error) {
	return helpReply(d.Commands()), nil
}

// userLocks serialises work per user and drops idle locks.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*userLock)
	}
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
