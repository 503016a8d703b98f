package conversation

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/avatarbot/internal/catalog"
	"github.com/m3rciful/avatarbot/internal/session"
)

const testUser int64 = 100

func newTestDispatcher(t *testing.T) (*Dispatcher, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	d, err := NewDispatcher(store, Options{})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d, store
}

func sendText(d *Dispatcher, text string) Result {
	return d.Dispatch(context.Background(), TextMessage{
		UserID:      testUser,
		ChatID:      testUser,
		DisplayName: "tester",
		Text:        text,
	})
}

func sendCallback(d *Dispatcher, token string) Result {
	return d.Dispatch(context.Background(), Callback{UserID: testUser, ChatID: testUser, Token: token})
}

func textOf(t *testing.T, r Reply) TextReply {
	t.Helper()
	tr, ok := r.(TextReply)
	if !ok {
		t.Fatalf("expected TextReply, got %T", r)
	}
	return tr
}

func pendingOf(t *testing.T, store session.Store) session.PendingOperation {
	t.Helper()
	s, err := store.Get(testUser)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s.Pending
}

func TestStartGreetsAndEscapesName(t *testing.T) {
	d, store := newTestDispatcher(t)
	res := d.Dispatch(context.Background(), TextMessage{
		UserID: testUser, ChatID: 5, DisplayName: "john_doe", Text: "/start",
	})
	tr := textOf(t, res.Reply)
	if tr.Format != FormatMarkdownV2 {
		t.Fatalf("greeting must be MarkdownV2, got %v", tr.Format)
	}
	if !strings.Contains(tr.Text, `@john\_doe\.`) {
		t.Fatalf("name not escaped: %s", tr.Text)
	}
	if res.Handler != "start" || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if pendingOf(t, store) != session.Idle {
		t.Fatal("start must leave the session idle")
	}
}

func TestStartResetsExistingSession(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/set_size")
	sendText(d, "64")
	sendText(d, "/set_seed")

	sendText(d, "/start")
	s, _ := store.Get(testUser)
	if s != session.New(testUser) {
		t.Fatalf("start must reset the session, got %+v", s)
	}
}

func TestGenerateShowsWholeCatalog(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	res := sendText(d, "/generate")
	menu, ok := res.Reply.(MenuReply)
	if !ok {
		t.Fatalf("expected MenuReply, got %T", res.Reply)
	}
	if len(menu.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(menu.Rows))
	}
	seen := 0
	for _, row := range menu.Rows {
		if len(row) > DefaultMenuColumns {
			t.Fatalf("row too wide: %d", len(row))
		}
		for _, c := range row {
			if !catalog.Contains(c.Token) {
				t.Fatalf("menu token %q not in catalog", c.Token)
			}
			seen++
		}
	}
	if seen != catalog.Len() {
		t.Fatalf("menu covers %d styles, want %d", seen, catalog.Len())
	}
	if pendingOf(t, store) != session.AwaitingStyleChoice {
		t.Fatal("generate must await a style choice")
	}
}

func TestSetSizeRejectsInvalidInput(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/set_size")

	for _, input := range []string{"abc", "-5", "0", "12.5"} {
		res := sendText(d, input)
		var verr *ValidationError
		if !errors.As(res.Err, &verr) {
			t.Fatalf("%q: expected ValidationError, got %v", input, res.Err)
		}
		tr := textOf(t, res.Reply)
		if !strings.Contains(tr.Text, input) {
			t.Fatalf("%q: reply should name the input: %s", input, tr.Text)
		}
		s, _ := store.Get(testUser)
		if s.ImageSize != session.DefaultImageSize || s.Pending != session.AwaitingSize {
			t.Fatalf("%q: state changed: %+v", input, s)
		}
	}

	res := sendText(d, "256")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !strings.Contains(textOf(t, res.Reply).Text, "256") {
		t.Fatalf("unexpected ack: %+v", res.Reply)
	}
	s, _ := store.Get(testUser)
	if s.ImageSize != 256 || s.Pending != session.Idle {
		t.Fatalf("size not applied: %+v", s)
	}
}

func TestSetSeed(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")

	sendText(d, "/set_seed")
	sendText(d, "myseed")
	s, _ := store.Get(testUser)
	if s.ImageSeed != "myseed" || s.Pending != session.Idle {
		t.Fatalf("seed not applied: %+v", s)
	}

	sendText(d, "/set_seed")
	sendText(d, "   ")
	s, _ = store.Get(testUser)
	if s.ImageSeed != session.DefaultImageSeed {
		t.Fatalf("empty seed must default to %q, got %q", session.DefaultImageSeed, s.ImageSeed)
	}
}

func TestStyleCallbackBuildsRenderRequest(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/set_size")
	sendText(d, "200")
	sendText(d, "/set_seed")
	sendText(d, "cat")
	sendText(d, "/generate")

	res := sendCallback(d, "adventurer")
	img, ok := res.Reply.(ImageReply)
	if !ok {
		t.Fatalf("expected ImageReply, got %T", res.Reply)
	}
	want := RenderRequest{Style: "adventurer", Size: 200, Seed: "cat"}
	if img.Request != want {
		t.Fatalf("got %+v want %+v", img.Request, want)
	}
	if pendingOf(t, store) != session.Idle {
		t.Fatal("style choice must return to idle")
	}
}

func TestStyleCallbackIgnoresPendingOperation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/set_size")
	res := sendCallback(d, "bottts")
	if _, ok := res.Reply.(ImageReply); !ok {
		t.Fatalf("callback must bypass pending operation, got %T", res.Reply)
	}
}

func TestUnknownStyleKeepsState(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/generate")

	res := sendCallback(d, "not-a-style")
	if !errors.Is(res.Err, ErrUnknownStyle) {
		t.Fatalf("expected ErrUnknownStyle, got %v", res.Err)
	}
	if textOf(t, res.Reply).Text != styleUnknown {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}
	if pendingOf(t, store) != session.AwaitingStyleChoice {
		t.Fatal("unknown style must not change state")
	}
}

func TestCallbackWithoutSession(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := sendCallback(d, "adventurer")
	if !errors.Is(res.Err, session.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", res.Err)
	}
	if textOf(t, res.Reply).Text != internalErrMsg {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}
}

func TestHelpNeverChangesPending(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	for _, cmd := range []string{"", "/set_size", "/set_seed", "/generate"} {
		if cmd != "" {
			sendText(d, cmd)
		}
		before := pendingOf(t, store)
		res := sendText(d, "/help")
		if res.Handler != "help" {
			t.Fatalf("unexpected handler %q", res.Handler)
		}
		help := textOf(t, res.Reply).Text
		for _, k := range Keywords {
			if !strings.Contains(help, k) {
				t.Fatalf("help misses %s", k)
			}
		}
		if after := pendingOf(t, store); after != before {
			t.Fatalf("help changed pending %s -> %s", before, after)
		}
	}
}

func TestHelpWithoutSession(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := sendText(d, "/help")
	if res.Err != nil {
		t.Fatalf("help must be stateless, got %v", res.Err)
	}
}

func TestStrayTextDuringStyleChoice(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	sendText(d, "/generate")

	res := sendText(d, "hello")
	if res.Handler != "unrecognized" {
		t.Fatalf("expected unrecognized handler, got %q", res.Handler)
	}
	if !strings.Contains(textOf(t, res.Reply).Text, "'hello' it's not a defined command") {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}
	if pendingOf(t, store) != session.AwaitingStyleChoice {
		t.Fatal("stray text must not change state")
	}

	sendText(d, "/set_size")
	if pendingOf(t, store) != session.AwaitingSize {
		t.Fatal("set_size must still transition after stray text")
	}
}

func TestTextWithoutSessionIsInternalError(t *testing.T) {
	d, store := newTestDispatcher(t)
	res := sendText(d, "hello")
	if !errors.Is(res.Err, session.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", res.Err)
	}
	if textOf(t, res.Reply).Text != internalErrMsg {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}
	if store.Len() != 0 {
		t.Fatal("desync must not create a session")
	}

	res = sendText(d, "/generate")
	if !errors.Is(res.Err, session.ErrUnknownSession) {
		t.Fatalf("commands before /start must report desync, got %v", res.Err)
	}
}

func TestCommandsAreExactMatch(t *testing.T) {
	d, store := newTestDispatcher(t)
	sendText(d, "/start")
	for _, text := range []string{"/START", "/generate now", " /help"} {
		res := sendText(d, text)
		if res.Handler != "unrecognized" {
			t.Fatalf("%q routed to %q", text, res.Handler)
		}
	}
	if pendingOf(t, store) != session.Idle {
		t.Fatal("unrecognized text changed state")
	}
}

func TestValidateCommands(t *testing.T) {
	noop := func(context.Context, TextMessage) (Reply, error) { return nil, nil }
	table := map[string]command{}
	for _, k := range Keywords {
		table[k] = command{name: k, handler: noop}
	}
	if err := validateCommands(table, Keywords); err != nil {
		t.Fatalf("complete table rejected: %v", err)
	}
	delete(table, CommandHelp)
	if err := validateCommands(table, Keywords); err == nil {
		t.Fatal("missing command accepted")
	}
	table[CommandHelp] = command{name: "help", handler: noop}
	table["/extra"] = command{name: "extra", handler: noop}
	if err := validateCommands(table, Keywords); err == nil {
		t.Fatal("extra command accepted")
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Dispatch(ctx, TextMessage{UserID: testUser, Text: "/start"})
	if !errors.Is(res.Err, context.Canceled) || res.Reply != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if d.Sessions() != 0 {
		t.Fatal("cancelled dispatch must not touch the store")
	}
}

func TestPendingAlwaysValid(t *testing.T) {
	d, store := newTestDispatcher(t)
	inputs := []string{"/start", "/generate", "/set_size", "/set_seed", "/help", "42", "-1", "abc", "", "seed"}
	tokens := []string{"adventurer", "pixel-art", "nope"}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		var res Result
		if rng.Intn(4) == 0 {
			res = sendCallback(d, tokens[rng.Intn(len(tokens))])
		} else {
			res = sendText(d, inputs[rng.Intn(len(inputs))])
		}
		if res.Reply == nil {
			t.Fatalf("step %d: no reply (%+v)", i, res)
		}
		if s, err := store.Get(testUser); err == nil {
			if !s.Pending.Valid() || s.ImageSize <= 0 {
				t.Fatalf("step %d: invalid session %+v", i, s)
			}
		}
	}
}

func TestConcurrentUsers(t *testing.T) {
	d, store := newTestDispatcher(t)
	var wg sync.WaitGroup
	for u := int64(1); u <= 20; u++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			for _, text := range []string{"/start", "/set_size", "300", "/generate"} {
				d.Dispatch(context.Background(), TextMessage{UserID: user, ChatID: user, Text: text})
			}
		}(u)
	}
	wg.Wait()
	if store.Len() != 20 {
		t.Fatalf("expected 20 sessions, got %d", store.Len())
	}
	for u := int64(1); u <= 20; u++ {
		s, err := store.Get(u)
		if err != nil || s.ImageSize != 300 || s.Pending != session.AwaitingStyleChoice {
			t.Fatalf("user %d: %+v %v", u, s, err)
		}
	}
	if d.locks.size() != 0 {
		t.Fatalf("user locks leaked: %d", d.locks.size())
	}
}

func TestResultOutcome(t *testing.T) {
	d, _ := newTestDispatcher(t)
	if got := sendText(d, CommandStart).Outcome(); got != "ok" {
		t.Fatalf("start outcome = %q", got)
	}
	_ = sendText(d, CommandSetSize)
	if got := sendText(d, "abc").Outcome(); got != "rejected" {
		t.Fatalf("bad size outcome = %q", got)
	}
	if got := sendCallback(d, "no-such-style").Outcome(); got != "rejected" {
		t.Fatalf("unknown style outcome = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := d.Dispatch(ctx, TextMessage{UserID: testUser, Text: CommandHelp}).Outcome(); got != "cancelled" {
		t.Fatalf("cancelled outcome = %q", got)
	}

	other, _ := newTestDispatcher(t)
	if got := sendText(other, "hello").Outcome(); got != "fail" {
		t.Fatalf("desync outcome = %q", got)
	}
}
