package telegram

import (
	"errors"
	"testing"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, cmd := range []Command{
		{Name: "/start", Description: "Start"},
		{Name: "/generate", Description: "Generate"},
		{Name: "/debug", Description: "Debug", Hidden: true},
		{Name: "/set_size", Description: "Size"},
	} {
		if err := reg.RegisterCommand(cmd); err != nil {
			t.Fatalf("register %s: %v", cmd.Name, err)
		}
	}

	visible := reg.ListCommands(true)
	want := []string{"start", "generate", "set_size"}
	if len(visible) != len(want) {
		t.Fatalf("got %d commands, want %d", len(visible), len(want))
	}
	for i, w := range want {
		if visible[i].Text != w {
			t.Fatalf("command %d = %q, want %q", i, visible[i].Text, w)
		}
	}
	if all := reg.ListCommands(false); len(all) != 4 {
		t.Fatalf("expected hidden command in full list, got %d", len(all))
	}
}

func TestRegistryRejectsInvalidAndDuplicate(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"start", "/Start", "/", "/with space"} {
		if err := reg.RegisterCommand(Command{Name: name, Description: "x"}); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("%q: expected ErrInvalidCommand, got %v", name, err)
		}
	}
	if err := reg.RegisterCommand(Command{Name: "/help"}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("missing description must be rejected, got %v", err)
	}
	if err := reg.RegisterCommand(Command{Name: "/help", Description: "Help"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand(Command{Name: "/help", Description: "Again"}); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("expected ErrDuplicateCommand, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d", reg.Len())
	}
}
