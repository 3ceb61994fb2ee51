package commands_test

import (
	"strings"
	"testing"

	"taskdeck/internal/commands"
	"taskdeck/internal/session"
)

func TestRegistry_RejectsDuplicateAlias(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.ListCmd{}); err != nil {
		t.Fatalf("register list: %v", err)
	}

	err := r.Register(&commands.ListCmd{})
	if err == nil || !strings.Contains(err.Error(), "already registered: list") {
		t.Errorf("expected duplicate name error, got %v", err)
	}
	if cmd, ok := r.Find("ls"); !ok || cmd.Name() != "list" {
		t.Errorf("expected alias ls to find list, got %v %v", cmd, ok)
	}
}

func TestDefaultRegistry_Commands(t *testing.T) {
	var names []string
	for _, cmd := range commands.DefaultRegistry.All() {
		names = append(names, cmd.Name())
	}
	expected := "add,addcategory,categories,dash,deleteaccount,edit,help,list,login,logout,profile,rm,show,signup,toggle,version"
	if got := strings.Join(names, ","); got != expected {
		t.Errorf("expected commands %s, got %s", expected, got)
	}

	public := map[string]bool{"help": true, "version": true}
	guest := map[string]bool{"login": true, "signup": true}
	for _, cmd := range commands.DefaultRegistry.All() {
		switch access := cmd.Access(); {
		case public[cmd.Name()]:
			if access != session.Public {
				t.Errorf("%s: expected public access, got %v", cmd.Name(), access)
			}
		case guest[cmd.Name()]:
			if access != session.GuestOnly {
				t.Errorf("%s: expected guest-only access, got %v", cmd.Name(), access)
			}
		case cmd.Name() == "logout":
			if access != session.Any {
				t.Errorf("logout: expected any access, got %v", access)
			}
		default:
			if access != session.Protected {
				t.Errorf("%s: expected protected access, got %v", cmd.Name(), access)
			}
		}
	}
}
