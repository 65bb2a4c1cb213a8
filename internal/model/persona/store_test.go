package persona

import "testing"

func TestFindByCommandMatchesAliases(t *testing.T) {
	store := NewMemoryStore(Seed())

	cases := map[string]Mode{
		"/idiomas": Tutor,
		"/TUTOR":   Tutor,
		" /chef ":  Chef,
		"/cocina":  Chef,
	}
	for command, want := range cases {
		got, ok := store.FindByCommand(command)
		if !ok {
			t.Fatalf("command %q not found", command)
		}
		if got.ID != want {
			t.Fatalf("command %q: got %s want %s", command, got.ID, want)
		}
	}

	if _, ok := store.FindByCommand("/pirata"); ok {
		t.Fatal("unexpected match for unknown command")
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	items := store.List()
	items[0].Name = "changed"

	got, ok := store.FindByID(items[0].ID)
	if !ok {
		t.Fatal("persona missing")
	}
	if got.Name == "changed" {
		t.Fatal("List must not expose internal slice")
	}
}
