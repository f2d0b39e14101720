// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"bastion/pkg/respath"
)

// twoPackManager builds a manager over packs "base" and "override", where
// the override pack shadows one of base's resources.
func twoPackManager(t *testing.T) *Manager {
	t.Helper()

	dir := t.TempDir()
	basePath := writePack(t, dir, "base", map[string]string{
		"data/core/motd.txt":   "base motd",
		"data/core/rules.txt":  "base rules",
		"data/extra/bonus.txt": "bonus",
	})
	overridePath := writePack(t, dir, "override", map[string]string{
		"data/core/motd.txt": "override motd",
	})

	base, err := OpenDir(basePath)
	if err != nil {
		t.Fatal(err)
	}
	override, err := OpenDir(overridePath)
	if err != nil {
		t.Fatal(err)
	}

	provider, err := NewStaticProvider(base, override)
	if err != nil {
		t.Fatal(err)
	}

	m := NewManager(WithProvider(provider))
	t.Cleanup(func() { m.Close() })
	return m
}

func readText(t *testing.T, r *Resource) string {
	t.Helper()
	text, err := r.Text()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestManagerStagingTakesEffectOnReload(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)
	motd := respath.MustOf("core", "motd.txt")

	if err := m.Activate("base"); err != nil {
		t.Fatal(err)
	}

	// Staged but not reloaded: lookups still miss.
	if _, err := m.Resource(motd); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resource before reload: err = %v, want ErrNotFound", err)
	}
	if got := m.Active(); len(got) != 0 {
		t.Errorf("Active() = %v before reload, want empty", got)
	}

	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := m.Resource(motd)
	if err != nil {
		t.Fatal(err)
	}
	if readText(t, r) != "base motd" {
		t.Errorf("resource text = %q", readText(t, r))
	}
	if !reflect.DeepEqual(m.Active(), []string{"base"}) {
		t.Errorf("Active() = %v, want [base]", m.Active())
	}
}

func TestManagerPriorityOverride(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)
	motd := respath.MustOf("core", "motd.txt")

	if err := m.SetActive("base", "override"); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := m.Resource(motd)
	if err != nil {
		t.Fatal(err)
	}
	if r.PackID() != "override" {
		t.Errorf("topmost pack = %q, want override", r.PackID())
	}
	if readText(t, r) != "override motd" {
		t.Errorf("text = %q", readText(t, r))
	}

	// A path only base provides resolves to base.
	rules, err := m.Resource(respath.MustOf("core", "rules.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if rules.PackID() != "base" {
		t.Errorf("rules pack = %q, want base", rules.PackID())
	}

	// All overlays, lowest priority first.
	overlays := m.Resources(motd)
	if len(overlays) != 2 || overlays[0].PackID() != "base" || overlays[1].PackID() != "override" {
		ids := make([]string, len(overlays))
		for i, o := range overlays {
			ids[i] = o.PackID()
		}
		t.Errorf("Resources() pack order = %v, want [base override]", ids)
	}
}

func TestManagerReactivateRaisesPriority(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)

	if err := m.SetActive("override", "base"); err != nil {
		t.Fatal(err)
	}
	// Re-activating override moves it back to the top.
	if err := m.Activate("override"); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := m.Resource(respath.MustOf("core", "motd.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if r.PackID() != "override" {
		t.Errorf("topmost pack = %q, want override", r.PackID())
	}
}

func TestManagerDeactivate(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)

	if err := m.SetActive("base", "override"); err != nil {
		t.Fatal(err)
	}
	if !m.Deactivate("override") {
		t.Error("Deactivate(override) = false, want true")
	}
	if m.Deactivate("override") {
		t.Error("second Deactivate(override) = true, want false")
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := m.Resource(respath.MustOf("core", "motd.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if r.PackID() != "base" {
		t.Errorf("pack = %q after deactivation, want base", r.PackID())
	}
}

func TestManagerUnknownPack(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)

	err := m.Activate("ghost")
	if !errors.Is(err, ErrUnknownPack) {
		t.Errorf("Activate(ghost): err = %v, want ErrUnknownPack", err)
	}

	var upe *UnknownPackError
	if !errors.As(err, &upe) || upe.ID != "ghost" {
		t.Errorf("err = %v, want UnknownPackError for ghost", err)
	}
}

func TestManagerFind(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)
	if err := m.SetActive("base", "override"); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	found, err := m.Find("core:*.txt")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range found {
		names = append(names, r.Path().String())
	}
	if !reflect.DeepEqual(names, []string{"core:motd.txt", "core:rules.txt"}) {
		t.Errorf("Find(core:*.txt) = %v", names)
	}

	all, err := m.Find("*:**")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Find(*:**) found %d resources, want 3", len(all))
	}

	if _, err := m.Find("[bad"); err == nil {
		t.Error("Find with a malformed pattern should fail")
	}
}

func TestManagerReloadHooks(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)
	if err := m.Activate("base"); err != nil {
		t.Fatal(err)
	}

	var order []string
	var preEvent, postEvent ReloadEvent
	m.OnPreReload(func(ev ReloadEvent) {
		order = append(order, "pre")
		preEvent = ev
	})
	m.OnPostReload(func(ev ReloadEvent) {
		order = append(order, "post")
		postEvent = ev
	})

	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(order, []string{"pre", "post"}) {
		t.Errorf("hook order = %v", order)
	}
	if preEvent.JobID == "" || preEvent.JobID != postEvent.JobID {
		t.Errorf("job ids: pre %q post %q", preEvent.JobID, postEvent.JobID)
	}
	if preEvent.Err != nil {
		t.Errorf("pre-reload event carries an error: %v", preEvent.Err)
	}
	if postEvent.Err != nil {
		t.Errorf("post-reload event error = %v", postEvent.Err)
	}
	if !reflect.DeepEqual(postEvent.Active, []string{"base"}) {
		t.Errorf("post-reload active = %v", postEvent.Active)
	}
}

func TestManagerReloadAsync(t *testing.T) {
	t.Parallel()

	m := twoPackManager(t)
	if err := m.Activate("base"); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-m.ReloadAsync(context.Background()):
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ReloadAsync did not complete")
	}

	if _, err := m.Resource(respath.MustOf("core", "motd.txt")); err != nil {
		t.Errorf("lookup after async reload failed: %v", err)
	}
}

func TestManagerReloadFailsOnMissingStagedPack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := writePack(t, dir, "base", map[string]string{
		"data/core/motd.txt": "base",
	})
	base, err := OpenDir(packPath)
	if err != nil {
		t.Fatal(err)
	}

	packs := map[string]Pack{"base": base}
	provider := ProviderFunc(func() (map[string]Pack, error) {
		out := make(map[string]Pack, len(packs))
		for id, p := range packs {
			out[id] = p
		}
		return out, nil
	})

	m := NewManager(WithProvider(provider))
	t.Cleanup(func() { m.Close() })

	if err := m.Activate("base"); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The provider stops supplying the pack; the next reload must fail and
	// lookups must keep serving the previous index.
	delete(packs, "base")
	if err := m.Reload(context.Background()); !errors.Is(err, ErrUnknownPack) {
		t.Fatalf("Reload with vanished pack: err = %v, want ErrUnknownPack", err)
	}
	if _, err := m.Resource(respath.MustOf("core", "motd.txt")); err != nil {
		t.Errorf("lookup after failed reload: %v (previous index should survive)", err)
	}
}
