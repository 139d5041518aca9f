package context

import (
	"testing"

	"github.com/pcodelab/pcode-runtime/space"
)

func ram(t *testing.T) *space.AddrSpace {
	t.Helper()
	return space.NewAddrSpace("ram", 3, space.KindProcessor, 4, 1, false, 'r')
}

func TestDefaults(t *testing.T) {
	db := New()
	db.Register("mode", 1)

	if got := db.Default("mode"); got != 1 {
		t.Errorf("Default(mode) = %d, want 1", got)
	}
	if got := db.Default("unknown"); got != 0 {
		t.Errorf("Default(unknown) = %d, want 0", got)
	}

	db.SetDefault("mode", 2)
	if got := db.Default("mode"); got != 2 {
		t.Errorf("after SetDefault, Default(mode) = %d, want 2", got)
	}

	// SetDefault on an unregistered name registers it.
	db.SetDefault("fresh", 7)
	if !db.Has("fresh") {
		t.Error("SetDefault should register unknown names")
	}
}

func TestRangeSemantics(t *testing.T) {
	db := New()
	db.Register("mode", 0)
	sp := ram(t)

	if err := db.Set("mode", space.NewAddressIn(sp, 0x100), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set("mode", space.NewAddressIn(sp, 0x200), 2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	tests := []struct {
		off  uint64
		want uint32
	}{
		{0x0, 0},    // before any change point: default
		{0xff, 0},   // still before
		{0x100, 1},  // exactly at a change point
		{0x1ff, 1},  // holds until the next point
		{0x200, 2},  // next point takes over
		{0x9000, 2}, // holds to end of space
	}
	for _, tt := range tests {
		if got := db.Get("mode", space.NewAddressIn(sp, tt.off)); got != tt.want {
			t.Errorf("Get(mode, 0x%x) = %d, want %d", tt.off, got, tt.want)
		}
	}
}

func TestSetOverwritesSamePoint(t *testing.T) {
	db := New()
	db.Register("mode", 0)
	sp := ram(t)
	addr := space.NewAddressIn(sp, 0x40)

	if err := db.Set("mode", addr, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set("mode", addr, 3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := db.Get("mode", addr); got != 3 {
		t.Errorf("Get after overwrite = %d, want 3", got)
	}
}

func TestSpacesDoNotLeak(t *testing.T) {
	db := New()
	db.Register("mode", 9)
	rm := ram(t)
	reg := space.NewAddrSpace("register", 1, space.KindProcessor, 4, 1, false, '%')

	if err := db.Set("mode", space.NewAddressIn(rm, 0x0), 5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// A change point in ram must not affect lookups in register space.
	if got := db.Get("mode", space.NewAddressIn(reg, 0x10)); got != 9 {
		t.Errorf("Get in other space = %d, want default 9", got)
	}
}

func TestSetInvalidAddress(t *testing.T) {
	db := New()
	db.Register("mode", 0)
	if err := db.Set("mode", space.NewAddress(), 1); err == nil {
		t.Error("Set with invalid address should fail")
	}
}

func TestGetUnregistered(t *testing.T) {
	db := New()
	if got := db.Get("ghost", space.NewAddressIn(ram(t), 0)); got != 0 {
		t.Errorf("Get(unregistered) = %d, want 0", got)
	}
}
