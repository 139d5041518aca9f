// Package context holds processor context-register state consulted
// during instruction decoding. Context variables carry a default value
// plus address-ranged overrides, so mode-dependent encodings (Thumb
// bits, operand-size prefixes and the like) can vary across an image.
package context

import (
	"sort"

	"github.com/pcodelab/pcode-runtime/errors"
	"github.com/pcodelab/pcode-runtime/space"
)

// changePoint records a value taking effect at a given position and
// holding until the next change point in the same space.
type changePoint struct {
	spaceIndex int
	offset     uint64
	value      uint32
}

type variable struct {
	dflt    uint32
	changes []changePoint // sorted by (spaceIndex, offset)
}

// Database maps context-register names to values in effect at an
// address. A Database is NOT safe for concurrent use; the host must
// not mutate it while a translate or disassemble call is in flight on
// the owning handle.
type Database struct {
	vars map[string]*variable
}

// New returns an empty standalone database. Engine handles embed their
// own instance; this constructor exists for inspection and tests.
func New() *Database {
	return &Database{vars: make(map[string]*variable)}
}

// Register declares a context variable with its default value.
// Registering an existing name resets its default and drops any
// address overrides.
func (db *Database) Register(name string, dflt uint32) {
	db.vars[name] = &variable{dflt: dflt}
}

// SetDefault updates the value used where no address override applies.
// Unknown names are registered implicitly.
func (db *Database) SetDefault(name string, val uint32) {
	v, ok := db.vars[name]
	if !ok {
		db.Register(name, val)
		return
	}
	v.dflt = val
}

// Default returns the fallback value for a variable, or 0 for names
// never registered.
func (db *Database) Default(name string) uint32 {
	if v, ok := db.vars[name]; ok {
		return v.dflt
	}
	return 0
}

// Set records that the variable holds val from addr onward, until the
// next change point in the same space. An invalid address is rejected.
func (db *Database) Set(name string, addr space.Address, val uint32) error {
	if addr.IsInvalid() {
		return errors.InvalidData(errors.PhaseDecode, []string{"context", name}, "invalid address")
	}
	v, ok := db.vars[name]
	if !ok {
		v = &variable{}
		db.vars[name] = v
	}

	cp := changePoint{spaceIndex: addr.Space().Index(), offset: addr.Offset(), value: val}
	i := sort.Search(len(v.changes), func(i int) bool {
		c := v.changes[i]
		if c.spaceIndex != cp.spaceIndex {
			return c.spaceIndex > cp.spaceIndex
		}
		return c.offset >= cp.offset
	})
	if i < len(v.changes) && v.changes[i].spaceIndex == cp.spaceIndex && v.changes[i].offset == cp.offset {
		v.changes[i].value = val
		return nil
	}
	v.changes = append(v.changes, changePoint{})
	copy(v.changes[i+1:], v.changes[i:])
	v.changes[i] = cp
	return nil
}

// Get returns the value in effect at addr: the nearest change point at
// or below addr in the same space, falling back to the default.
func (db *Database) Get(name string, addr space.Address) uint32 {
	v, ok := db.vars[name]
	if !ok {
		return 0
	}
	if addr.IsInvalid() {
		return v.dflt
	}

	si, off := addr.Space().Index(), addr.Offset()
	i := sort.Search(len(v.changes), func(i int) bool {
		c := v.changes[i]
		if c.spaceIndex != si {
			return c.spaceIndex > si
		}
		return c.offset > off
	})
	if i > 0 && v.changes[i-1].spaceIndex == si {
		return v.changes[i-1].value
	}
	return v.dflt
}

// Names returns the registered variable names in unspecified order.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.vars))
	for name := range db.vars {
		names = append(names, name)
	}
	return names
}

// Has reports whether a variable has been registered.
func (db *Database) Has(name string) bool {
	_, ok := db.vars[name]
	return ok
}
