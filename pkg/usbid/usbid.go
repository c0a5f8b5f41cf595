package usbid

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the usual install locations of the usb.ids file,
// searched in order.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names parsed from a usb.ids
// file. It is safe for concurrent use. Construct with New; the zero
// value is not usable.
type Database struct {
	mu       sync.RWMutex
	paths    []string
	vendors  map[uint16]string
	products map[uint32]string
	loaded   bool // a load attempt completed
	found    bool // a database file was parsed
}

// New returns a database that reads from the first of paths that
// exists. Without arguments the standard locations are searched.
func New(paths ...string) *Database {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	return &Database{
		paths:    paths,
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
	}
}

// Load parses the first database file found. Repeated calls are
// no-ops. It reports whether a file was parsed; when none was,
// lookups return empty strings.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return db.found
	}
	db.loaded = true

	for _, path := range db.paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db.parse(f)
		f.Close()
		db.found = true
		break
	}
	return db.found
}

// Names resolves both identifiers, loading the database on first use.
// Unknown identifiers resolve to empty strings.
func (db *Database) Names(vendor, product uint16) (string, string) {
	db.Load()
	return db.LookupVendor(vendor), db.LookupProduct(vendor, product)
}

// LookupVendor returns the registered name for a vendor identifier,
// or an empty string if it is unknown.
func (db *Database) LookupVendor(vendor uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vendor]
}

// LookupProduct returns the registered name for a vendor and product
// identifier pair, or an empty string if the pair is unknown.
func (db *Database) LookupProduct(vendor, product uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[productKey(vendor, product)]
}

func productKey(vendor, product uint16) uint32 {
	return uint32(vendor)<<16 | uint32(product)
}

// parse reads the usb.ids format: vendor entries at the left margin,
// product entries indented one tab beneath their vendor. The trailing
// class, terminal, and language sections fit neither shape and end
// the vendor list. Caller holds db.mu.
func (db *Database) parse(r io.Reader) {
	sc := bufio.NewScanner(r)
	var vendor uint16
	haveVendor := false

	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '\t' {
			// Deeper indentation (interface entries) fails the entry
			// parse and is skipped without ending the vendor.
			if !haveVendor {
				continue
			}
			if id, name, ok := splitEntry(line[1:]); ok {
				db.products[productKey(vendor, id)] = name
			}
			continue
		}
		id, name, ok := splitEntry(line)
		if !ok {
			haveVendor = false
			continue
		}
		vendor, haveVendor = id, true
		db.vendors[vendor] = name
	}
}

// splitEntry parses one "xxxx  Name" entry: a 4-digit hex identifier,
// two spaces, and a non-empty name.
func splitEntry(s string) (uint16, string, bool) {
	if len(s) < 7 || s[4] != ' ' || s[5] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(s[6:])
	if name == "" {
		return 0, "", false
	}
	return uint16(id), name, true
}
