package hybrid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chazu/hybridcsg/pkg/mesh"
	"github.com/google/uuid"
)

// Diagnostics counts boolean operations per operation name and writes
// operand dumps. Each Engine owns one, so engines running concurrently
// never share counters or dump file names.
type Diagnostics struct {
	session string

	mu       sync.Mutex
	counters map[string]int
}

// NewDiagnostics returns a context with a fresh session id.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		session:  uuid.NewString(),
		counters: make(map[string]int),
	}
}

// Session returns the id prefixed to dump file names.
func (d *Diagnostics) Session() string {
	return d.session
}

// Count returns how many operations named op have started.
func (d *Diagnostics) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters[op]
}

// next bumps and returns the counter for op.
func (d *Diagnostics) next(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters[op]++
	return d.counters[op]
}

// dumpPaths returns the operand dump files of the n'th op.
func (d *Diagnostics) dumpPaths(dir, op string, n int) (lhs, rhs string) {
	base := filepath.Join(dir, fmt.Sprintf("%s-%s-%d", d.session, op, n))
	return base + "-lhs.off", base + "-rhs.off"
}

// dump writes both operands as OFF files and returns their paths.
func (d *Diagnostics) dump(dir, op string, n int, a, b *mesh.Mesh) ([]string, error) {
	lhs, rhs := d.dumpPaths(dir, op, n)
	var errs []error
	for _, f := range []struct {
		path string
		m    *mesh.Mesh
	}{{lhs, a}, {rhs, b}} {
		errs = append(errs, writeOFF(f.path, f.m))
	}
	return []string{lhs, rhs}, errors.Join(errs...)
}

func writeOFF(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hybrid: dump: %w", err)
	}
	if err := m.WriteOFF(f); err != nil {
		f.Close()
		return fmt.Errorf("hybrid: dump %s: %w", path, err)
	}
	return f.Close()
}

// removeDumps deletes dump files, ignoring ones that do not exist.
func removeDumps(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
