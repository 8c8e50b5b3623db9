package pak

import "os"

// VFS serves LoadFile either from a mounted pak (when the path is listed
// in it) or, falling back, from the OS filesystem. A zero-value VFS with
// no mounted pak behaves as a pass-through to the OS filesystem.
type VFS struct {
	mounted []*Reader
}

// Mount opens a pak file and adds it to the search list; later mounts take
// priority over earlier ones for a path present in both.
func (v *VFS) Mount(pakPath string) error {
	r, err := Open(pakPath)
	if err != nil {
		return err
	}
	v.mounted = append(v.mounted, r)
	return nil
}

// Reset drops every mounted pak, reverting to pure OS-filesystem lookups.
func (v *VFS) Reset() {
	v.mounted = nil
}

// LoadFile looks up logicalPath in the most-recently-mounted pak that has
// it, falling back to the OS filesystem unmodified (no root-relative
// rewriting is performed here; callers pass whatever path the OS
// filesystem would accept).
func (v *VFS) LoadFile(logicalPath string) ([]byte, error) {
	for i := len(v.mounted) - 1; i >= 0; i-- {
		if v.mounted[i].Has(logicalPath) {
			return v.mounted[i].LoadFile(logicalPath)
		}
	}
	return os.ReadFile(logicalPath)
}
