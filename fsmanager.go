// Copyright (C) 2024 Catalog Cache Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cachecore

import (
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// siloExt is the extension persisted cache section files carry.
const siloExt = ".xb"

// pruneAge is how long a silo file may go unaccessed before Prune
// reclaims it.
const pruneAge = 90 * 24 * time.Hour

// fileManager computes paths for (scope, locale, key) tuples,
// performs the atomic replace / stale-file-removal protocol, and
// prunes old files. It holds no mutable state beyond its configured
// roots, so it needs no lock of its own; all callers already hold the
// Store's lock while using it.
type fileManager struct {
	systemRoot string
	userRoot   string
	overridden bool // true once either root has been explicitly set
	logger     *log.Logger
}

func newFileManager(systemRoot, userRoot string, overridden bool, logger *log.Logger) *fileManager {
	return &fileManager{systemRoot: systemRoot, userRoot: userRoot, overridden: overridden, logger: logger}
}

// encodeKey gives every section a filesystem-safe on-disk name: a
// key with no path separator is used verbatim; otherwise it is
// replaced with a content-addressed hex digest. Collision resistance
// isn't a requirement here, so MD5 is plenty and no third-party hash
// is pulled in just to disambiguate a handful of filesystem-unsafe
// bytes.
func encodeKey(key string) string {
	if !strings.ContainsAny(key, "/\\") {
		return key
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (m *fileManager) root(scope Scope) string {
	if scope == ScopeUser {
		return m.userRoot
	}
	return m.systemRoot
}

// path returns the absolute path a (scope, locale, key) section is
// persisted at.
func (m *fileManager) path(scope Scope, locale, key string) string {
	root := m.root(scope)
	name := locale + "-" + encodeKey(key) + siloExt
	if scope == ScopeUser {
		return filepath.Join(root, "user", name)
	}
	return filepath.Join(root, name)
}

// mostRecent stats the system-root and user-root candidates for
// (locale, key) and returns the path and owning scope of whichever
// one is newer.
func (m *fileManager) mostRecent(locale, key string) (path string, scope Scope, modTime time.Time, ok bool) {
	sysPath := m.path(ScopeSystem, locale, key)
	usrPath := m.path(ScopeUser, locale, key)
	sysInfo, sysErr := os.Stat(sysPath)
	usrInfo, usrErr := os.Stat(usrPath)
	switch {
	case sysErr == nil && usrErr == nil:
		if usrInfo.ModTime().After(sysInfo.ModTime()) {
			return usrPath, ScopeUser, usrInfo.ModTime(), true
		}
		return sysPath, ScopeSystem, sysInfo.ModTime(), true
	case sysErr == nil:
		return sysPath, ScopeSystem, sysInfo.ModTime(), true
	case usrErr == nil:
		return usrPath, ScopeUser, usrInfo.ModTime(), true
	default:
		return "", ScopeSystem, time.Time{}, false
	}
}

// isCurrent reports whether a cache file's change time is at least
// as new as the source it was built from.
func isCurrent(cacheModTime, sourceModTime time.Time) bool {
	return !cacheModTime.Before(sourceModTime)
}

// removeStale implements the stale-file-removal protocol: rename the
// file out of the way with a random suffix, then unlink
// it; if another process already removed it out from under us, fall
// back to unlinking the original name directly. Failures are logged
// and swallowed.
func (m *fileManager) removeStale(fname string) {
	tmp := fname + "." + randomSuffix(6) + ".old"
	if err := os.Rename(fname, tmp); err != nil {
		if err := os.Remove(fname); err != nil && !os.IsNotExist(err) {
			m.logf("remove stale file %s: %v", fname, err)
		}
		return
	}
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		m.logf("remove renamed stale file %s: %v", tmp, err)
	}
}

const randomSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randomSuffixAlphabet[rand.Intn(len(randomSuffixAlphabet))]
	}
	return string(b)
}

// prune recursively scans both cache roots up to one subdirectory
// level, removing any regular file named *.xb or *.cache whose last
// access time is older than pruneAge, and removing any directory
// left empty as a result. Pruning is skipped entirely when either
// root has been overridden from its default, to avoid destroying
// caller-owned data during tests.
func (m *fileManager) prune() error {
	if m.overridden {
		return nil
	}
	for _, root := range []string{m.systemRoot, m.userRoot} {
		if err := m.pruneRoot(root); err != nil {
			return err
		}
	}
	return nil
}

func (m *fileManager) pruneRoot(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cutoff := time.Now().Add(-pruneAge)
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			if err := m.pruneDir(full, cutoff); err != nil {
				m.logf("prune %s: %v", full, err)
			}
			continue
		}
		m.pruneFileIfStale(full, e, cutoff)
	}
	return nil
}

// pruneDir handles exactly one subdirectory level below a cache
// root, such as the
// user/ directory.
func (m *fileManager) pruneDir(dir string, cutoff time.Time) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue // no deeper than one level
		}
		m.pruneFileIfStale(filepath.Join(dir, e.Name()), e, cutoff)
	}
	remaining, err := os.ReadDir(dir)
	if err == nil && len(remaining) == 0 {
		os.Remove(dir)
	}
	return nil
}

func (m *fileManager) pruneFileIfStale(path string, e fs.DirEntry, cutoff time.Time) {
	if !prunableName(e.Name()) {
		return
	}
	info, err := e.Info()
	if err != nil {
		return
	}
	if accessTime(info).Before(cutoff) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logf("prune %s: %v", path, err)
		}
	}
}

func prunableName(name string) bool {
	return strings.HasSuffix(name, siloExt) || strings.HasSuffix(name, ".cache")
}

func (m *fileManager) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf("cachecore: "+format, args...)
	}
}

// checkWritable returns ErrPermission if dir cannot be written to.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ErrPermission
	}
	probe := filepath.Join(dir, ".write-check-"+strconv.Itoa(os.Getpid()))
	f, err := os.Create(probe)
	if err != nil {
		return ErrPermission
	}
	f.Close()
	os.Remove(probe)
	return nil
}
