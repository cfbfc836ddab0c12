package core

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/blackfmt/black-langserver/types"
)

// SettingsStore holds the per-workspace configuration. The whole record
// set is swapped atomically on configuration change; lookups read one
// consistent snapshot and never observe a partial update.
type SettingsStore struct {
	snap atomic.Pointer[settingsSnapshot]
}

type settingsSnapshot struct {
	order    []string
	records  map[string]types.Setting
	defaults types.Setting
}

// NewSettingsStore returns an empty store.
func NewSettingsStore() *SettingsStore {
	s := &SettingsStore{}
	s.snap.Store(&settingsSnapshot{
		records:  map[string]types.Setting{},
		defaults: defaultSetting(nil),
	})
	return s
}

func defaultSetting(global *types.Setting) types.Setting {
	d := types.Setting{
		ImportStrategy:    types.ImportBundled,
		ShowNotifications: types.NotifyOff,
	}
	if global != nil {
		if len(global.Path) > 0 {
			d.Path = global.Path
		}
		if len(global.Interpreter) > 0 {
			d.Interpreter = global.Interpreter
		}
		if len(global.Args) > 0 {
			d.Args = global.Args
		}
		if global.ImportStrategy != "" {
			d.ImportStrategy = global.ImportStrategy
		}
		if global.ShowNotifications != "" {
			d.ShowNotifications = global.ShowNotifications
		}
	}
	return d
}

// Replace installs a new set of workspace records. When the client sent
// none, a single record rooted at fallbackRoot is synthesized so lookups
// always resolve.
func (s *SettingsStore) Replace(settings []types.Setting, global *types.Setting, fallbackRoot string) {
	defaults := defaultSetting(global)

	snap := &settingsSnapshot{
		records:  make(map[string]types.Setting, len(settings)),
		defaults: defaults,
	}

	if len(settings) == 0 && fallbackRoot != "" {
		key := normalizePath(fallbackRoot)
		rec := defaults
		rec.Workspace = toURI(key)
		rec.WorkspaceFS = key
		rec.Cwd = key
		snap.records[key] = rec
		snap.order = []string{key}
		s.snap.Store(snap)
		return
	}

	for _, setting := range settings {
		fs, err := fromURI(setting.Workspace)
		if err != nil {
			continue
		}
		key := normalizePath(fs)
		setting.WorkspaceFS = key
		if setting.ImportStrategy == "" {
			setting.ImportStrategy = defaults.ImportStrategy
		}
		if setting.ShowNotifications == "" {
			setting.ShowNotifications = defaults.ShowNotifications
		}
		if _, ok := snap.records[key]; !ok {
			snap.order = append(snap.order, key)
		}
		snap.records[key] = setting
	}
	s.snap.Store(snap)
}

// ByPath resolves the settings record for a document path: the nearest
// enclosing workspace root wins; a single configured workspace acts as
// the global fallback; otherwise a default record rooted at the file's
// own directory is synthesized. A record is always returned.
func (s *SettingsStore) ByPath(fname string) types.Setting {
	snap := s.snap.Load()

	if fname != "" {
		dir := normalizePath(filepath.Dir(fname))
		for {
			if rec, ok := snap.records[dir]; ok {
				return rec
			}
			parent := normalizePath(filepath.Dir(dir))
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if len(snap.order) == 1 {
		return snap.records[snap.order[0]]
	}

	rec := snap.defaults
	if fname != "" {
		key := normalizePath(filepath.Dir(fname))
		rec.Workspace = toURI(key)
		rec.WorkspaceFS = key
		rec.Cwd = key
	}
	return rec
}

// Workspaces returns all configured records in arrival order.
func (s *SettingsStore) Workspaces() []types.Setting {
	snap := s.snap.Load()
	records := make([]types.Setting, 0, len(snap.order))
	for _, key := range snap.order {
		records = append(records, snap.records[key])
	}
	return records
}

// cwdFor resolves the working-directory policy of a record against the
// document being formatted.
func cwdFor(setting types.Setting, fname string) string {
	switch setting.Cwd {
	case "", types.CwdWorkspaceFolder:
		return setting.WorkspaceFS
	case types.CwdFileDirname:
		if fname != "" {
			return filepath.Dir(fname)
		}
		return setting.WorkspaceFS
	}
	return setting.Cwd
}

// isInstalledPath reports whether fname lives under an installed-package
// or standard-library directory. Installed code is never reformatted.
func isInstalledPath(fname string, extra []string) bool {
	norm := normalizePath(fname)
	for _, prefix := range extra {
		if strings.HasPrefix(norm, normalizePath(prefix)) {
			return true
		}
	}
	for _, part := range strings.Split(norm, "/") {
		if part == "site-packages" || part == "dist-packages" {
			return true
		}
	}
	return false
}
