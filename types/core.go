package types

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// NotifyVerbosity controls which log messages are escalated to
// user-visible notifications.
type NotifyVerbosity string

// NotifyOff is
const (
	NotifyOff       NotifyVerbosity = "off"
	NotifyOnWarning NotifyVerbosity = "onWarning"
	NotifyOnError   NotifyVerbosity = "onError"
	NotifyAlways    NotifyVerbosity = "always"
)

// ImportStrategy selects how the alternate-interpreter worker resolves
// the formatter module.
type ImportStrategy string

// ImportBundled is
const (
	ImportBundled         ImportStrategy = "useBundled"
	ImportFromEnvironment ImportStrategy = "fromEnvironment"
)

// CwdWorkspaceFolder and CwdFileDirname are the symbolic values accepted
// for the working-directory setting.
const (
	CwdWorkspaceFolder = "${workspaceFolder}"
	CwdFileDirname     = "${fileDirname}"
)

// Setting is one workspace's formatter configuration, delivered by the
// client at initialize and on configuration change.
type Setting struct {
	Workspace         DocumentURI     `json:"workspace,omitempty"`
	Cwd               string          `json:"cwd,omitempty"`
	Path              []string        `json:"path,omitempty"`
	Interpreter       []string        `json:"interpreter,omitempty"`
	Args              []string        `json:"args,omitempty"`
	ImportStrategy    ImportStrategy  `json:"importStrategy,omitempty"`
	ShowNotifications NotifyVerbosity `json:"showNotifications,omitempty"`

	// WorkspaceFS is the normalized filesystem path of Workspace,
	// derived server-side.
	WorkspaceFS string `json:"-"`
}

// ToolVersion is a dotted formatter version as reported by `--version`.
type ToolVersion struct {
	Major int
	Minor int
	Micro int
}

func (v ToolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

func (v ToolVersion) semver() string {
	return "v" + v.String()
}

// AtLeast reports whether v is o or newer.
func (v ToolVersion) AtLeast(o ToolVersion) bool {
	return semver.Compare(v.semver(), o.semver()) >= 0
}

// IsZero reports whether no version was detected.
func (v ToolVersion) IsZero() bool {
	return v == ToolVersion{}
}

// Config is the server-side configuration loaded from the yaml file.
type Config struct {
	Version     int      `yaml:"version"`
	LogFile     string   `yaml:"log-file"`
	LogLevel    int      `yaml:"log-level"`
	DiffTimeout Duration `yaml:"diff-timeout"`
	MaxWorkers  int      `yaml:"max-workers"`
	// SitePackages lists extra directory prefixes treated as installed
	// code and never reformatted.
	SitePackages []string `yaml:"site-packages"`
	// RunnerScript is the JSON-RPC worker entry point used for the
	// alternate-interpreter invocation mode.
	RunnerScript string `yaml:"runner-script"`
}
