package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blackfmt/black-langserver/types"
)

// MinToolVersion is the oldest formatter release this server supports.
var MinToolVersion = types.ToolVersion{Major: 22, Minor: 3}

// lineRangesMinVersion is the first release understanding --line-ranges.
var lineRangesMinVersion = types.ToolVersion{Major: 23, Minor: 11}

var versionToken = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)

// parseToolVersion extracts the dotted version from the first line of a
// `--version` banner, e.g. "black, 23.11.0 (compiled: yes)". A banner
// with no version token parses as 0.0.0.
func parseToolVersion(banner string) types.ToolVersion {
	line, _, _ := strings.Cut(banner, "\n")
	for _, field := range strings.Fields(line) {
		m := versionToken.FindStringSubmatch(field)
		if m == nil {
			continue
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		micro := 0
		if m[3] != "" {
			micro, _ = strconv.Atoi(m[3])
		}
		return types.ToolVersion{Major: major, Minor: minor, Micro: micro}
	}
	return types.ToolVersion{}
}

func (h *LangHandler) toolVersion(workspaceFS string) types.ToolVersion {
	h.versionMu.RLock()
	defer h.versionMu.RUnlock()
	return h.versions[workspaceFS]
}

func (h *LangHandler) setToolVersion(workspaceFS string, v types.ToolVersion) {
	h.versionMu.Lock()
	defer h.versionMu.Unlock()
	h.versions[workspaceFS] = v
}

// DetectVersions probes `--version` for every configured workspace and
// caches the result for capability gating.
func (h *LangHandler) DetectVersions(ctx context.Context) {
	for _, setting := range h.settings.Workspaces() {
		res, _, err := h.runTool(ctx, setting, "", []string{"--version"}, false, "")
		if err != nil {
			h.logToOutput(ctx, fmt.Sprintf("Error while detecting %s version:\r\n%v", ToolDisplay, err))
			continue
		}
		banner := res.Stdout
		if banner == "" {
			banner = res.Stderr
		}
		h.logToOutput(ctx, fmt.Sprintf("Version info for formatter running for %s:\r\n%s", setting.WorkspaceFS, banner))

		version := parseToolVersion(banner)
		h.setToolVersion(setting.WorkspaceFS, version)

		if version.AtLeast(MinToolVersion) {
			h.logToOutput(ctx, fmt.Sprintf("SUPPORTED %s>=%s\r\nFOUND %s==%s\r\n", ToolModule, MinToolVersion, ToolModule, version))
		} else {
			h.logError(ctx, setting, fmt.Sprintf(
				"Version of formatter running for %s is NOT supported:\r\nSUPPORTED %s>=%s\r\nFOUND %s==%s\r\n",
				setting.WorkspaceFS, ToolModule, MinToolVersion, ToolModule, version))
		}
	}
}
