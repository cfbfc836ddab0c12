package core

import (
	"strings"

	"github.com/reviewdog/errorformat"
)

// toolErrorFormats recognize the formatter's error markers on stderr,
// e.g. "error: cannot format <file>: Cannot parse: 1:5: x=".
var toolErrorFormats = []string{
	`%trror: cannot format %f: %m`,
	`%trror: %m`,
}

// recognizeToolErrors extracts recognized error messages from the tool's
// stderr. Version banners and progress output do not match.
func recognizeToolErrors(stderr string) []string {
	efms, err := errorformat.NewErrorformat(toolErrorFormats)
	if err != nil {
		return nil
	}

	var msgs []string
	for _, line := range strings.Split(stderr, "\n") {
		for _, efm := range efms.Efms {
			m := efm.Match(line)
			if m == nil || m.M == "" {
				continue
			}
			msgs = append(msgs, m.M)
			break
		}
	}
	return msgs
}
