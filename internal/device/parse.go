package device

import "strings"

// parsePactlDescription finds the Description of the named source in
// `pactl list sources` output. Monitor sources capture playback, not a
// microphone, so they yield "".
func parsePactlDescription(listing, sourceName string) string {
	inSource := false
	for _, line := range strings.Split(listing, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Name: ") {
			inSource = strings.TrimPrefix(trimmed, "Name: ") == sourceName
		}
		if inSource && strings.HasPrefix(trimmed, "Description: ") {
			desc := strings.TrimPrefix(trimmed, "Description: ")
			if strings.HasPrefix(desc, "Monitor of ") {
				return ""
			}
			return desc
		}
	}
	return ""
}

// parseSystemProfiler extracts the default input device name from
// `system_profiler SPAudioDataType` output. Current macOS lists devices as
// headings with a "Default Input Device: Yes" attribute; older releases
// had an "Input:" section with a "Default:" or "Device:" line.
func parseSystemProfiler(out string) string {
	lines := strings.Split(out, "\n")

	heading := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, ": ") {
			heading = strings.TrimSuffix(trimmed, ":")
			continue
		}
		if trimmed == "Default Input Device: Yes" && heading != "" {
			return heading
		}
	}

	for _, key := range []string{"Default: ", "Device: "} {
		if v := legacyInputValue(lines, key); v != "" {
			return v
		}
	}
	return ""
}

// legacyInputValue returns the first value for key within the lines that
// follow an "Input:" heading.
func legacyInputValue(lines []string, key string) string {
	const window = 20
	for i, line := range lines {
		if strings.TrimSpace(line) != "Input:" {
			continue
		}
		end := min(i+1+window, len(lines))
		for _, l := range lines[i+1 : end] {
			t := strings.TrimSpace(l)
			if strings.HasPrefix(t, key) {
				if v := strings.TrimSpace(strings.TrimPrefix(t, key)); v != "" && v != "Unknown" {
					return v
				}
			}
		}
	}
	return ""
}
