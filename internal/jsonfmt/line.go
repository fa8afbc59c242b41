package jsonfmt

import "strings"

// ParseLine splits a rendered "[timestamp] [stream] body" line. A line that
// does not start with a bracketed segment is returned whole as body; a line
// with only one bracketed segment has an empty stream.
func ParseLine(line string) (timestamp, stream, body string) {
	if !strings.HasPrefix(line, "[") {
		return "", "", line
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", "", line
	}
	timestamp = line[1:end]
	rest := strings.TrimSpace(line[end+1:])
	if strings.HasPrefix(rest, "[") {
		if groupEnd := strings.IndexByte(rest, ']'); groupEnd >= 0 {
			return timestamp, rest[1:groupEnd], strings.TrimSpace(rest[groupEnd+1:])
		}
	}
	return timestamp, "", rest
}
