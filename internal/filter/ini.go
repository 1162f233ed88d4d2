package filter

import "bytes"

// execPrefixes are the INI keys rewritten to launch under a stratum.
var execPrefixes = []string{
	"TryExec=",
	"ExecStart=",
	"ExecStop=",
	"ExecReload=",
	"Exec=",
}

// IniOverhead is the number of extra bytes a single rewritten line gains:
// "<stratTool> <stratum> " inserted between the preserved prefix and the
// remainder of the line. It states the growth Ini gives each rewritten
// line; getattr does not call it, since the reported size is len() of
// Ini's own output, and the tests check Ini against it.
func IniOverhead(stratTool, stratum string) int {
	return len(stratTool) + 1 + len(stratum) + 1
}

// Ini rewrites every line of data whose prefix matches one of the
// recognized execution keys, inserting "<stratTool> <stratum> " between
// the prefix and the remainder of the line. Other lines pass through
// unchanged.
func Ini(data []byte, stratTool, stratum string) []byte {
	lines := splitKeepingNewlines(data)
	var out bytes.Buffer
	out.Grow(len(data))
	for _, line := range lines {
		prefix, rest, ok := matchExecPrefix(line)
		if !ok {
			out.Write(line)
			continue
		}
		out.WriteString(prefix)
		out.WriteString(stratTool)
		out.WriteByte(' ')
		out.WriteString(stratum)
		out.WriteByte(' ')
		out.Write(rest)
	}
	return out.Bytes()
}

func matchExecPrefix(line []byte) (prefix string, rest []byte, ok bool) {
	for _, p := range execPrefixes {
		if bytes.HasPrefix(line, []byte(p)) {
			return p, line[len(p):], true
		}
	}
	return "", nil, false
}

// splitKeepingNewlines splits data into lines, each retaining its
// trailing '\n' (the final line keeps none if data doesn't end in one).
func splitKeepingNewlines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:i+1])
		data = data[i+1:]
	}
	return lines
}
