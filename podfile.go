package branchwire

import (
	"regexp"
	"strings"
)

var (
	podfileTargetOpen = regexp.MustCompile(`^(abstract_)?target[ \t]+["']([^"']+)["'].*\bdo\b`)
	podfileTargetRef  = regexp.MustCompile(`^target[ \t]+["']([^"']+)["']`)
	podfileBlockOpen  = regexp.MustCompile(`^(?:if|unless|case|while|until|begin|def|class|module)\b|\bdo\b(?:[ \t]*\|[^|]*\|)?$`)
	podfileBlockEnd   = regexp.MustCompile(`^end\b`)
)

type podfileScope struct {
	id     int
	target bool
}

// podfileDeclaresBranch reports whether the Branch pod is declared for target:
// in its own block, in an enclosing abstract target, or at the top level.
// Pods declared for other targets do not count. When target is not named
// anywhere, only top-level declarations count.
func podfileDeclaresBranch(text, target string) bool {
	var (
		stack      []podfileScope
		pods       [][]int
		targetPath []int
		found      bool
		nextID     int
	)

	path := func() []int {
		var ids []int
		for _, s := range stack {
			if s.target {
				ids = append(ids, s.id)
			}
		}
		return ids
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripRubyComment(raw))
		if line == "" {
			continue
		}

		if podfileBranchPod.MatchString(line) {
			pods = append(pods, path())
			continue
		}

		if m := podfileTargetOpen.FindStringSubmatch(line); m != nil {
			nextID++
			if !found && m[1] == "" && m[2] == target {
				targetPath = append(path(), nextID)
				found = true
			}
			stack = append(stack, podfileScope{id: nextID, target: true})
			continue
		}
		if m := podfileTargetRef.FindStringSubmatch(line); m != nil {
			nextID++
			if !found && m[1] == target {
				targetPath = append(path(), nextID)
				found = true
			}
			continue
		}

		switch {
		case podfileBlockEnd.MatchString(line):
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case podfileBlockOpen.MatchString(line):
			nextID++
			stack = append(stack, podfileScope{id: nextID})
		}
	}

	for _, p := range pods {
		if isPrefix(p, targetPath) {
			return true
		}
	}
	return false
}

func isPrefix(prefix, path []int) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if prefix[i] != path[i] {
			return false
		}
	}
	return true
}

// stripRubyComment drops a trailing # comment that is not inside a string.
func stripRubyComment(line string) string {
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '#':
			return line[:i]
		}
	}
	return line
}
