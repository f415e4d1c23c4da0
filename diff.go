package branchwire

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

func UnifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	name := strings.TrimPrefix(path, "/")
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}
	return out, nil
}
