package branchwire

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// SourceProvider supplies a project description that is not on disk: piped
// stdin when present, the clipboard otherwise.
type SourceProvider struct {
	stdin io.Reader
}

func NewSourceProvider() *SourceProvider {
	return &SourceProvider{}
}

func (sp *SourceProvider) GetContent() (string, error) {
	if sp.stdin != nil {
		c, err := io.ReadAll(sp.stdin)
		return string(c), err
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		c, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(c), nil
	}

	c, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	c = strings.TrimSpace(c)
	if c == "" {
		return "", errors.New("no configuration on stdin or clipboard")
	}
	return c, nil
}

func CopyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
