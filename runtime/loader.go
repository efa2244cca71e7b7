package runtime

import (
	"bufio"
	"chat-relay/errors"
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed censored/*.txt
var censoredFS embed.FS

// CensoredLoader reads the embedded per-language blacklists shipped with the
// binary so moderation works without any external file.
type CensoredLoader struct{}

func NewCensoredLoader() CensoredLoader {
	return CensoredLoader{}
}

// Load returns the union of all embedded wordlists, one word per line,
// blank lines and '#' comments skipped.
func (CensoredLoader) Load() ([]string, error) {
	var words []string

	err := fs.WalkDir(censoredFS, "censored", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".txt") {
			return nil
		}

		file, err := censoredFS.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			words = append(words, line)
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}
