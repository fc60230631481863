package analysis

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/olivier-w/enchordify/internal/timeline"
)

// Command runs an external analyzer that takes the audio path as its last
// argument and prints the chord records as JSON on stdout.
type Command struct {
	Argv []string
}

// ParseCommand splits a command line on whitespace. An empty line yields nil.
func ParseCommand(line string) *Command {
	argv := strings.Fields(line)
	if len(argv) == 0 {
		return nil
	}
	return &Command{Argv: argv}
}

func (c *Command) Analyze(ctx context.Context, path string) ([]timeline.Record, error) {
	args := append(append([]string{}, c.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", c.Argv[0], err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", c.Argv[0], err, msg)
	}
	return decodeRecords(out)
}
