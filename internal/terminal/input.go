package terminal

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Reader reads user input line by line
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r. A nil r reads from stdin.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		r = os.Stdin
	}
	return &Reader{r: bufio.NewReader(r)}
}

// ReadLine reads a line of input, trimmed of surrounding whitespace. A final
// line without a newline is returned before io.EOF.
func (r *Reader) ReadLine() (string, error) {
	input, err := r.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && input != "" {
			return strings.TrimSpace(input), nil
		}
		return "", err
	}

	return strings.TrimSpace(input), nil
}

// Command is a parsed plain-mode input line
type Command struct {
	Name string
	Arg  string
}

// ParseCommand splits "/name rest of line" into its parts. Lines not starting
// with '/' are returned with an empty Name and the whole line as Arg.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Arg: line}
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return Command{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}
}
