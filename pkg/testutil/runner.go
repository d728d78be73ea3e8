package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/nyarchlinux/nyarchify/pkg/system"
)

// Response is what a scripted command returns
type Response struct {
	Output string
	Err    error
	// Do runs when the command matches, e.g. to create files a real
	// command would have produced.
	Do func(cmd system.Command) error
}

// FakeRunner implements system.Runner without starting processes.
// Responses are matched by command-line prefix, longest prefix first.
type FakeRunner struct {
	mu        sync.Mutex
	commands  []system.Command
	stdin     map[int]string
	responses map[string]Response
}

// NewFakeRunner returns a runner where every command succeeds silently
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: map[string]Response{}, stdin: map[int]string{}}
}

// On scripts the response for commands starting with prefix. The prefix
// is matched against the argv joined by spaces, without any sudo.
func (f *FakeRunner) On(prefix string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = resp
	return f
}

// Fail makes commands starting with prefix fail with err
func (f *FakeRunner) Fail(prefix string, err error) *FakeRunner {
	return f.On(prefix, Response{Err: err})
}

// Run implements system.Runner
func (f *FakeRunner) Run(ctx context.Context, cmd system.Command) error {
	_, err := f.Output(ctx, cmd)
	return err
}

// Output implements system.Runner
func (f *FakeRunner) Output(_ context.Context, cmd system.Command) (string, error) {
	f.mu.Lock()
	idx := len(f.commands)
	f.commands = append(f.commands, cmd)
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		f.stdin[idx] = string(data)
	}
	resp, ok := f.match(cmd)
	f.mu.Unlock()

	if !ok {
		return "", nil
	}
	if resp.Do != nil {
		if err := resp.Do(cmd); err != nil {
			return "", err
		}
	}
	return resp.Output, resp.Err
}

func (f *FakeRunner) match(cmd system.Command) (Response, bool) {
	line := strings.Join(cmd.Argv(), " ")
	best := -1
	var found Response
	for prefix, resp := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			found = resp
		}
	}
	return found, best >= 0
}

// Commands returns every command run so far
func (f *FakeRunner) Commands() []system.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]system.Command(nil), f.commands...)
}

// Lines returns every command as a string, with "sudo " when elevated
func (f *FakeRunner) Lines() []string {
	var out []string
	for _, c := range f.Commands() {
		out = append(out, c.String())
	}
	return out
}

// Ran reports whether a command starting with prefix was run
func (f *FakeRunner) Ran(prefix string) bool {
	for _, l := range f.Lines() {
		if strings.HasPrefix(strings.TrimPrefix(l, "sudo "), prefix) {
			return true
		}
	}
	return false
}

// Stdin returns what the i-th command received on stdin
func (f *FakeRunner) Stdin(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stdin[i]
}
