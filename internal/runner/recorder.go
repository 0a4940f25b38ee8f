package runner

import (
	"context"
	"strings"
	"sync"
)

// Command is a single command seen by a Recorder.
type Command struct {
	Name        string
	Args        []string
	Dir         string
	Privileged  bool
	Interactive bool
}

// String returns the command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Hook is called instead of running a recorded command.
type Hook func(cmd Command) (string, error)

type hookEntry struct {
	prefix string
	fn     Hook
}

// Recorder is a Runner that records commands instead of running them.
// Hooks registered with On are matched against the command line by prefix,
// the longest prefix wins and later hooks replace earlier ones.
type Recorder struct {
	mu sync.Mutex

	Commands []Command

	hooks []hookEntry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Commands: []Command{}}
}

// On registers a hook for commands starting with prefix.
func (r *Recorder) On(prefix string, fn Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, hookEntry{prefix: prefix, fn: fn})
}

// Fail makes commands starting with prefix return err.
func (r *Recorder) Fail(prefix string, err error) {
	r.On(prefix, func(_ Command) (string, error) { return "", err })
}

// Output makes commands starting with prefix return out.
func (r *Recorder) Output(prefix string, out string) {
	r.On(prefix, func(_ Command) (string, error) { return out, nil })
}

// Ran reports whether a command starting with prefix was recorded.
func (r *Recorder) Ran(prefix string) bool {
	return r.Count(prefix) > 0
}

// Count returns how many recorded commands start with prefix.
func (r *Recorder) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, c := range r.Commands {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}

	return n
}

// Lines returns every recorded command line in order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		lines = append(lines, c.String())
	}

	return lines
}

// Run records the command.
func (r *Recorder) Run(_ context.Context, name string, args ...string) (string, error) {
	return r.record(Command{Name: name, Args: args})
}

// RunPrivileged records the command as privileged.
func (r *Recorder) RunPrivileged(_ context.Context, name string, args ...string) (string, error) {
	return r.record(Command{Name: name, Args: args, Privileged: true})
}

// RunInteractive records the command as interactive.
func (r *Recorder) RunInteractive(_ context.Context, dir string, name string, args ...string) error {
	_, err := r.record(Command{Name: name, Args: args, Dir: dir, Interactive: true})

	return err
}

func (r *Recorder) record(cmd Command) (string, error) {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)

	var hook Hook

	best := -1
	line := cmd.String()

	for _, h := range r.hooks {
		if strings.HasPrefix(line, h.prefix) && len(h.prefix) >= best {
			hook = h.fn
			best = len(h.prefix)
		}
	}
	r.mu.Unlock()

	if hook == nil {
		return "", nil
	}

	return hook(cmd)
}
