package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one invocation seen by the Fake.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as "name arg1 arg2".
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Fake is a scripted Runner for tests. Responses are matched by command
// prefix ("pod install", "xcodebuild -version", ...); the longest matching
// prefix wins. Unmatched commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Result
	errors    map[string]error
	handlers  map[string]func(Call) (Result, error)
	missing   map[string]bool
	Calls     []Call
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]Result),
		errors:    make(map[string]error),
		handlers:  make(map[string]func(Call) (Result, error)),
		missing:   make(map[string]bool),
	}
}

// Respond scripts a Result for commands starting with prefix.
func (f *Fake) Respond(prefix string, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = res
}

// Fail scripts a hard run error (tool unrunnable) for commands starting with prefix.
func (f *Fake) Fail(prefix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[prefix] = err
}

// Handle scripts a function for commands starting with prefix, for tools
// whose observable effect is a filesystem side effect.
func (f *Fake) Handle(prefix string, fn func(Call) (Result, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[prefix] = fn
}

// MarkMissing makes LookPath fail for name.
func (f *Fake) MarkMissing(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[name] = true
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, dir, name string, args ...string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Dir: dir, Name: name, Args: args}
	f.Calls = append(f.Calls, call)

	cmdline := call.String()
	var bestPrefix string
	for prefix := range f.handlers {
		if strings.HasPrefix(cmdline, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
		}
	}
	if bestPrefix != "" {
		return f.handlers[bestPrefix](call)
	}
	for prefix := range f.errors {
		if strings.HasPrefix(cmdline, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
		}
	}
	if bestPrefix != "" {
		return Result{}, f.errors[bestPrefix]
	}
	for prefix := range f.responses {
		if strings.HasPrefix(cmdline, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
		}
	}
	if bestPrefix != "" {
		return f.responses[bestPrefix], nil
	}
	return Result{}, nil
}

// LookPath implements Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// CommandLines returns every recorded call rendered as a command line.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.String()
	}
	return lines
}
