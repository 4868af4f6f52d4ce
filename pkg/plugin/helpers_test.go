package plugin

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// fakeInstance implements Plugin for registry and dispatcher tests
// without a real sandbox behind it.
type fakeInstance struct {
	mu     sync.Mutex
	info   Info
	state  InstanceState
	runErr error
	calls  []string
}

func newFakeInstance(name string, commands ...string) *fakeInstance {
	info := Info{
		Name:        name,
		Description: "fake plugin for tests",
		Version:     "1.0.0",
	}
	for _, c := range commands {
		info.Commands = append(info.Commands, Command{
			Name:        c,
			Usage:       c,
			Description: "fake command",
		})
	}
	return &fakeInstance{info: info, state: StateReady}
}

func (f *fakeInstance) Info() Info {
	return f.info
}

func (f *fakeInstance) RunCommand(_ context.Context, name string, args []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateReady {
		return errNotReady(f.state)
	}
	if f.runErr != nil {
		f.state = StateQuarantined
		return f.runErr
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeInstance) State() InstanceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeInstance) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateClosed
	return nil
}

func (f *fakeInstance) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type errNotReady InstanceState

func (e errNotReady) Error() string {
	return "instance is " + string(e)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
