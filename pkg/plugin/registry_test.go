package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	t.Run("resolves a registered command", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("greeter", "greet", "bye"), "greeter.wasm"))

		res, err := reg.Resolve("greet")
		require.NoError(t, err)
		assert.Equal(t, "greeter", res.Plugin)
		assert.Equal(t, "greet", res.Command.Name)

		res, err = reg.Resolve("bye")
		require.NoError(t, err)
		assert.Equal(t, "greeter", res.Plugin)
	})

	t.Run("unknown command does not resolve", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("greeter", "greet"), "greeter.wasm"))

		_, err := reg.Resolve("missing")
		var derr *DispatchError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, DispatchUnknownCommand, derr.Kind)
	})

	t.Run("rejects duplicate plugin name", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("greeter", "greet"), "a.wasm"))

		err := reg.Register(newFakeInstance("greeter", "other"), "b.wasm")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already loaded")

		// The refused plugin left no commands behind.
		_, err = reg.Resolve("other")
		assert.Error(t, err)
	})

	t.Run("qualified name resolves directly", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("greeter", "greet"), "greeter.wasm"))

		res, err := reg.Resolve("greeter:greet")
		require.NoError(t, err)
		assert.Equal(t, "greeter", res.Plugin)
		assert.Equal(t, "greet", res.Command.Name)

		_, err = reg.Resolve("greeter:missing")
		assert.Error(t, err)

		_, err = reg.Resolve("nosuch:greet")
		assert.Error(t, err)
	})
}

func TestRegistry_CollisionPolicy(t *testing.T) {
	setup := func(t *testing.T) *Registry {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("alpha", "start", "alphaonly"), "alpha.wasm"))
		require.NoError(t, reg.Register(newFakeInstance("beta", "start"), "beta.wasm"))
		return reg
	}

	t.Run("bare name with two owners is ambiguous", func(t *testing.T) {
		reg := setup(t)

		_, err := reg.Resolve("start")
		var derr *DispatchError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, DispatchAmbiguousCommand, derr.Kind)
		assert.Equal(t, []string{"alpha:start", "beta:start"}, derr.Candidates)
	})

	t.Run("qualified names still resolve during a collision", func(t *testing.T) {
		reg := setup(t)

		res, err := reg.Resolve("alpha:start")
		require.NoError(t, err)
		assert.Equal(t, "alpha", res.Plugin)

		res, err = reg.Resolve("beta:start")
		require.NoError(t, err)
		assert.Equal(t, "beta", res.Plugin)
	})

	t.Run("uncollided commands are unaffected", func(t *testing.T) {
		reg := setup(t)

		res, err := reg.Resolve("alphaonly")
		require.NoError(t, err)
		assert.Equal(t, "alpha", res.Plugin)
	})

	t.Run("policy is deterministic across load orders", func(t *testing.T) {
		forward := setup(t)

		reversed := NewRegistry(testLogger())
		require.NoError(t, reversed.Register(newFakeInstance("beta", "start"), "beta.wasm"))
		require.NoError(t, reversed.Register(newFakeInstance("alpha", "start", "alphaonly"), "alpha.wasm"))

		_, errA := forward.Resolve("start")
		_, errB := reversed.Resolve("start")
		var derrA, derrB *DispatchError
		require.True(t, errors.As(errA, &derrA))
		require.True(t, errors.As(errB, &derrB))
		assert.Equal(t, derrA.Candidates, derrB.Candidates)
	})

	t.Run("removing one owner clears the ambiguity", func(t *testing.T) {
		reg := setup(t)

		_, err := reg.Unregister("alpha")
		require.NoError(t, err)

		res, err := reg.Resolve("start")
		require.NoError(t, err)
		assert.Equal(t, "beta", res.Plugin)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	t.Run("commands become unresolvable, others stay", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		require.NoError(t, reg.Register(newFakeInstance("greeter", "greet", "bye"), "greeter.wasm"))
		require.NoError(t, reg.Register(newFakeInstance("timer", "tick"), "timer.wasm"))

		_, err := reg.Unregister("greeter")
		require.NoError(t, err)

		_, err = reg.Resolve("greet")
		assert.Error(t, err)
		_, err = reg.Resolve("bye")
		assert.Error(t, err)

		res, err := reg.Resolve("tick")
		require.NoError(t, err)
		assert.Equal(t, "timer", res.Plugin)
	})

	t.Run("unknown plugin errors", func(t *testing.T) {
		reg := NewRegistry(testLogger())
		_, err := reg.Unregister("nosuch")
		assert.Error(t, err)
	})
}

func TestRegistry_Listings(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(newFakeInstance("zeta", "zcmd"), "z.wasm"))
	require.NoError(t, reg.Register(newFakeInstance("alpha", "bcmd", "acmd"), "a.wasm"))

	t.Run("plugins are sorted by name", func(t *testing.T) {
		plugins := reg.Plugins()
		require.Len(t, plugins, 2)
		assert.Equal(t, "alpha", plugins[0].Name)
		assert.Equal(t, "zeta", plugins[1].Name)
	})

	t.Run("commands are sorted by plugin then command", func(t *testing.T) {
		commands := reg.Commands()
		require.Len(t, commands, 3)
		assert.Equal(t, "acmd", commands[0].Command.Name)
		assert.Equal(t, "bcmd", commands[1].Command.Name)
		assert.Equal(t, "zcmd", commands[2].Command.Name)
	})

	t.Run("len counts plugins", func(t *testing.T) {
		assert.Equal(t, 2, reg.Len())
	})
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		input       string
		wantPlugin  string
		wantCommand string
		wantOK      bool
	}{
		{"greeter:hello", "greeter", "hello", true},
		{"hello", "", "hello", false},
		{":hello", "", "hello", true},
		{"greeter:", "greeter", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, c, ok := SplitQualified(tt.input)
			assert.Equal(t, tt.wantPlugin, p)
			assert.Equal(t, tt.wantCommand, c)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
