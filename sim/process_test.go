package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_CallWaitsForChild(t *testing.T) {
	// GIVEN a parent that calls a child sleeping for three hours
	s := newTestSimulator()
	var childDone bool
	var resumedAt float64
	s.Spawn("parent", func(p *Process) {
		p.Sleep(1)
		p.Call("child", func(c *Process) {
			c.Sleep(3)
			childDone = true
		})
		resumedAt = p.Now()
	})

	require.NoError(t, s.Run(10))

	// THEN the parent resumes when the child finishes
	assert.True(t, childDone)
	assert.Equal(t, 4.0, resumedAt)
}

func TestProcess_WaitOnFinishedChildReturnsImmediately(t *testing.T) {
	s := newTestSimulator()
	var waitedAt float64 = -1
	child := s.Spawn("child", func(c *Process) {})
	s.Spawn("parent", func(p *Process) {
		p.Sleep(2)
		p.Wait(child)
		waitedAt = p.Now()
	})

	require.NoError(t, s.Run(10))

	assert.Equal(t, StateFinished, child.State())
	assert.Equal(t, 2.0, waitedAt)
}

func TestProcess_MultipleJoinersWakeInOrder(t *testing.T) {
	s := newTestSimulator()
	var order []string
	child := s.Spawn("child", func(c *Process) { c.Sleep(5) })
	for _, name := range []string{"j1", "j2"} {
		name := name
		s.Spawn(name, func(p *Process) {
			p.Wait(child)
			order = append(order, name)
		})
	}

	require.NoError(t, s.Run(10))
	assert.Equal(t, []string{"j1", "j2"}, order)
}

func TestProcess_StateReflectsSuspension(t *testing.T) {
	s := newTestSimulator()
	cond := NewCondition(s)
	sleeper := s.Spawn("sleeper", func(p *Process) { p.Sleep(10) })
	waiter := s.Spawn("waiter", func(p *Process) { cond.Wait(p) })

	var seen []ProcessState
	s.Spawn("observer", func(p *Process) {
		p.Sleep(1)
		seen = append(seen, sleeper.State(), waiter.State(), p.State())
	})

	require.NoError(t, s.Run(20))

	assert.Equal(t, []ProcessState{StateSleeping, StateWaitCondition, StateRunning}, seen)
	assert.Equal(t, StateFinished, sleeper.State())
	assert.Equal(t, StateAbandoned, waiter.State())
}

func TestProcess_SpawnFromProcessStartsAtCurrentInstant(t *testing.T) {
	s := newTestSimulator()
	var startedAt float64 = -1
	s.Spawn("parent", func(p *Process) {
		p.Sleep(3)
		p.Sim().Spawn("late", func(c *Process) { startedAt = c.Now() })
	})

	require.NoError(t, s.Run(10))
	assert.Equal(t, 3.0, startedAt)
}

func TestProcess_IDsAreUniqueAndNamesKept(t *testing.T) {
	s := newTestSimulator()
	a := s.Spawn("a", func(p *Process) {})
	b := s.Spawn("b", func(p *Process) {})
	require.NoError(t, s.Run(0))

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
	assert.Contains(t, b.String(), "b#")
}

func TestProcessState_String(t *testing.T) {
	assert.Equal(t, "wait-queue", StateWaitQueue.String())
	assert.Equal(t, "ProcessState(99)", ProcessState(99).String())
}
