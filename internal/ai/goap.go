package ai

import "container/heap"

// Fact names one symbolic proposition in the planning world-state. The
// vocabulary is small and fixed, so the state is a flat bool array and its
// hash is a bitmask.
type Fact uint8

const (
	FactTargetVisible Fact = iota
	FactHasBelief
	FactAtLastKnown
	FactAtTacticalPoint
	FactHoldingToken
	FactTargetEliminated
	factCount
)

// State is a full assignment over all facts.
type State [factCount]bool

// Key packs the state into a comparable bitmask for closed/open set lookups.
func (s State) Key() uint32 {
	var key uint32
	for i, v := range s {
		if v {
			key |= 1 << uint(i)
		}
	}
	return key
}

// Cond is a partial assignment: only referenced facts are compared or
// written. The zero value references nothing.
type Cond struct {
	cares [factCount]bool
	want  [factCount]bool
}

// With returns a copy of the condition that also requires fact == value.
func (c Cond) With(fact Fact, value bool) Cond {
	c.cares[fact] = true
	c.want[fact] = value
	return c
}

// Matches reports whether every referenced fact holds in the state.
func (c Cond) Matches(s State) bool {
	for i := range c.cares {
		if c.cares[i] && s[i] != c.want[i] {
			return false
		}
	}
	return true
}

// Apply overwrites the referenced facts, leaving the rest untouched.
func (c Cond) Apply(s State) State {
	for i := range c.cares {
		if c.cares[i] {
			s[i] = c.want[i]
		}
	}
	return s
}

// Mismatch counts referenced facts not yet holding; it is the admissible
// search heuristic (each action fixes at least one fact at cost >= 1).
func (c Cond) Mismatch(s State) int {
	count := 0
	for i := range c.cares {
		if c.cares[i] && s[i] != c.want[i] {
			count++
		}
	}
	return count
}

// Action is one step in the planning catalogue. Pre gates expansion during
// search, Effects transform the symbolic state, and Valid gates the action
// against live agent data the symbolic state does not carry.
type Action struct {
	Name    string
	Cost    float64
	Pre     Cond
	Effects Cond
	Valid   func(agent *Agent) bool
}

// Plan is an ordered action sequence with its total search cost.
type Plan struct {
	Actions []Action
	Cost    float64
}

// Planner searches the symbolic state space.
type Planner struct {
	maxIterations int
}

// NewPlanner caps search effort at maxIterations node expansions.
func NewPlanner(maxIterations int) *Planner {
	if maxIterations <= 0 {
		maxIterations = 256
	}
	return &Planner{maxIterations: maxIterations}
}

type planNode struct {
	state  State
	action Action
	parent *planNode
	g      float64
	f      float64
	index  int
	closed bool
}

type planQueue []*planNode

func (pq planQueue) Len() int { return len(pq) }

func (pq planQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq planQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *planQueue) Push(x any) {
	node := x.(*planNode)
	node.index = len(*pq)
	*pq = append(*pq, node)
}

func (pq *planQueue) Pop() any {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return node
}

// Plan runs A* from start toward goal over the action catalogue. It returns
// nil when no sequence reaches the goal within the iteration cap.
func (p *Planner) Plan(agent *Agent, start State, goal Cond, catalogue []Action) *Plan {
	if p == nil || len(catalogue) == 0 {
		return nil
	}
	if goal.Matches(start) {
		return &Plan{}
	}

	open := &planQueue{}
	heap.Init(open)
	nodes := map[uint32]*planNode{}

	root := &planNode{state: start, f: float64(goal.Mismatch(start))}
	heap.Push(open, root)
	nodes[start.Key()] = root

	for iterations := 0; open.Len() > 0 && iterations < p.maxIterations; iterations++ {
		current := heap.Pop(open).(*planNode)
		current.closed = true
		if goal.Matches(current.state) {
			return reconstructPlan(current)
		}
		for _, action := range catalogue {
			if !action.Pre.Matches(current.state) {
				continue
			}
			if action.Valid != nil && !action.Valid(agent) {
				continue
			}
			next := action.Effects.Apply(current.state)
			key := next.Key()
			tentativeG := current.g + action.Cost
			if existing, ok := nodes[key]; ok {
				if existing.closed || tentativeG >= existing.g {
					continue
				}
				// Better route to a queued state: update in place, no
				// duplicate enqueue.
				existing.g = tentativeG
				existing.f = tentativeG + float64(goal.Mismatch(next))
				existing.action = action
				existing.parent = current
				heap.Fix(open, existing.index)
				continue
			}
			node := &planNode{
				state:  next,
				action: action,
				parent: current,
				g:      tentativeG,
				f:      tentativeG + float64(goal.Mismatch(next)),
			}
			nodes[key] = node
			heap.Push(open, node)
		}
	}
	return nil
}

func reconstructPlan(goal *planNode) *Plan {
	plan := &Plan{Cost: goal.g}
	for node := goal; node.parent != nil; node = node.parent {
		plan.Actions = append(plan.Actions, node.action)
	}
	for i, j := 0, len(plan.Actions)-1; i < j; i, j = i+1, j-1 {
		plan.Actions[i], plan.Actions[j] = plan.Actions[j], plan.Actions[i]
	}
	return plan
}
