package ai

import (
	"context"
	"sort"

	"emberfall/server/internal/telemetry"
	"emberfall/server/internal/tuning"
	"emberfall/server/logging"
	"emberfall/server/logging/engagement"
)

// Request is one queued token petition. Requests survive across ticks until
// granted or abandoned.
type Request struct {
	AgentID string
	Kind    TokenKind
}

// Director rations engagement tokens so only a bounded number of agents
// press the attack at once. All mutation happens inside Update, on the
// simulation goroutine.
type Director struct {
	cfg     tuning.Director
	publish logging.Publisher
	metrics telemetry.Metrics

	holders map[string]TokenKind
	held    map[TokenKind]int
	queue   []Request
}

// NewDirector builds the arbiter with empty pools.
func NewDirector(cfg tuning.Director, publish logging.Publisher, metrics telemetry.Metrics) *Director {
	if publish == nil {
		publish = logging.NopPublisher()
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Director{
		cfg:     cfg,
		publish: publish,
		metrics: metrics,
		holders: map[string]TokenKind{},
		held:    map[TokenKind]int{},
	}
}

// Holds returns the token the agent currently owns.
func (d *Director) Holds(agentID string) TokenKind {
	if d == nil {
		return TokenNone
	}
	return d.holders[agentID]
}

// HeldCount reports how many tokens of a kind are out.
func (d *Director) HeldCount(kind TokenKind) int {
	if d == nil {
		return 0
	}
	return d.held[kind]
}

// Submit queues a token request. Duplicate requests and requests from
// current holders are ignored.
func (d *Director) Submit(agentID string, kind TokenKind) {
	if d == nil || agentID == "" || kind == TokenNone {
		return
	}
	if d.holders[agentID] != TokenNone {
		return
	}
	for _, pending := range d.queue {
		if pending.AgentID == agentID {
			return
		}
	}
	d.queue = append(d.queue, Request{AgentID: agentID, Kind: kind})
}

// Release frees the agent's token immediately, e.g. on death or plan end.
func (d *Director) Release(tick uint64, agent *Agent) {
	if d == nil || agent == nil {
		return
	}
	kind := d.holders[agent.ID]
	if kind == TokenNone {
		return
	}
	d.free(agent.ID, kind)
	agent.Token = TokenNone
	engagement.TokenReleased(context.Background(), d.publish, tick, agentRef(agent.ID), engagement.TokenPayload{Kind: kind.String()})
}

func agentRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindAgent}
}

func (d *Director) free(agentID string, kind TokenKind) {
	delete(d.holders, agentID)
	if d.held[kind] > 0 {
		d.held[kind]--
	}
}

func (d *Director) capacity(kind TokenKind) int {
	switch kind {
	case TokenAttack:
		return d.cfg.AttackSlots
	case TokenFlank:
		return d.cfg.FlankSlots
	default:
		return 0
	}
}

// Update runs the per-tick arbitration pass: revoke stale tokens first, then
// score and grant queued requests while pool capacity lasts. Ungranted
// requests stay queued; requests from agents that lost their belief are
// abandoned.
func (d *Director) Update(tick uint64, agents []*Agent, target *Target) {
	if d == nil {
		return
	}
	byID := make(map[string]*Agent, len(agents))
	for _, agent := range agents {
		if agent != nil {
			byID[agent.ID] = agent
		}
	}

	d.revoke(tick, byID, target)
	d.allocate(tick, byID, target)
}

func (d *Director) revoke(tick uint64, agents map[string]*Agent, target *Target) {
	for id, kind := range d.holders {
		agent, ok := agents[id]
		if !ok || !agent.Alive() {
			d.free(id, kind)
			continue
		}
		reason := ""
		if target != nil && agent.Position.DistanceTo(target.Position) > d.cfg.RevokeDistance {
			reason = "target out of range"
		} else if agent.Belief.Certainty < d.cfg.RevokeCertainty {
			reason = "certainty collapsed"
		}
		if reason == "" {
			continue
		}
		d.free(id, kind)
		agent.Token = TokenNone
		d.metrics.Add(telemetry.MetricTokensRevoked, 1)
		engagement.TokenRevoked(context.Background(), d.publish, tick, agentRef(id), engagement.TokenPayload{Kind: kind.String(), Reason: reason})
	}
}

type scoredRequest struct {
	request Request
	agent   *Agent
	score   float64
}

func (d *Director) allocate(tick uint64, agents map[string]*Agent, target *Target) {
	if len(d.queue) == 0 {
		return
	}
	scored := make([]scoredRequest, 0, len(d.queue))
	for _, request := range d.queue {
		agent, ok := agents[request.AgentID]
		if !ok || !agent.Alive() || !agent.Belief.Alert {
			continue
		}
		scored = append(scored, scoredRequest{
			request: request,
			agent:   agent,
			score:   d.efficiency(agent, target),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	remaining := d.queue[:0]
	for _, candidate := range scored {
		kind := candidate.request.Kind
		if d.held[kind] >= d.capacity(kind) {
			remaining = append(remaining, candidate.request)
			continue
		}
		d.holders[candidate.agent.ID] = kind
		d.held[kind]++
		candidate.agent.Token = kind
		d.metrics.Add(telemetry.MetricTokensGranted, 1)
		engagement.TokenGranted(context.Background(), d.publish, tick, agentRef(candidate.agent.ID), engagement.TokenPayload{Kind: kind.String(), Score: candidate.score})
	}
	d.queue = remaining
}

// efficiency scores a request: a distance-decay term (closer is better),
// a multiplier for live sight, and a certainty term.
func (d *Director) efficiency(agent *Agent, target *Target) float64 {
	distanceTerm := 1.0
	if target != nil {
		distance := agent.Position.DistanceTo(target.Position)
		distanceTerm = d.cfg.EfficiencyDistanceScale / (d.cfg.EfficiencyDistanceScale + distance)
	}
	score := distanceTerm * d.cfg.CertaintyWeight * agent.Belief.Certainty
	if agent.Belief.Visible {
		score *= d.cfg.PerceivedBonus
	}
	return score
}
