package feed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Hosts are the addresses of the demo topology.
var Hosts = []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}

var services = []struct {
	proto string
	port  int
}{
	{"tcp", 22},
	{"tcp", 80},
	{"tcp", 443},
	{"udp", 53},
	{"icmp", 0},
}

// Generator drives synthetic traffic through a Policy: steady background
// flows, mostly permitted, plus a periodic flood from one attacker.
type Generator struct {
	// Attacker floods Hosts[0] for AttackLength steps out of every
	// AttackEvery, opening AttackRate flows per step.
	Attacker     string
	AttackEvery  int
	AttackLength int
	AttackRate   int

	policy  *Policy
	store   *Store
	rng     *rand.Rand
	allowed []Flow
	logger  *slog.Logger
	step    int
}

// NewGenerator creates a generator seeded for reproducible traffic.
func NewGenerator(store *Store, policy *Policy, seed uint64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Attacker:     "10.0.0.3",
		AttackEvery:  45,
		AttackLength: 3,
		AttackRate:   90,
		policy:       policy,
		store:        store,
		rng:          rand.New(rand.NewPCG(seed, seed^0x5DEECE66D)),
		allowed:      policy.AllowedFlows(),
		logger:       logger,
	}
}

// Step produces one second of traffic and lifts expired blocks.
func (g *Generator) Step() {
	g.step++

	n := 4 + g.rng.IntN(12)
	for range n {
		g.policy.Handle(g.background())
	}

	if g.attacking() {
		target := Hosts[0]
		for range g.AttackRate {
			g.policy.Handle(Flow{Src: g.Attacker, Dst: target, Proto: "tcp", Port: 1024 + g.rng.IntN(60000)})
		}
	}

	for _, ip := range g.policy.Expire() {
		g.logger.Info("unblocked source", "src_ip", ip)
	}
}

// Run steps the generator and closes a store second on every tick until ctx
// is cancelled.
func (g *Generator) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Step()
			g.store.Tick()
		}
	}
}

func (g *Generator) attacking() bool {
	if g.AttackEvery <= 0 || g.AttackLength <= 0 || g.Attacker == "" {
		return false
	}
	return g.step%g.AttackEvery >= g.AttackEvery-g.AttackLength
}

// background picks a permitted tuple most of the time and a random one
// otherwise.
func (g *Generator) background() Flow {
	if len(g.allowed) > 0 && g.rng.Float64() < 0.7 {
		return g.allowed[g.rng.IntN(len(g.allowed))]
	}
	src := g.rng.IntN(len(Hosts))
	dst := (src + 1 + g.rng.IntN(len(Hosts)-1)) % len(Hosts)
	svc := services[g.rng.IntN(len(services))]
	return Flow{Src: Hosts[src], Dst: Hosts[dst], Proto: svc.proto, Port: svc.port}
}
