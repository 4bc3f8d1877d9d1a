package feed

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Flow identifies an L4 tuple as the controller's ACL sees it. Proto is
// "tcp", "udp", or anything else for non-L4 traffic such as ICMP.
type Flow struct {
	Src   string
	Dst   string
	Proto string
	Port  int
}

func (f Flow) String() string {
	return fmt.Sprintf("%s -> %s %s/%d", f.Src, f.Dst, f.Proto, f.Port)
}

func (f Flow) isL4() bool {
	return f.Proto == "tcp" || f.Proto == "udp"
}

// Verdict is the policy decision for one flow.
type Verdict int

const (
	Allowed Verdict = iota
	ACLDrop
	Blocked
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case ACLDrop:
		return "acl-drop"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Rate limiting defaults.
const (
	DefaultWindow    = 2 * time.Second
	DefaultThreshold = 60
	DefaultBlockFor  = 15 * time.Second
)

// DefaultACL permits HTTP and HTTPS between h1 and h2 in both directions.
// All other inter-host TCP and UDP is denied.
func DefaultACL() map[Flow]bool {
	return map[Flow]bool{
		{Src: "10.0.0.1", Dst: "10.0.0.2", Proto: "tcp", Port: 80}:  true,
		{Src: "10.0.0.1", Dst: "10.0.0.2", Proto: "tcp", Port: 443}: true,
		{Src: "10.0.0.2", Dst: "10.0.0.1", Proto: "tcp", Port: 80}:  true,
		{Src: "10.0.0.2", Dst: "10.0.0.1", Proto: "tcp", Port: 443}: true,
	}
}

// Policy applies the ACL and the per-source new-flow rate limit, recording
// every decision in a Store.
type Policy struct {
	// Window, Threshold and BlockFor configure the rate limit: a source that
	// opens more than Threshold new flows within Window is blocked for
	// BlockFor.
	Window    time.Duration
	Threshold int
	BlockFor  time.Duration

	mu           sync.Mutex
	acl          map[Flow]bool
	store        *Store
	now          func() time.Time
	newFlows     map[string][]time.Time
	blockedUntil map[string]time.Time
}

// NewPolicy creates a policy with the given ACL. A nil acl uses DefaultACL;
// a nil clock uses time.Now.
func NewPolicy(store *Store, acl map[Flow]bool, now func() time.Time) *Policy {
	if acl == nil {
		acl = DefaultACL()
	}
	if now == nil {
		now = time.Now
	}
	return &Policy{
		Window:       DefaultWindow,
		Threshold:    DefaultThreshold,
		BlockFor:     DefaultBlockFor,
		acl:          acl,
		store:        store,
		now:          now,
		newFlows:     make(map[string][]time.Time),
		blockedUntil: make(map[string]time.Time),
	}
}

// AllowedFlows returns the ACL's permitted tuples in a stable order.
func (p *Policy) AllowedFlows() []Flow {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Flow, 0, len(p.acl))
	for f, ok := range p.acl {
		if ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.Dst != b.Dst {
			return a.Dst < b.Dst
		}
		if a.Proto != b.Proto {
			return a.Proto < b.Proto
		}
		return a.Port < b.Port
	})
	return out
}

// Handle decides one flow. Traffic from a blocked source is dropped without
// being counted. L4 flows feed the rate limiter before the ACL is checked.
func (p *Policy) Handle(f Flow) Verdict {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.blockedLocked(f.Src, now) {
		return Blocked
	}

	p.store.IncFlow()
	if !f.isL4() {
		p.store.IncAllowed()
		return Allowed
	}

	p.recordLocked(f.Src, now)

	if !p.allowsLocked(f) {
		p.store.IncACLDrop()
		p.store.Log("INFO", "ACL DROP: "+f.String(), map[string]any{
			"src_ip": f.Src,
			"dst_ip": f.Dst,
			"proto":  f.Proto,
			"dport":  f.Port,
		})
		return ACLDrop
	}
	p.store.IncAllowed()
	return Allowed
}

// Expire lifts blocks whose time has passed and returns the sources
// unblocked, sorted.
func (p *Policy) Expire() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var lifted []string
	for ip, until := range p.blockedUntil {
		if !until.After(now) {
			delete(p.blockedUntil, ip)
			lifted = append(lifted, ip)
		}
	}
	sort.Strings(lifted)
	for _, ip := range lifted {
		p.store.Log("INFO", "UNBLOCK: "+ip, map[string]any{"src_ip": ip})
	}
	return lifted
}

// IsBlocked reports whether src is currently blocked.
func (p *Policy) IsBlocked(src string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blockedLocked(src, p.now())
}

func (p *Policy) blockedLocked(src string, now time.Time) bool {
	until, ok := p.blockedUntil[src]
	return ok && until.After(now)
}

func (p *Policy) recordLocked(src string, now time.Time) {
	q := append(p.newFlows[src], now)
	cut := 0
	for cut < len(q) && now.Sub(q[cut]) > p.Window {
		cut++
	}
	q = q[cut:]
	p.newFlows[src] = q

	if len(q) > p.Threshold && !p.blockedLocked(src, now) {
		p.blockedUntil[src] = now.Add(p.BlockFor)
		p.store.IncDDoSFlag()
		p.store.Log("WARNING", fmt.Sprintf("BLOCK: %s (new-flows=%d/%gs)", src, len(q), p.Window.Seconds()), map[string]any{
			"src_ip":    src,
			"new_flows": len(q),
			"window_s":  p.Window.Seconds(),
		})
	}
}

func (p *Policy) allowsLocked(f Flow) bool {
	if p.acl[f] {
		return true
	}
	return f.Src == f.Dst
}
