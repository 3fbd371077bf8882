package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

// Credentials is the active operator credential.
type Credentials struct {
	Token    string
	Operator string
	Role     enums.Role
}

// Snapshot is the guard's view of the session at one instant. While Loading
// is true the credential state is unknown (persisted token being restored)
// and protected screens must render nothing rather than flash content.
type Snapshot struct {
	Loading     bool
	Credentials *Credentials
}

// Authenticated reports whether an operator is signed in.
func (s Snapshot) Authenticated() bool {
	return !s.Loading && s.Credentials != nil
}

// Decision is the guard's routing verdict for a navigation.
type Decision string

const (
	// DecisionAllow renders the target screen.
	DecisionAllow Decision = "allow"
	// DecisionWait renders nothing until the session state is known.
	DecisionWait Decision = "wait"
	// DecisionRedirectLogin sends the operator to the login screen.
	DecisionRedirectLogin Decision = "redirect_login"
	// DecisionRedirectHome sends the operator back to the sales screen.
	DecisionRedirectHome Decision = "redirect_home"
)

// Verdict pairs a routing decision with an operator-facing notice.
type Verdict struct {
	Decision Decision
	Notice   string
}

type rule struct {
	prefix  string
	minRole enums.Role
}

// Policy maps screen paths to the minimum role that may open them. Paths
// outside every rule only require being signed in.
type Policy struct {
	rules []rule
}

// DefaultPolicy matches the terminal's protected screens: management areas
// need manager access, backup administration needs admin.
func DefaultPolicy() *Policy {
	return &Policy{rules: []rule{
		{prefix: "/backup", minRole: enums.RoleAdmin},
		{prefix: "/products", minRole: enums.RoleManager},
		{prefix: "/users", minRole: enums.RoleManager},
		{prefix: "/reports", minRole: enums.RoleManager},
		{prefix: "/stock", minRole: enums.RoleManager},
	}}
}

func (p *Policy) requiredRole(path string) (enums.Role, bool) {
	for _, r := range p.rules {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r.minRole, true
		}
	}
	return "", false
}

// Guard owns the session lifecycle: login, restore, expiry, logout, and the
// routing decision for every protected screen.
type Guard struct {
	mu     sync.Mutex
	policy *Policy
	log    *logger.Logger
	snap   Snapshot

	// onClear runs after the session is dropped, e.g. to abandon an open
	// checkout draft. Optional.
	onClear func()
}

// NewGuard starts in the loading state; call Restore or SignIn to settle it.
func NewGuard(policy *Policy, log *logger.Logger, onClear func()) (*Guard, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Guard{
		policy:  policy,
		log:     log,
		snap:    Snapshot{Loading: true},
		onClear: onClear,
	}, nil
}

// Snapshot returns the current session state.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

// SignIn installs a fresh credential after a successful login.
func (g *Guard) SignIn(ctx context.Context, creds Credentials) error {
	if creds.Token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "empty access token")
	}
	if !creds.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	g.mu.Lock()
	g.snap = Snapshot{Credentials: &creds}
	g.mu.Unlock()

	g.log.Info(g.log.WithOperator(ctx, creds.Operator), "operator signed in")
	return nil
}

// Restore settles the session from a persisted token, discarding it when
// expired or unreadable. The guard leaves the loading state either way.
func (g *Guard) Restore(ctx context.Context, token, operator string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token == "" {
		g.snap = Snapshot{}
		return
	}
	claims, err := ParseClaims(token)
	if err != nil || claims.Expired(now) {
		g.log.Warn(ctx, "discarding persisted credential")
		g.snap = Snapshot{}
		return
	}
	if operator == "" {
		operator = claims.Username
	}
	g.snap = Snapshot{Credentials: &Credentials{
		Token:    token,
		Operator: operator,
		Role:     claims.Role,
	}}
}

// SignOut drops the credential.
func (g *Guard) SignOut(ctx context.Context) {
	g.clear()
	g.log.Info(ctx, "operator signed out")
}

// HandleError inspects a backend failure and drops the session when the
// credential is no longer valid. Returns true when the session was cleared
// and the operator must log in again.
func (g *Guard) HandleError(ctx context.Context, err error) bool {
	if pkgerrors.CodeOf(err) != pkgerrors.CodeSessionExpired {
		return false
	}
	g.clear()
	g.log.Warn(ctx, "session expired, credential dropped")
	return true
}

func (g *Guard) clear() {
	g.mu.Lock()
	g.snap = Snapshot{}
	onClear := g.onClear
	g.mu.Unlock()

	if onClear != nil {
		onClear()
	}
}

// Authorize decides whether the current operator may open the given screen.
// The denied screen is never rendered: the verdict is produced before any
// of the target's data is fetched.
func (g *Guard) Authorize(path string) Verdict {
	g.mu.Lock()
	snap := g.snap
	g.mu.Unlock()

	if snap.Loading {
		return Verdict{Decision: DecisionWait}
	}
	if snap.Credentials == nil {
		return Verdict{Decision: DecisionRedirectLogin}
	}

	minRole, restricted := g.policy.requiredRole(path)
	if !restricted {
		return Verdict{Decision: DecisionAllow}
	}
	if !snap.Credentials.Role.AtLeast(minRole) {
		return Verdict{
			Decision: DecisionRedirectHome,
			Notice:   pkgerrors.MetadataFor(pkgerrors.CodeForbidden).OperatorMessage,
		}
	}
	return Verdict{Decision: DecisionAllow}
}
