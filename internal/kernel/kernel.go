// Package kernel wraps the Google Mangle engine around a werewolf fact
// base. Base facts (claims, checks, votes, deaths) are asserted as the
// event log is processed; derived predicates (seer conflicts, confirmed
// identities, counter-claims) are recomputed by rule evaluation and read
// back by the retrieval layer.
package kernel

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

// ===== SCHEMA =====

// schema declares the base predicates the session asserts and the derived
// predicates the retrieval layer reads. Player ids and days are numbers;
// roles and check results are strings so CJK role names survive intact.
const schema = `
Decl claim_role(Player, Role, Day) bound [/number, /string, /number].
Decl seer_check(Seer, Target, Result, Night) bound [/number, /number, /string, /number].
Decl cast_vote(Voter, Target, Day) bound [/number, /number, /number].
Decl death(Player, Day, Phase) bound [/number, /number, /string].
Decl kill_claim(Claimant, Target, Day) bound [/number, /number, /number].
Decl gold_claim(Claimant, Target, Day) bound [/number, /number, /number].

Decl seer_claimant(Player) bound [/number].
Decl seer_conflict(A, B) bound [/number, /number].
Decl confirmed_wolf(Player) bound [/number].
Decl confirmed_good(Player) bound [/number].
Decl counter_claim(A, B, Role) bound [/number, /number, /string].

seer_claimant(P) :- claim_role(P, "预言家", _).
seer_conflict(A, B) :- seer_claimant(A), seer_claimant(B), A != B.
confirmed_wolf(T) :- seer_check(_, T, "wolf", _).
confirmed_good(T) :- seer_check(_, T, "good", _).
counter_claim(A, B, R) :- claim_role(A, R, _), claim_role(B, R, _), A != B.
`

const (
	checkResultWolf = "wolf"
	checkResultGood = "good"
)

// ===== ENGINE =====

// Fact is one base fact in predicate/args form.
type Fact struct {
	Predicate string        `json:"predicate"`
	Args      []interface{} `json:"args"`
}

// Stats reports fact-store size per predicate.
type Stats struct {
	TotalFacts      int            `json:"total_facts"`
	PredicateCounts map[string]int `json:"predicate_counts"`
	LastUpdate      time.Time      `json:"last_update"`
}

// Kernel owns the fact store for one game session.
type Kernel struct {
	mu             sync.RWMutex
	store          factstore.ConcurrentFactStore
	baseStore      factstore.FactStoreWithRemove
	programInfo    *analysis.ProgramInfo
	queryContext   *mengine.QueryContext
	predicateIndex map[string]ast.PredicateSym
	factCount      int
	dirty          bool
}

// New creates a kernel with the werewolf schema loaded and analyzed.
func New() (*Kernel, error) {
	k := &Kernel{}
	k.resetStoreLocked()
	if err := k.loadSchema(schema); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) resetStoreLocked() {
	k.baseStore = factstore.NewSimpleInMemoryStore()
	k.store = factstore.NewConcurrentFactStore(k.baseStore)
	k.factCount = 0
	k.dirty = false
}

func (k *Kernel) loadSchema(src string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(src)))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analyze schema: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.programInfo = programInfo
	k.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	predToDecl := make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		k.predicateIndex[sym.Symbol] = sym
		predToDecl[sym] = decl
	}

	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}

	k.queryContext = &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  predToDecl,
		Store:       k.store,
	}
	return nil
}

// Reset drops all facts, keeping the compiled schema.
func (k *Kernel) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.resetStoreLocked()
	k.queryContext.Store = k.store
	logging.Kernel("fact store reset")
}

// ===== ASSERTIONS =====

// AssertRoleClaim records a public role claim.
func (k *Kernel) AssertRoleClaim(playerID int, role types.Role, day int) error {
	return k.addFact(Fact{Predicate: "claim_role", Args: []interface{}{playerID, string(role), day}})
}

// AssertSeerCheck records a night check result.
func (k *Kernel) AssertSeerCheck(seerID, targetID int, isWolf bool, night int) error {
	result := checkResultGood
	if isWolf {
		result = checkResultWolf
	}
	return k.addFact(Fact{Predicate: "seer_check", Args: []interface{}{seerID, targetID, result, night}})
}

// AssertVote records one cast vote.
func (k *Kernel) AssertVote(from, to, day int) error {
	return k.addFact(Fact{Predicate: "cast_vote", Args: []interface{}{from, to, day}})
}

// AssertDeath records a death event.
func (k *Kernel) AssertDeath(playerID, day int, phase types.Phase) error {
	return k.addFact(Fact{Predicate: "death", Args: []interface{}{playerID, day, string(phase)}})
}

// AssertKillClaim records a public kill-confirm statement (查杀).
func (k *Kernel) AssertKillClaim(claimantID, targetID, day int) error {
	return k.addFact(Fact{Predicate: "kill_claim", Args: []interface{}{claimantID, targetID, day}})
}

// AssertGoldClaim records a public gold-water statement (金水).
func (k *Kernel) AssertGoldClaim(claimantID, targetID, day int) error {
	return k.addFact(Fact{Predicate: "gold_claim", Args: []interface{}{claimantID, targetID, day}})
}

func (k *Kernel) addFact(fact Fact) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	atom, err := k.factToAtomLocked(fact)
	if err != nil {
		return err
	}
	if k.store.Add(atom) {
		k.factCount++
		k.dirty = true
	}
	return nil
}

func (k *Kernel) factToAtomLocked(fact Fact) (ast.Atom, error) {
	sym, ok := k.predicateIndex[fact.Predicate]
	if !ok {
		return ast.Atom{}, fmt.Errorf("predicate %s is not declared", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return ast.Atom{}, fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		switch v := raw.(type) {
		case int:
			args[i] = ast.Number(int64(v))
		case int64:
			args[i] = ast.Number(v)
		case string:
			args[i] = ast.String(v)
		case bool:
			if v {
				args[i] = ast.TrueConstant
			} else {
				args[i] = ast.FalseConstant
			}
		default:
			return ast.Atom{}, fmt.Errorf("predicate %s arg %d: unsupported type %T", fact.Predicate, i, raw)
		}
	}
	return ast.Atom{Predicate: sym, Args: args}, nil
}

// ===== EVALUATION AND READS =====

// evaluate reruns the rules when base facts changed since the last read.
func (k *Kernel) evaluate() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.dirty {
		return nil
	}

	stats, err := mengine.EvalProgramWithStats(k.programInfo, k.store)
	if err != nil {
		return fmt.Errorf("evaluate rules: %w", err)
	}
	k.dirty = false
	logging.KernelDebug("rule evaluation complete: %+v", stats)
	return nil
}

// Facts returns all facts for a predicate, evaluating rules first so
// derived predicates are current.
func (k *Kernel) Facts(predicate string) ([]Fact, error) {
	if err := k.evaluate(); err != nil {
		return nil, err
	}

	k.mu.RLock()
	sym, ok := k.predicateIndex[predicate]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := k.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]interface{}, len(atom.Args))
		for i, arg := range atom.Args {
			args[i] = termToValue(arg)
		}
		results = append(results, Fact{Predicate: predicate, Args: args})
		return nil
	})
	return results, err
}

// SeerClaimants returns every player that has publicly claimed seer.
func (k *Kernel) SeerClaimants() ([]int, error) {
	facts, err := k.Facts("seer_claimant")
	if err != nil {
		return nil, err
	}
	return uniqueIntColumn(facts, 0), nil
}

// SeerConflicts returns ordered pairs of players with competing seer
// claims. Each conflict appears in both orientations.
func (k *Kernel) SeerConflicts() ([][2]int, error) {
	facts, err := k.Facts("seer_conflict")
	if err != nil {
		return nil, err
	}
	pairs := make([][2]int, 0, len(facts))
	for _, f := range facts {
		pairs = append(pairs, [2]int{intArg(f.Args[0]), intArg(f.Args[1])})
	}
	return pairs, nil
}

// ConfirmedWolves returns players a recorded check flagged as wolf.
func (k *Kernel) ConfirmedWolves() ([]int, error) {
	facts, err := k.Facts("confirmed_wolf")
	if err != nil {
		return nil, err
	}
	return uniqueIntColumn(facts, 0), nil
}

// ConfirmedGood returns players a recorded check flagged as good.
func (k *Kernel) ConfirmedGood() ([]int, error) {
	facts, err := k.Facts("confirmed_good")
	if err != nil {
		return nil, err
	}
	return uniqueIntColumn(facts, 0), nil
}

// CounterClaims returns (a, b, role) triples where both players claimed
// the same role.
func (k *Kernel) CounterClaims() ([]CounterClaim, error) {
	facts, err := k.Facts("counter_claim")
	if err != nil {
		return nil, err
	}
	out := make([]CounterClaim, 0, len(facts))
	for _, f := range facts {
		out = append(out, CounterClaim{
			A:    intArg(f.Args[0]),
			B:    intArg(f.Args[1]),
			Role: types.Role(stringArg(f.Args[2])),
		})
	}
	return out, nil
}

// CounterClaim is a pair of players claiming the same role.
type CounterClaim struct {
	A    int
	B    int
	Role types.Role
}

// GetStats reports fact counts per predicate.
func (k *Kernel) GetStats() Stats {
	k.mu.RLock()
	defer k.mu.RUnlock()

	counts := make(map[string]int)
	total := 0
	for _, sym := range k.store.ListPredicates() {
		n := 0
		_ = k.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			n++
			return nil
		})
		counts[sym.Symbol] = n
		total += n
	}
	return Stats{TotalFacts: total, PredicateCounts: counts, LastUpdate: time.Now()}
}

// ===== TERM CONVERSION =====

func termToValue(term ast.BaseTerm) interface{} {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch c.Type {
	case ast.NumberType:
		return c.NumValue
	case ast.StringType, ast.NameType:
		return strings.TrimPrefix(c.Symbol, "/")
	default:
		return c.String()
	}
}

func intArg(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func stringArg(v interface{}) string {
	s, _ := v.(string)
	return s
}

func uniqueIntColumn(facts []Fact, col int) []int {
	seen := make(map[int]bool, len(facts))
	var out []int
	for _, f := range facts {
		if col >= len(f.Args) {
			continue
		}
		id := intArg(f.Args[col])
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
