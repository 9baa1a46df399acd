package kernel

import (
	"testing"

	"wolfmind/internal/types"
)

func newKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func TestAssertAndReadBaseFacts(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertRoleClaim(1, types.RoleSeer, 1); err != nil {
		t.Fatalf("AssertRoleClaim() error = %v", err)
	}
	if err := k.AssertVote(2, 3, 1); err != nil {
		t.Fatalf("AssertVote() error = %v", err)
	}

	facts, err := k.Facts("claim_role")
	if err != nil {
		t.Fatalf("Facts() error = %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 claim_role fact, got %d", len(facts))
	}
	if got := intArg(facts[0].Args[0]); got != 1 {
		t.Errorf("claimant = %d, want 1", got)
	}
	if got := stringArg(facts[0].Args[1]); got != string(types.RoleSeer) {
		t.Errorf("role = %q, want %q", got, types.RoleSeer)
	}
}

func TestDuplicateFactsNotDoubleCounted(t *testing.T) {
	k := newKernel(t)

	for i := 0; i < 3; i++ {
		if err := k.AssertVote(2, 3, 1); err != nil {
			t.Fatalf("AssertVote() error = %v", err)
		}
	}
	facts, err := k.Facts("cast_vote")
	if err != nil {
		t.Fatalf("Facts() error = %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("expected deduplicated fact, got %d", len(facts))
	}
}

func TestSeerConflictDerivation(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertRoleClaim(1, types.RoleSeer, 1); err != nil {
		t.Fatal(err)
	}
	if err := k.AssertRoleClaim(4, types.RoleSeer, 1); err != nil {
		t.Fatal(err)
	}
	if err := k.AssertRoleClaim(2, types.RoleWitch, 1); err != nil {
		t.Fatal(err)
	}

	claimants, err := k.SeerClaimants()
	if err != nil {
		t.Fatalf("SeerClaimants() error = %v", err)
	}
	if len(claimants) != 2 {
		t.Fatalf("expected 2 seer claimants, got %v", claimants)
	}

	conflicts, err := k.SeerConflicts()
	if err != nil {
		t.Fatalf("SeerConflicts() error = %v", err)
	}
	// Both orientations of the pair are derived.
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflict pairs, got %v", conflicts)
	}
	seen := map[[2]int]bool{}
	for _, p := range conflicts {
		seen[p] = true
	}
	if !seen[[2]int{1, 4}] || !seen[[2]int{4, 1}] {
		t.Errorf("conflict pairs missing, got %v", conflicts)
	}
}

func TestConfirmedIdentitiesFromChecks(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertSeerCheck(1, 3, true, 1); err != nil {
		t.Fatal(err)
	}
	if err := k.AssertSeerCheck(1, 5, false, 2); err != nil {
		t.Fatal(err)
	}

	wolves, err := k.ConfirmedWolves()
	if err != nil {
		t.Fatalf("ConfirmedWolves() error = %v", err)
	}
	if len(wolves) != 1 || wolves[0] != 3 {
		t.Errorf("confirmed wolves = %v, want [3]", wolves)
	}

	good, err := k.ConfirmedGood()
	if err != nil {
		t.Fatalf("ConfirmedGood() error = %v", err)
	}
	if len(good) != 1 || good[0] != 5 {
		t.Errorf("confirmed good = %v, want [5]", good)
	}
}

func TestCounterClaims(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertRoleClaim(2, types.RoleWitch, 1); err != nil {
		t.Fatal(err)
	}
	if err := k.AssertRoleClaim(6, types.RoleWitch, 2); err != nil {
		t.Fatal(err)
	}

	claims, err := k.CounterClaims()
	if err != nil {
		t.Fatalf("CounterClaims() error = %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected both orientations, got %v", claims)
	}
	if claims[0].Role != types.RoleWitch {
		t.Errorf("role = %q, want %q", claims[0].Role, types.RoleWitch)
	}
}

func TestIncrementalAssertionReevaluates(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertRoleClaim(1, types.RoleSeer, 1); err != nil {
		t.Fatal(err)
	}
	conflicts, err := k.SeerConflicts()
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("no conflict expected yet, got %v", conflicts)
	}

	// A second claimant arriving later must surface on the next read.
	if err := k.AssertRoleClaim(4, types.RoleSeer, 2); err != nil {
		t.Fatal(err)
	}
	conflicts, err = k.SeerConflicts()
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 2 {
		t.Errorf("expected conflicts after second claim, got %v", conflicts)
	}
}

func TestResetDropsFacts(t *testing.T) {
	k := newKernel(t)

	if err := k.AssertVote(2, 3, 1); err != nil {
		t.Fatal(err)
	}
	k.Reset()

	facts, err := k.Facts("cast_vote")
	if err != nil {
		t.Fatalf("Facts() after Reset error = %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("expected empty store after reset, got %d facts", len(facts))
	}

	// The kernel stays usable after reset.
	if err := k.AssertDeath(5, 1, types.PhaseNight); err != nil {
		t.Fatalf("AssertDeath() after Reset error = %v", err)
	}
	stats := k.GetStats()
	if stats.PredicateCounts["death"] != 1 {
		t.Errorf("death count = %d, want 1", stats.PredicateCounts["death"])
	}
}
