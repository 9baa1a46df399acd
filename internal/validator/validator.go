// Package validator gates generated decisions against hard game-legality
// constraints and drives the bounded correction-retry loop. An exhausted
// loop keeps the last result and flags it unresolved; the game never
// blocks on a stuck decision.
package validator

import (
	"context"
	"fmt"
	"strings"

	"wolfmind/internal/config"
	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

// ViolationKind classifies one broken constraint.
type ViolationKind string

const (
	ViolationVoteAgainstVerifiedGood ViolationKind = "vote_against_verified_good"
	ViolationTargetDead              ViolationKind = "target_dead"
	ViolationTargetUnknown           ViolationKind = "target_unknown"
	ViolationGuardRepeat             ViolationKind = "guard_repeat"
	ViolationSelfTarget              ViolationKind = "self_target"
	ViolationEmptyContent            ViolationKind = "empty_content"
)

// Violation is one broken constraint with a human-readable description.
type Violation struct {
	Kind        ViolationKind `json:"kind"`
	Description string        `json:"description"`
}

// Result is the outcome of validating one decision.
type Result struct {
	IsValid     bool        `json:"is_valid"`
	Violations  []Violation `json:"violations,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

func (r *Result) add(kind ViolationKind, description, suggestion string) {
	r.IsValid = false
	r.Violations = append(r.Violations, Violation{Kind: kind, Description: description})
	r.Suggestions = append(r.Suggestions, suggestion)
}

// Context carries the game-state slice the validator needs: who is alive,
// what private information the deciding player holds, and the guard's
// previous target.
type Context struct {
	SelfID   int
	Players  []types.Player
	Nights   types.NightActionHistory
	// VerifiedGood lists players the deciding player privately knows are
	// good (own checks, own gold water). Only populated when the player
	// actually holds such information.
	VerifiedGood []int
}

func (c Context) isAlive(id int) bool {
	for _, p := range c.Players {
		if p.ID == id {
			return p.IsAlive
		}
	}
	return false
}

func (c Context) isKnown(id int) bool {
	for _, p := range c.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (c Context) verifiedGood(id int) bool {
	for _, g := range c.VerifiedGood {
		if g == id {
			return true
		}
	}
	return false
}

// Validator checks decisions and runs the correction loop.
type Validator struct {
	cfg config.ValidatorConfig
}

// New creates a validator with the given retry policy.
func New(cfg config.ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ===== VALIDATION =====

// ValidateSpeech checks a speech decision. The verified-good constraint is
// only enforceable when the player actually holds private information.
func (v *Validator) ValidateSpeech(d types.Decision, ctx Context) Result {
	result := Result{IsValid: true}

	if strings.TrimSpace(d.Content) == "" {
		result.add(ViolationEmptyContent, "发言内容为空", "生成一段非空发言")
	}
	if d.TargetID != 0 && ctx.verifiedGood(d.TargetID) {
		result.add(ViolationVoteAgainstVerifiedGood,
			fmt.Sprintf("建议投票%d号，但你已私下确认其为好人", d.TargetID),
			fmt.Sprintf("不要推票%d号，改为怀疑没有金水的玩家", d.TargetID))
	}
	return result
}

// ValidateNightAction checks action-type-specific legality for night
// decisions and votes.
func (v *Validator) ValidateNightAction(d types.Decision, ctx Context) Result {
	result := Result{IsValid: true}
	target := d.TargetID

	// Witch save targets the night victim, who is already marked dead in
	// some orchestrations; skip the aliveness check for it.
	needsAliveTarget := d.Kind == types.DecisionVote || d.Kind == types.DecisionKill ||
		d.Kind == types.DecisionGuard || d.Kind == types.DecisionSeerCheck ||
		d.Kind == types.DecisionWitchKill

	if needsAliveTarget {
		switch {
		case !ctx.isKnown(target):
			result.add(ViolationTargetUnknown,
				fmt.Sprintf("%d号不是本局玩家", target),
				"从当前玩家列表中选择目标")
		case !ctx.isAlive(target):
			result.add(ViolationTargetDead,
				fmt.Sprintf("%d号已出局", target),
				"从存活玩家中选择目标")
		}
	}

	switch d.Kind {
	case types.DecisionGuard:
		if last := ctx.Nights.LastGuardTarget(); last != 0 && last == target {
			result.add(ViolationGuardRepeat,
				fmt.Sprintf("不能连续两晚守护%d号", target),
				"换一个守护目标")
		}
	case types.DecisionVote:
		if target == ctx.SelfID {
			result.add(ViolationSelfTarget, "不能投票给自己", "选择其他玩家")
		}
		if ctx.verifiedGood(target) {
			result.add(ViolationVoteAgainstVerifiedGood,
				fmt.Sprintf("投票目标%d号已被你私下确认为好人", target),
				"改投没有金水的玩家")
		}
	case types.DecisionSeerCheck:
		if target == ctx.SelfID {
			result.add(ViolationSelfTarget, "预言家不能查验自己", "查验其他玩家")
		}
	}
	return result
}

// Validate dispatches on decision kind.
func (v *Validator) Validate(d types.Decision, ctx Context) Result {
	if d.Kind == types.DecisionSpeech {
		return v.ValidateSpeech(d, ctx)
	}
	return v.ValidateNightAction(d, ctx)
}

// GenerateCorrectionPrompt renders a directive text prepended to the next
// regeneration request.
func GenerateCorrectionPrompt(result Result) string {
	if result.IsValid {
		return ""
	}
	var b strings.Builder
	b.WriteString("【决策修正】上一次输出违反了规则，必须修正：\n")
	for i, violation := range result.Violations {
		fmt.Fprintf(&b, "%d. %s", i+1, violation.Description)
		if i < len(result.Suggestions) && result.Suggestions[i] != "" {
			fmt.Fprintf(&b, "（%s）", result.Suggestions[i])
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ===== CORRECTION LOOP =====

// Generator produces one decision for a prompt. Implementations wrap an
// LLM call; the correction prompt is empty on the first attempt.
type Generator interface {
	Generate(ctx context.Context, correctionPrompt string) (types.Decision, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, correctionPrompt string) (types.Decision, error)

func (f GeneratorFunc) Generate(ctx context.Context, correctionPrompt string) (types.Decision, error) {
	return f(ctx, correctionPrompt)
}

// RunWithRetry generates a decision and loops through the bounded
// correction cycle. On exhaustion the last decision is returned with
// Unresolved set, alongside its violations. A generation error aborts the
// loop and surfaces the most recent usable decision, if any.
func (v *Validator) RunWithRetry(ctx context.Context, gen Generator, vctx Context) (types.Decision, Result, error) {
	decision, err := gen.Generate(ctx, "")
	if err != nil {
		return types.Decision{}, Result{}, fmt.Errorf("initial generation: %w", err)
	}

	result := v.Validate(decision, vctx)
	retries := 0
	for !result.IsValid && retries < v.cfg.MaxCorrectionRetries {
		retries++
		logging.ValidatorWarn("decision invalid (attempt %d/%d): %v",
			retries, v.cfg.MaxCorrectionRetries, result.Violations)

		next, genErr := gen.Generate(ctx, GenerateCorrectionPrompt(result))
		if genErr != nil {
			decision.Unresolved = true
			return decision, result, fmt.Errorf("correction generation: %w", genErr)
		}
		decision = next
		result = v.Validate(decision, vctx)
	}

	if !result.IsValid {
		decision.Unresolved = true
		logging.ValidatorWarn("correction retries exhausted, keeping last result: %s", decision.String())
	} else if retries > 0 {
		logging.Validator("decision corrected after %d retries", retries)
	}
	return decision, result, nil
}
