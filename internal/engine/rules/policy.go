package rules

import "time"

// Award is one scoring instruction produced by a policy. Points may be
// negative for penalties.
type Award struct {
	EntityID string `json:"entity_id"`
	Points   int    `json:"points"`
}

// RoundContext carries the facts a policy may score on.
type RoundContext struct {
	Submitter string // entity credited for the submission (team in team mode)
	Actor     string // entity whose turn it is
	Remaining time.Duration
	Duration  time.Duration
}

// AwardPolicy maps round outcomes to score mutations. OnExpiry covers
// consolation rules when nobody answered in time; the default policy awards
// nothing there.
type AwardPolicy interface {
	OnCorrect(ctx RoundContext) []Award
	OnPartial(ctx RoundContext) []Award
	OnExpiry(actor string) []Award
}

// FixedPolicy awards flat point values.
//
// ActorBonus rewards the actor when someone else solves their prompt (the
// charades pattern: the performer scores alongside the guesser). StealPenalty
// deducts from the actor when a non-actor entity answers first (the
// block/steal pattern).
type FixedPolicy struct {
	Correct      int
	Partial      int
	ActorBonus   int
	StealPenalty int
	Consolation  int
}

func (p FixedPolicy) OnCorrect(ctx RoundContext) []Award {
	awards := []Award{{EntityID: ctx.Submitter, Points: p.Correct}}
	if ctx.Submitter == ctx.Actor {
		return awards
	}
	if p.ActorBonus != 0 {
		awards = append(awards, Award{EntityID: ctx.Actor, Points: p.ActorBonus})
	}
	if p.StealPenalty != 0 {
		awards = append(awards, Award{EntityID: ctx.Actor, Points: -p.StealPenalty})
	}
	return awards
}

func (p FixedPolicy) OnPartial(ctx RoundContext) []Award {
	if p.Partial == 0 {
		return nil
	}
	return []Award{{EntityID: ctx.Submitter, Points: p.Partial}}
}

func (p FixedPolicy) OnExpiry(actor string) []Award {
	if p.Consolation == 0 {
		return nil
	}
	return []Award{{EntityID: actor, Points: p.Consolation}}
}

// SpeedPolicy scales the correct award by time remaining: full points on an
// instant answer, at least one point on a buzzer beater.
type SpeedPolicy struct {
	MaxCorrect int
	ActorBonus int
}

func (p SpeedPolicy) OnCorrect(ctx RoundContext) []Award {
	points := p.MaxCorrect
	if ctx.Duration > 0 {
		points = int(float64(p.MaxCorrect) * float64(ctx.Remaining) / float64(ctx.Duration))
	}
	if points < 1 {
		points = 1
	}
	awards := []Award{{EntityID: ctx.Submitter, Points: points}}
	if ctx.Submitter != ctx.Actor && p.ActorBonus != 0 {
		awards = append(awards, Award{EntityID: ctx.Actor, Points: p.ActorBonus})
	}
	return awards
}

func (p SpeedPolicy) OnPartial(ctx RoundContext) []Award { return nil }

func (p SpeedPolicy) OnExpiry(actor string) []Award { return nil }
