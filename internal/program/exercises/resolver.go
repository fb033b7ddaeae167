package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNoContentForDay = errors.New("no content for day")
	ErrInvalidDay      = errors.New("invalid program day")
)

const (
	// 10 MB is plenty for a 30 day catalog.
	resolverCacheSize = 10 * 1024 * 1024
	// resolved day plans survive in cache for an hour, catalog
	// writes clear the whole cache anyway
	resolverCacheTTLSeconds = 3600
)

type dayLister interface {
	ListForDay(ctx context.Context, params DayQueryParams) ([]Exercise, error)
}

type preferencesGetter interface {
	// GetPreferences returns the goal and preferred difficulty of a user.
	GetPreferences(ctx context.Context, userID string) (Goal, Difficulty, error)
}

// Resolver picks the exercise plan for a user's program day. The day
// plan depends on the user's goal and preferred difficulty, with
// progressively looser fallbacks so that a sparse catalog still
// produces a plan whenever the day has any content at all:
//
//  1. day + audience matches goal + difficulty matches preference
//  2. day + audience matches goal
//  3. day + difficulty matches preference, audience-agnostic rows only
//  4. day, anything
//
// The first tier with at least one exercise wins, later tiers are
// never mixed in.
type Resolver struct {
	repo     dayLister
	profiles preferencesGetter
	cache    *freecache.Cache
}

func NewResolver(repo dayLister, profiles preferencesGetter) *Resolver {
	return &Resolver{
		repo:     repo,
		profiles: profiles,
		cache:    freecache.NewCache(resolverCacheSize),
	}
}

// ResolveDay returns the exercise plan for the given user and day.
// Returns ErrNoContentForDay when the day has no exercises in any tier.
// Profile lookup errors are passed through unchanged.
func (r *Resolver) ResolveDay(ctx context.Context, userID string, day int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.resolver.resolveday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))

	if day < 1 || day > ProgramDays {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}

	goal, difficulty, err := r.profiles.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("goal", string(goal)))
	span.SetAttributes(attribute.String("difficulty", string(difficulty)))

	cacheKey := []byte(fmt.Sprintf("day|%d|%s|%s", day, goal, difficulty))
	if cached, err := r.cache.Get(cacheKey); err == nil {
		var exercises []Exercise
		if err := json.Unmarshal(cached, &exercises); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return exercises, nil
		}
		log.Errorf("resolver cache: unmarshal day %d plan: %s", day, err)
	}

	tiers := []DayQueryParams{
		{DayNumber: day, Audience: goal, Difficulty: difficulty},
		{DayNumber: day, Audience: goal},
		{DayNumber: day, Difficulty: difficulty, AudienceAgnosticOnly: true},
		{DayNumber: day},
	}

	for i, tier := range tiers {
		exercises, err := r.repo.ListForDay(ctx, tier)
		if err != nil {
			return nil, fmt.Errorf("list for day [tier %d]: %w", i+1, err)
		}
		if len(exercises) == 0 {
			continue
		}

		span.SetAttributes(attribute.Int("tier", i+1))
		if cacheVal, err := json.Marshal(exercises); err == nil {
			if err := r.cache.Set(cacheKey, cacheVal, resolverCacheTTLSeconds); err != nil {
				log.Tracef("resolver cache: set day %d plan: %s", day, err)
			}
		}

		return exercises, nil
	}

	return nil, ErrNoContentForDay
}

// InvalidateCache drops all cached day plans. Called on catalog writes.
func (r *Resolver) InvalidateCache() {
	r.cache.Clear()
}
