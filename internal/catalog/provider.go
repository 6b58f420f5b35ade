package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/database"
)

// Provider loads the live menu for a restaurant.
type Provider interface {
	Menu(ctx context.Context, restaurantID uuid.UUID) (*Menu, error)
}

// MenuStore defines the DB methods needed to assemble a menu.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	ListModifierGroupsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.ModifierGroup, error)
	ListModifierOptionsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.ModifierOption, error)
}

// DBProvider reads the menu straight from Postgres.
type DBProvider struct {
	store MenuStore
}

// NewDBProvider creates a new DBProvider.
func NewDBProvider(store MenuStore) *DBProvider {
	return &DBProvider{store: store}
}

func (p *DBProvider) Menu(ctx context.Context, restaurantID uuid.UUID) (*Menu, error) {
	items, err := p.store.ListMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	groups, err := p.store.ListModifierGroupsByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list modifier groups: %w", err)
	}
	options, err := p.store.ListModifierOptionsByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list modifier options: %w", err)
	}
	return buildMenu(restaurantID, items, groups, options), nil
}

func buildMenu(restaurantID uuid.UUID, items []database.MenuItem, groups []database.ModifierGroup, options []database.ModifierOption) *Menu {
	optsByGroup := make(map[uuid.UUID][]Option)
	for _, o := range options {
		optsByGroup[o.GroupID] = append(optsByGroup[o.GroupID], Option{
			ID:         o.ID,
			Name:       o.Name,
			PriceDelta: numericToDecimal(o.PriceDelta),
			IsActive:   o.IsActive,
		})
	}

	groupsByItem := make(map[uuid.UUID][]Group)
	for _, g := range groups {
		group := Group{
			ID:        g.ID,
			Name:      g.Name,
			MinSelect: int(g.MinSelect),
			IsActive:  g.IsActive,
			Options:   optsByGroup[g.ID],
		}
		if g.MaxSelect.Valid {
			upper := int(g.MaxSelect.Int32)
			group.MaxSelect = &upper
		}
		groupsByItem[g.ItemID] = append(groupsByItem[g.ItemID], group)
	}

	menu := &Menu{RestaurantID: restaurantID, Items: make([]Item, 0, len(items))}
	for _, it := range items {
		menu.Items = append(menu.Items, Item{
			ID:          it.ID,
			Title:       it.Title,
			BasePrice:   numericToDecimal(it.BasePrice),
			IsActive:    it.IsActive,
			IsAvailable: it.IsAvailable,
			Groups:      groupsByItem[it.ID],
		})
	}
	return menu
}

// Cache is the subset of the Redis client used for menu caching.
// Satisfied by *redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedProvider serves menus from Redis and falls back to the wrapped
// provider on a miss or any cache failure.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with a Redis cache. A nil cache disables caching.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func menuKey(restaurantID uuid.UUID) string {
	return "menu:" + restaurantID.String()
}

func (p *CachedProvider) Menu(ctx context.Context, restaurantID uuid.UUID) (*Menu, error) {
	if p.cache == nil {
		return p.next.Menu(ctx, restaurantID)
	}

	key := menuKey(restaurantID)
	raw, err := p.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m Menu
		if jerr := json.Unmarshal(raw, &m); jerr == nil {
			return &m, nil
		}
		log.Warn().Str("key", key).Msg("catalog: discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("catalog: cache read failed")
	}

	m, err := p.next.Menu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if data, jerr := json.Marshal(m); jerr == nil {
		if serr := p.cache.Set(ctx, key, data, p.ttl).Err(); serr != nil {
			log.Warn().Err(serr).Str("key", key).Msg("catalog: cache write failed")
		}
	}
	return m, nil
}

// Invalidate drops the cached menu so the next read goes to the database.
func (p *CachedProvider) Invalidate(ctx context.Context, restaurantID uuid.UUID) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Del(ctx, menuKey(restaurantID)).Err()
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
