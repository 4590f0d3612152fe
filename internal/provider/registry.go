package provider

import (
	"fmt"

	"budgetmanager/priceworker/config"
	"budgetmanager/priceworker/pkg/errors"
)

// Registry builds the fixed provider set from configuration. Most of
// the chains publish through the shared published-prices portal with a
// per-chain login identity; shufersal and yeinot bitan run their own
// plain directory listings.
func Registry(cfg *config.Config) []Config {
	portal := cfg.PublishedPricesURL

	return []Config{
		{
			ID:       "shufersal",
			Name:     "שופרסל",
			BaseURL:  cfg.ShufersalURL,
			Auth:     AuthNone,
			Strategy: StrategyAnchorScan,
			Enabled:  true,
		},
		{
			ID:       "rami_levy",
			Name:     "רמי לוי",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "RamiLevi"},
			Enabled:  true,
		},
		{
			ID:       "victory",
			Name:     "ויקטורי",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "victory"},
			Enabled:  true,
		},
		{
			ID:       "osher_ad",
			Name:     "אושר עד",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "osherad"},
			Enabled:  true,
		},
		{
			ID:       "tiv_taam",
			Name:     "טיב טעם",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "TivTaam"},
			Enabled:  true,
		},
		{
			ID:       "hazi_hinam",
			Name:     "חצי חינם",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "HaziHinam"},
			Enabled:  true,
		},
		{
			ID:       "yohananof",
			Name:     "יוחננוף",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "yohananof"},
			Enabled:  true,
		},
		{
			ID:       "keshet",
			Name:     "קשת טעמים",
			BaseURL:  portal,
			Auth:     AuthCookieSession,
			Strategy: StrategyAPIDirectory,
			Identity: &Identity{Username: "Keshet"},
			Enabled:  true,
		},
		{
			ID:       "yeinot_bitan",
			Name:     "יינות ביתן",
			BaseURL:  cfg.YbitanURL,
			Auth:     AuthNone,
			Strategy: StrategyAnchorScan,
			Enabled:  true,
		},
		{
			// mega's portal has neither a supported login nor a listing
			// we can read; kept registered so runs report it as skipped
			// instead of silently forgetting the chain
			ID:       "mega",
			Name:     "מגה",
			BaseURL:  "",
			Auth:     AuthUnimplemented,
			Strategy: StrategyUnimplemented,
			Enabled:  false,
		},
	}
}

// Select narrows the registry to the requested subset. An empty subset
// means every enabled provider. Requesting an unknown or disabled
// provider id explicitly is a configuration error and fails fast,
// before any network activity.
func Select(providers []Config, ids []string) ([]Config, error) {
	if len(ids) == 0 {
		var enabled []Config
		for _, p := range providers {
			if p.Enabled {
				enabled = append(enabled, p)
			}
		}
		return enabled, nil
	}

	byID := make(map[string]Config, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}

	var selected []Config
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, errors.NewConfiguration(fmt.Sprintf("unknown provider id %q", id), nil)
		}
		if !p.Enabled {
			return nil, errors.NewConfiguration(fmt.Sprintf("provider %q is disabled", id), nil)
		}
		selected = append(selected, p)
	}
	return selected, nil
}
