package ratelimit

import (
	rl "viewsvc/modules/ratelimit"
)

type (
	KeyStrategyId string
	StoreKind     string
)

const (
	RemoteIpKeyStrategy     KeyStrategyId = "remote_ip"
	ForwardedForKeyStrategy KeyStrategyId = "forwarded_for"

	MemoryStore StoreKind = "memory"
	RedisStore  StoreKind = "redis"
)

// Config selects how a gate counts. The limit and window themselves belong to
// the view being protected.
type Config struct {
	Algorithm   rl.Algorithm  `env:"ALGORITHM" envDefault:"fixed_window"`
	Store       StoreKind     `env:"STORE" envDefault:"memory"`
	KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	KeyPrefix   string        `env:"KEY_PREFIX" envDefault:"view"`
}

// KeyStrategies lists the built-in client identification functions.
var KeyStrategies = map[KeyStrategyId]KeyFunc{
	RemoteIpKeyStrategy:     RemoteIpKeyFunc,
	ForwardedForKeyStrategy: ForwardedForKeyFunc,
}
