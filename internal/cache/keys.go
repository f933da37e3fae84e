package cache

// Well-known cache keys.
const (
	KeyHabits     = "habits"
	KeyChallenges = "challenges"
	KeyUsers      = "users"
)

// Namespace is prepended to cache keys in the durable store so cached
// entries can be enumerated and cleared without touching session data.
const Namespace = "cache_"

// Legacy storage keys predating the unified cache manager. Entries
// persisted under these keys are migrated once at startup.
const (
	legacyHabitsKey     = "@ecotrace_habits_cache"
	legacyChallengesKey = "@ecotrace_challenges_cache"
	legacyUsersKey      = "@ecotrace_users_cache"
)

// Tier names a cache-duration class from the configuration.
type Tier int

// Duration tiers, resolved against core.CacheDurations at construction.
const (
	Short Tier = iota
	Medium
	Long
	VeryLong
)

// legacyMigration pairs an old unnamespaced storage key with its target
// cache key and expiration tier.
type legacyMigration struct {
	Legacy string
	Key    string
	Tier   Tier
}

// legacyMigrations is the full migration table. Challenge data changes
// rarely, hence the longer tier.
var legacyMigrations = []legacyMigration{
	{Legacy: legacyHabitsKey, Key: KeyHabits, Tier: Medium},
	{Legacy: legacyChallengesKey, Key: KeyChallenges, Tier: Long},
	{Legacy: legacyUsersKey, Key: KeyUsers, Tier: Medium},
}
