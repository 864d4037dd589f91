package repository

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix shared by records and the name index.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}
