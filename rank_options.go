package dimrank

// RankOption configures a single rank call.
type RankOption func(*rankConfig)

type rankConfig struct {
	count   int
	profile string
}

// WithCount sets the number of results to return (default 10, max 100).
func WithCount(n int) RankOption {
	return func(c *rankConfig) {
		c.count = n
	}
}

// WithProfile pins a scoring profile by id, skipping detection.
func WithProfile(id string) RankOption {
	return func(c *rankConfig) {
		c.profile = id
	}
}
