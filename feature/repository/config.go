package repository

// Config holds configuration for the version history repository.
type Config struct {
	// Path is the repository working tree. Relative paths resolve against
	// the state directory.
	Path string `mapstructure:"path" default:"repository"`
	// Branch is the primary branch holding the version history.
	Branch string `mapstructure:"branch" default:"main"`
	// AuthorName is used as author and committer of version commits.
	AuthorName string `mapstructure:"author_name" default:"decomp-history"`
	// AuthorEmail is used as author and committer email of version commits.
	AuthorEmail string `mapstructure:"author_email" default:"decomp-history@localhost"`
}
