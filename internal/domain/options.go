package domain

// ViewOptions controls how raw server items are turned into display items
type ViewOptions struct {
	// Server is the base URL used for artwork links
	Server string

	// NameFormat overrides the name of items whose type equals NameFormatType.
	// Placeholders: {ItemName} {SeriesName} {SeasonIndex} {EpisodeIndex}
	NameFormat     string
	NameFormatType ItemType

	// Episode name prefixes when no NameFormat applies
	AddSeasonNumber  bool
	AddEpisodeNumber bool
}
