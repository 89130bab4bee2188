package recital

// notes maps each profile to a short programme note for status displays.
var notes = map[string]string{
	"intimate": "Quiet, unhurried reading with the ornamentation stripped back to almost nothing",

	"poised": "Balanced interpretation with natural phrasing and a light touch of parallel voicing",

	"austere": "Bare, metronomic delivery that lets the score speak without embellishment",

	"clockwork": "Precise, even performance with moderate voicing and no rubato at all",

	"drifting": "Floating rubato reading with long decays and the sparsest of decoration",

	"weightless": "Ethereal performance with suspended timing and shimmering added voices",

	"luminous": "Rich ethereal texture, cascading ornaments over a freely breathing pulse",

	"filigree": "Dense, natural-voiced interpretation with intricate ornamental detail throughout",

	"stormy": "Dramatic reading with bold accents, heavy rubato, and thick parallel harmony",

	"blazing": "Virtuosic showpiece treatment, maximum ornamentation driven by dramatic swells",

	"thunderous": "Extreme density performance at full dramatic force, every voice engaged",

	"overdrive": "Relentless mechanical maximalism, extreme voicing locked to a rigid pulse",
}

// ProgrammeNote returns the display note for a profile.
// Falls back to a generic note if the profile has no specific mapping.
func ProgrammeNote(profile string) string {
	if n, ok := notes[profile]; ok {
		return n
	}
	return "Performance in the " + profile + " interpretation"
}

// profileAdjectives gives each profile a pool of descriptors for rendition titles.
var profileAdjectives = map[string][]string{
	"intimate":   {"hushed", "close", "tender", "candlelit", "confiding"},
	"poised":     {"measured", "graceful", "limpid", "assured", "unruffled"},
	"austere":    {"spare", "plain", "angular", "unadorned", "stark"},
	"clockwork":  {"ticking", "exact", "geared", "square", "metered"},
	"drifting":   {"weightless", "adrift", "misted", "slow", "fading"},
	"weightless": {"floating", "glassy", "suspended", "silvered", "airborne"},
	"luminous":   {"glowing", "prismatic", "radiant", "shimmering", "aurora"},
	"filigree":   {"lacework", "gilded", "woven", "ornate", "threaded"},
	"stormy":     {"surging", "restless", "darkening", "squalling", "driven"},
	"blazing":    {"incandescent", "fierce", "molten", "scorching", "brilliant"},
	"thunderous": {"rolling", "massive", "towering", "rumbling", "colossal"},
	"overdrive":  {"relentless", "charged", "redlined", "hammering", "unstoppable"},
}

// RenditionTitle generates a human-readable title from profile and rendition ID.
// Uses the leading chars of the ID to pick a deterministic adjective.
func RenditionTitle(profile, renditionID string) string {
	if profile == "" || renditionID == "" {
		return ""
	}

	adjs := profileAdjectives[profile]
	if len(adjs) == 0 {
		return profile + " improvisation"
	}

	// Hash the leading ID chars for a deterministic pick
	var h int
	for i := 0; i < len(renditionID) && i < 8; i++ {
		h = h*31 + int(renditionID[i])
	}
	if h < 0 {
		h = -h
	}

	return adjs[h%len(adjs)] + " " + profile
}
