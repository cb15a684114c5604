package keywords

// stopwords holds English function words that carry no topical value.
var stopwords = map[string]struct{}{
	// Articles and determiners
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"each": {}, "every": {}, "either": {}, "neither": {}, "another": {}, "such": {},
	"some": {}, "any": {}, "no": {}, "all": {}, "both": {}, "few": {}, "many": {},
	"much": {}, "more": {}, "most": {}, "other": {}, "several": {}, "own": {}, "same": {},
	// Personal pronouns
	"i": {}, "me": {}, "my": {}, "mine": {}, "myself": {},
	"we": {}, "us": {}, "our": {}, "ours": {}, "ourselves": {},
	"you": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
	"he": {}, "him": {}, "his": {}, "himself": {},
	"she": {}, "her": {}, "hers": {}, "herself": {},
	"it": {}, "its": {}, "itself": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "themselves": {},
	// Interrogatives and relatives
	"what": {}, "which": {}, "who": {}, "whom": {}, "whose": {}, "when": {},
	"where": {}, "why": {}, "how": {}, "whatever": {}, "whoever": {}, "whether": {},
	// Indefinite pronouns
	"someone": {}, "something": {}, "anyone": {}, "anything": {}, "everyone": {},
	"everything": {}, "nobody": {}, "nothing": {}, "none": {}, "one": {},
	// Auxiliaries and modals
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "having": {}, "do": {}, "does": {}, "did": {}, "doing": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {}, "ca": {},
	// Prepositions
	"about": {}, "above": {}, "across": {}, "after": {}, "against": {}, "along": {},
	"among": {}, "around": {}, "at": {}, "before": {}, "behind": {}, "below": {},
	"beside": {}, "between": {}, "beyond": {}, "by": {}, "down": {}, "during": {},
	"for": {}, "from": {}, "in": {}, "inside": {}, "into": {}, "near": {}, "of": {},
	"off": {}, "on": {}, "onto": {}, "out": {}, "over": {}, "since": {}, "through": {},
	"throughout": {}, "to": {}, "toward": {}, "towards": {}, "under": {}, "until": {},
	"up": {}, "upon": {}, "with": {}, "within": {}, "without": {}, "via": {}, "per": {},
	// Conjunctions
	"and": {}, "but": {}, "or": {}, "nor": {}, "so": {}, "yet": {}, "because": {},
	"although": {}, "though": {}, "unless": {}, "while": {}, "if": {}, "than": {},
	// Adverbs and particles
	"not": {}, "very": {}, "too": {}, "just": {}, "only": {}, "also": {}, "even": {},
	"again": {}, "always": {}, "never": {}, "ever": {}, "often": {}, "still": {},
	"already": {}, "here": {}, "there": {}, "then": {}, "now": {}, "once": {},
	"quite": {}, "rather": {}, "really": {}, "almost": {}, "enough": {}, "else": {},
	"please": {}, "well": {}, "however": {}, "therefore": {}, "thus": {}, "otherwise": {},
	// High-frequency verbs
	"get": {}, "got": {}, "make": {}, "made": {}, "go": {}, "give": {}, "take": {},
	"say": {}, "see": {}, "put": {}, "keep": {}, "become": {}, "seem": {},
}

// IsStopWord reports whether a lower-case word is a stop word.
func IsStopWord(word string) bool {
	_, ok := stopwords[word]
	return ok
}
