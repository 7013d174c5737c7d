package extract

// commonWords is the post-extraction exclusion list. The model is told to
// skip generic vocabulary, but it still leaks filler words; filtering here
// is cheaper than arguing with the prompt.
var commonWords = map[string]bool{}

func init() {
	for _, w := range commonWordList {
		commonWords[w] = true
	}
}

var commonWordList = []string{
	// Everyday objects that show up in analogies
	"table", "home", "route", "cup", "movie", "ocean",
	"example", "book", "pen", "chair", "door",

	// General descriptive words
	"material", "behavior", "arrangement", "sample", "release", "specialized",
	"laboratory", "distinct", "forms", "distances", "primary", "mass", "space",
	"fixed", "positions", "definite", "shape", "volume", "container", "close",
	"random", "movement", "expand", "partially", "intermediate", "combination",
	"separation", "physical", "methods", "network", "single", "layer",
	"strongest", "means", "system", "map", "performance", "difficulty",
	"hierarchy", "relationships", "size", "settle", "filter", "paper",
	"residue", "nature", "effects", "products", "sunbeams", "medicine",
	"spectrum", "ranges", "progression", "devices", "naked eye", "activities",
	"test", "results", "technology", "components", "room", "visibility",
	"pool", "party", "sisters", "examples", "mystery", "liquid", "observe",
	"appearance", "shine", "light", "try", "sit", "virtual", "lab", "mix",
	"detective", "badges", "identification", "accuracy", "selection",
	"skills", "maximum", "amount", "capacity", "excess", "bottom",
	"consistent", "dose", "administered", "controlled", "strength", "effect",
	"process", "point", "thermal", "shift", "life", "shock",

	// Academic and process vocabulary
	"analysis", "application", "concept", "method", "technique", "design",
	"experiment", "introduction", "conclusion", "summary", "overview",
	"chapter", "topic", "section", "content", "information", "data",
	"figure", "image", "illustrate", "describe", "explain", "define",
	"compare", "contrast", "evaluate", "purpose", "objective", "goal",
	"scope", "benefit", "advantage", "disadvantage", "challenge", "solution",
	"approach", "strategy", "function", "role", "impact", "factor",
	"variable", "parameter", "result", "outcome", "finding", "evidence",
	"theory", "model", "hypothesis", "assumption", "observation", "study",
	"research", "review", "survey", "page", "text", "word", "sentence",
	"paragraph", "list", "item",

	// Learning-strategy vocabulary
	"kinesthetic elements", "spatial memory", "visual mnemonics",
	"story method", "memory palace", "concept map", "musical encoding",
	"acronyms", "rhymes", "rhythms", "practice", "recall", "assessment",
	"quiz", "exam",

	// Function words
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot",
	"could", "did", "do", "does", "doing", "down", "during", "each", "few",
	"for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "if", "in",
	"into", "is", "it", "its", "itself", "me", "more", "most", "my",
	"myself", "no", "nor", "not", "of", "off", "on", "once", "only", "or",
	"other", "ought", "our", "ours", "ourselves", "out", "over", "own",
	"same", "she", "should", "so", "some", "such", "than", "that", "the",
	"their", "theirs", "them", "themselves", "then", "there", "these",
	"they", "this", "those", "through", "to", "too", "under", "until", "up",
	"was", "we", "were", "what", "when", "where", "which", "while", "who",
	"whom", "why", "with", "would", "you", "your", "yours", "yourself",
	"yourselves",

	// Common verbs
	"get", "make", "go", "see", "say", "take", "come", "use", "find",
	"give", "tell", "work", "call", "ask", "need", "feel", "become",
	"leave", "put", "mean", "keep", "let", "begin", "seem", "help", "talk",
	"turn", "start", "show", "hear", "play", "run", "move", "like", "live",
	"believe", "hold", "bring", "happen", "write", "provide", "stand",
	"lose", "pay", "meet", "include", "continue", "set", "learn", "lead",
	"understand", "watch", "follow", "stop", "create", "speak", "read",
	"allow", "add", "spend", "grow", "open", "walk", "win", "offer",
	"remember", "love", "consider", "appear", "buy", "wait", "serve", "die",
	"send", "expect", "build", "stay", "fall", "cut", "reach", "kill",
	"remain", "suggest", "raise", "pass", "sell", "require", "report",
	"decide", "pull",

	// Common modifiers
	"very", "really", "much", "also", "often", "always", "sometimes",
	"never", "just", "even", "however", "therefore", "otherwise", "instead",
	"mainly", "generally", "specifically", "especially", "usually",
	"actually", "important", "significant", "key", "main", "major", "minor",
	"basic", "advanced", "fundamental", "essential", "common", "typical",
	"general", "specific", "various", "different", "similar", "related",
	"certain", "particular", "overall", "first", "second", "third", "next",
	"last", "final", "new", "old", "current", "previous", "following",
	"good", "bad", "better", "best", "worse", "worst", "large", "small",
	"big", "little", "high", "low", "long", "short", "wide", "narrow",
	"deep", "shallow", "early", "late", "quick", "slow", "easy", "hard",
	"difficult", "simple", "complex", "true", "false", "correct",
	"incorrect", "accurate", "inaccurate", "possible", "impossible",
	"likely", "unlikely", "able", "unable", "available", "unavailable",
	"another", "many", "several", "every", "well", "truly", "indeed",
}
