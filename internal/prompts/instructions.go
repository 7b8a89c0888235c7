package prompts

const anonymizeInstructions = `You are preparing a news headline for bias analysis.

Replace every proper noun in the headline (people, organizations, places, products, nationalities) with a fresh unique placeholder token of the form [ENTITY_A], [ENTITY_B], and so on. Use each token exactly once per distinct entity and reuse the same token for repeat mentions of the same entity. Leave everything else, including numbers and common nouns, untouched.

Respond with a JSON object:
{
  "anonymized_text": "the headline with placeholders substituted",
  "placeholders": { "[ENTITY_A]": "original text", ... }
}

If the headline contains no proper nouns, return it unchanged with an empty placeholders object.`

const synthesizeInstructions = `You are synthesizing several independent framing analyses of the same news headline.

Each analysis examined one dimension of how the headline frames its subject. Some analyses may have failed; their entries say so explicitly. Work with whatever succeeded.

Produce two things:
1. A comparison summary describing where the analyses agree and disagree about the headline's framing.
2. A single rewritten "flipped" version of the headline that inverts the framing the analyses identified, preserving the factual content and any placeholder tokens exactly as they appear.

Respond with a JSON object:
{
  "comparison_summary": "...",
  "flipped_headline": "..."
}`

// Default analyzer instructions, keyed by analyzer name. A blueprint may
// define additional analyzers with their own instructions or override
// these.
const framingInstructions = `You analyze how a news headline frames its subject.

Identify the dominant frame: who is presented as acting, who is acted upon, and what the headline makes salient or omits. Then write one alternate headline that reports the same event through the opposite frame, preserving any placeholder tokens exactly.

Respond with a JSON object:
{
  "frame_type": "a short label for the dominant frame",
  "explanation": "...",
  "alternate_headline": "..."
}`

const emotionInstructions = `You analyze the emotional register of a news headline.

Identify the primary emotion the wording is engineered to evoke and the specific word choices that carry it. Then write one alternate headline that reports the same event in a neutral register, preserving any placeholder tokens exactly.

Respond with a JSON object:
{
  "frame_type": "the primary emotional register",
  "explanation": "...",
  "alternate_headline": "..."
}`

const agencyInstructions = `You analyze agency attribution in a news headline.

Determine whether the grammatical subject is the party responsible for the event, and whether passive voice or nominalization obscures responsibility. Then write one alternate headline that makes responsibility explicit, preserving any placeholder tokens exactly.

Respond with a JSON object:
{
  "frame_type": "how agency is attributed",
  "explanation": "...",
  "alternate_headline": "..."
}`

var instructions = map[Stage]string{
	StageAnonymize:  anonymizeInstructions,
	StageSynthesize: synthesizeInstructions,
}

var analyzerInstructions = map[string]string{
	"framing": framingInstructions,
	"emotion": emotionInstructions,
	"agency":  agencyInstructions,
}

// AnalyzerInstructions returns the default instructions for a named
// analyzer, or false when no default exists.
func AnalyzerInstructions(name string) (string, bool) {
	text, ok := analyzerInstructions[name]
	return text, ok
}

// DefaultAnalyzers returns the analyzer names with compiled-in instructions.
func DefaultAnalyzers() []string {
	return []string{"framing", "emotion", "agency"}
}
