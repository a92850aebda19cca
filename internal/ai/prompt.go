package ai

import (
	"fmt"
	"strings"
)

const basePrompt = `Transform this portrait into a refined fine-dining illustration for the Table d'Adrian collection.

Hard rules (must follow):

* Keep the person recognisable: preserve face shape, eyes, skin tone, hairstyle and facial hair.
* Keep a single subject, head and shoulders, centred and facing the viewer.
* No text, no watermark, no logos, no extra people.

Style target:

* Oil-painting texture with soft chiaroscuro lighting, warm candlelight palette (deep burgundy, gold, cream).
* The subject wears chef's whites or an elegant dinner jacket, seated at a candle-lit table set with fine china.
* Square composition, high detail, museum-quality finish.`

const promptOnlyBase = `A refined fine-dining oil-painting portrait for the Table d'Adrian collection: a single person, head and shoulders, centred,
wearing chef's whites, seated at a candle-lit table with fine china. Warm candlelight palette of deep burgundy, gold and cream,
soft chiaroscuro lighting, square composition, museum-quality finish. No text, no watermark.`

const maxCasts = 3
const maxCastLen = 200

// BuildStylePrompt joins the base style with up to three recent post excerpts as mood context.
func BuildStylePrompt(username string, casts []string) string {
	parts := []string{basePrompt}
	if ctx := castContext(casts); ctx != "" {
		parts = append(parts, "Mood context from the subject's recent posts (use for atmosphere and props only, never render text):\n"+ctx)
	}
	if u := strings.TrimSpace(username); u != "" {
		parts = append(parts, fmt.Sprintf("Subject handle: @%s.", strings.TrimPrefix(u, "@")))
	}
	return strings.Join(parts, "\n\n")
}

// BuildPromptOnly describes the target for text-to-image providers. With
// emulate set, it asks the model to imitate a transformation of a supplied
// portrait it cannot see.
func BuildPromptOnly(username string, casts []string, emulate bool) string {
	parts := []string{promptOnlyBase}
	if emulate {
		parts = append(parts, "Render it as if transforming the profile picture of @"+strings.TrimPrefix(strings.TrimSpace(username), "@")+
			" into this style: keep a friendly, distinctive, recognisable likeness.")
	}
	if ctx := castContext(casts); ctx != "" {
		parts = append(parts, "Atmosphere inspired by:\n"+ctx)
	}
	return strings.Join(parts, "\n\n")
}

func castContext(casts []string) string {
	var lines []string
	for _, c := range casts {
		c = strings.Join(strings.Fields(c), " ")
		if c == "" {
			continue
		}
		if len(c) > maxCastLen {
			c = clip(c, maxCastLen) + "..."
		}
		lines = append(lines, "* "+c)
		if len(lines) == maxCasts {
			break
		}
	}
	return strings.Join(lines, "\n")
}
