package description

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"listingvideo/internal/domain"
)

const notSpecified = "Not specified"

func buildPrompt(opts domain.DescriptionOptions) string {
	l := opts.Listing
	tone := coalesce(opts.Tone, "friendly")

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Create a compelling %s description for a video about this Poshmark listing.\n", tone)
	fmt.Fprintf(sb, "The video will be approximately %d seconds long.\n\n", opts.Length)

	sb.WriteString("Item Details:\n")
	fmt.Fprintf(sb, "- Title: %s\n", l.Title)
	fmt.Fprintf(sb, "- Price: $%s\n", l.Price)
	fmt.Fprintf(sb, "- Brand: %s\n", coalesce(l.Brand, notSpecified))
	fmt.Fprintf(sb, "- Size: %s\n", coalesce(l.Size, notSpecified))
	fmt.Fprintf(sb, "- Condition: %s\n", coalesce(l.Condition, notSpecified))
	fmt.Fprintf(sb, "- Category: %s\n\n", coalesce(l.Category, notSpecified))

	sb.WriteString("Original Description:\n")
	sb.WriteString(l.Description)
	sb.WriteString("\n\n")

	if len(l.Attributes) > 0 {
		sb.WriteString("Additional Attributes:\n")
		keys := make([]string, 0, len(l.Attributes))
		for k := range l.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(sb, "- %s: %s\n", k, l.Attributes[k])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- Keep the description concise but engaging\n")
	sb.WriteString("- Highlight key selling points\n")
	sb.WriteString("- Mention material, condition, and special features\n")
	fmt.Fprintf(sb, "- Use a %s tone throughout\n", tone)
	fmt.Fprintf(sb, "- The description should be suitable for a %d-second video\n", opts.Length)
	sb.WriteString("- Focus on what makes this item special\n")
	if name := languageName(opts.Locale); name != "" {
		fmt.Fprintf(sb, "- Write the description in %s\n", name)
	}
	sb.WriteString("\nRespond in JSON with this structure: {\"description\": \"...\"}")
	return sb.String()
}

// languageName returns the English name of locale's base language, or ""
// when the locale is empty, unparsable or already English.
func languageName(locale string) string {
	if strings.TrimSpace(locale) == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return ""
	}
	return display.English.Languages().Name(base)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
