package generator

import "strings"

// systemPrompt pins the model to JSON-only output.
const systemPrompt = "You are an AI invoice-to-JSON converter.\n" +
	"Your only goal is to transform user-supplied Markdown into one valid JSON " +
	"object that exactly matches the schema the user provides.\n" +
	"Output ONLY that JSON - no prose, no markdown fences, no explanations."

const promptRules = `## RULES
1. Return **only** the JSON object above; no extra keys, commentary or markdown.
2. Lists the items if the item_id does not exist as a string numeric value in the invoice.
3. If the input is text extracted from a Trexsel invoice, ignore 'FEDEX IP: ' row from list of tuples.
4. Use valid UTF-8, standard double quotes, no trailing commas.
5. The entire response must be <= 3000 tokens.
6. Just extract the client's address and ignores information regarding email, phone, or fax.`

// userPrompt assembles the conversion task around the concatenated
// page text. The schema block is rendered from SchemaFields so the
// instruction and the validation pass can never drift apart.
func userPrompt(payload string) string {
	var b strings.Builder
	b.WriteString("## TASK\n")
	b.WriteString("Convert the Markdown in **INPUT** into a single JSON object that follows the\n")
	b.WriteString("schema in **SCHEMA**.\n")
	b.WriteString("The number of rows equals the count of **unique `item_id` values**.\n")
	b.WriteString("Ensure every list has that same length.\n\n")
	b.WriteString("## INPUT\n")
	b.WriteString(payload)
	b.WriteString("\n\n## SCHEMA\n{\n")
	for i, field := range SchemaFields {
		b.WriteString(`  "` + field + `": [<str>, ...]`)
		if i < len(SchemaFields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
	b.WriteString(promptRules)
	return b.String()
}
