// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"bytes"
	"text/template"
)

// promptTmpl is sent to the rewriting service once per paragraph.
var promptTmpl = template.Must(template.New("decompose").Parse(`Rewrite the paragraph below as a list of short, independent factual sentences.

Rules:
- Each sentence has exactly one subject.
- Replace every pronoun and demonstrative ("it", "they", "this", "these", "that") with the noun it refers to.
- Each sentence describes exactly one action or property.
- Do not add information that is not in the paragraph. Do not leave out information that is.
- No sentence may depend on another sentence to be understood.
- Write one sentence per line, with no numbering, bullets, or trailing punctuation.
- Output only the sentences.

The paragraph comes from the wiki article "{{.Title}}".

Paragraph:
{{.Text}}
`))

// renderPrompt executes the prompt template for one paragraph.
func renderPrompt(title, text string) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, struct{ Title, Text string }{Title: title, Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
