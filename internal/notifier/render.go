package notifier

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

const (
	textSeparatorWidth     = 40
	telegramSeparatorWidth = 30
	descriptionPreview     = 150
	postedLayout           = "2006-01-02"
)

// Subject is the email subject line for a batch of n matches.
func Subject(n int) string {
	return fmt.Sprintf("New Job Alerts (%d matches)", n)
}

// RenderText formats jobs as the plain-text body used by email and logs.
func RenderText(jobs []model.Job) string {
	if len(jobs) == 0 {
		return "No new job matches found."
	}

	var b strings.Builder
	b.WriteString("🔍 New Job Matches Found!\n\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "🏢 %s\n", j.Company)
		fmt.Fprintf(&b, "💼 %s\n", j.Title)
		fmt.Fprintf(&b, "📍 %s\n", j.Location)
		fmt.Fprintf(&b, "🔗 %s\n", j.URL)
		b.WriteString(strings.Repeat("─", textSeparatorWidth))
		b.WriteString("\n\n")
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// Inside (...) of a MarkdownV2 link only ")" and "\" need escaping.
var markdownURLEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)

// EscapeMarkdown escapes s for Telegram MarkdownV2.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderMarkdown formats jobs for Telegram's MarkdownV2 parse mode.
func RenderMarkdown(jobs []model.Job) string {
	sections := make([]string, 0, len(jobs))
	for _, j := range jobs {
		location := "Remote/Unspecified"
		if strings.TrimSpace(j.Location) != "" {
			location = EscapeMarkdown(j.Location)
		}

		lines := []string{
			"*" + EscapeMarkdown(j.Title) + "*",
			"🏢 Company: " + EscapeMarkdown(j.Company),
			"📍 Location: " + location,
		}
		if j.URL != "" {
			lines = append(lines, "🔗 [View Job]("+markdownURLEscaper.Replace(j.URL)+")")
		}
		if d := preview(j.Description); d != "" {
			lines = append(lines, "📝 "+EscapeMarkdown(d))
		}
		if j.PostedAt != nil {
			lines = append(lines, "📅 Posted: "+EscapeMarkdown(j.PostedAt.Format(postedLayout)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	separator := "\n\n" + strings.Repeat("─", telegramSeparatorWidth) + "\n\n"
	return "*🔍 New Job Postings Found\\!*\n\n" + strings.Join(sections, separator)
}

// RenderHTML formats jobs for Telegram's HTML parse mode.
func RenderHTML(jobs []model.Job) string {
	sections := make([]string, 0, len(jobs))
	for _, j := range jobs {
		lines := []string{
			"<b>" + html.EscapeString(j.Title) + "</b>",
			"🏢 Company: " + html.EscapeString(j.Company),
			"📍 Location: " + html.EscapeString(j.Location),
		}
		if j.PostedAt != nil {
			lines = append(lines, "📅 Posted: "+j.PostedAt.Format(postedLayout))
		}
		lines = append(lines, "\n🔗 <a href='"+html.EscapeString(j.URL)+"'>Apply Here</a>")
		sections = append(sections, strings.Join(lines, "\n"))
	}

	separator := "\n\n" + strings.Repeat("=", telegramSeparatorWidth) + "\n\n"
	return "<b>🔍 New Job Opportunities!</b>\n\n" + strings.Join(sections, separator)
}

// preview shortens a description to descriptionPreview runes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= descriptionPreview {
		return s
	}
	return string(r[:descriptionPreview]) + "..."
}

// Chunk splits jobs into consecutive batches of at most size. A size of
// zero or less yields a single batch.
func Chunk(jobs []model.Job, size int) [][]model.Job {
	if len(jobs) == 0 {
		return nil
	}
	if size <= 0 || size >= len(jobs) {
		return [][]model.Job{jobs}
	}
	chunks := make([][]model.Job, 0, (len(jobs)+size-1)/size)
	for start := 0; start < len(jobs); start += size {
		end := min(start+size, len(jobs))
		chunks = append(chunks, jobs[start:end])
	}
	return chunks
}

// splitMessage cuts s into pieces of at most limit runes, preferring to
// break after a blank line, then a newline, then a space.
func splitMessage(s string, limit int) []string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return []string{s}
	}

	var parts []string
	for len(r) > limit {
		window := string(r[:limit])
		cut := limit
		for _, sep := range []string{"\n\n", "\n", " "} {
			if i := strings.LastIndex(window, sep); i > 0 {
				cut = len([]rune(window[:i+len(sep)]))
				break
			}
		}
		parts = append(parts, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text,omitempty"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// RenderSlack builds the Block Kit webhook payload for a single job.
func RenderSlack(j model.Job) ([]byte, error) {
	posted := "Unknown"
	if j.PostedAt != nil {
		posted = j.PostedAt.Format(postedLayout)
	}
	location := j.Location
	if strings.TrimSpace(location) == "" {
		location = "Unspecified"
	}
	source := j.Source
	if source == "" {
		source = "n/a"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🚀 " + j.Company + ": " + j.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + j.Company},
				{Type: "mrkdwn", Text: "*Location:*\n" + location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Posted:*\n" + posted},
				{Type: "mrkdwn", Text: "*Source:*\n" + source},
			},
		},
	}
	if j.URL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Apply Now"},
				URL:   j.URL,
				Style: "primary",
			}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	body, err := json.Marshal(slackPayload{
		Text:   j.Company + ": " + j.Title,
		Blocks: blocks,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal slack payload: %w", err)
	}
	return body, nil
}
