package pager

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"job-bot-go/internal/models"
)

// Embed colours
const (
	ColorWhite = 0xffffff
	ColorRed   = 0xff0000
	ColorGreen = 0x00ff00
)

const (
	summaryWords   = 150
	maxDescription = 4000
	summaryHint    = "...\n\n*Click 'Show Full Description' for more details*"

	LabelShowFull = "Show Full Description"
	LabelShowLess = "Show Less"
)

// ButtonStyle mirrors the chat platform's button styles.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
)

// Field is a name/value pair shown under the description.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Button is one control of a paginated view.
type Button struct {
	Action   Action
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// View is the platform-neutral rendering of a session.
type View struct {
	Title       string
	Description string
	URL         string
	Color       int
	Fields      []Field
	Footer      string
	Buttons     []Button
}

var printer = message.NewPrinter(language.English)

// Render builds the view of the job under the cursor.
func Render(s Session) View {
	job, ok := s.Current()
	if !ok {
		return View{Title: "No job data", Color: ColorRed}
	}

	view := View{
		Title:       orDefault(job.Title, "N/A"),
		Description: describe(job.Description, s.Expanded),
		URL:         job.ApplyLink,
		Color:       ColorWhite,
		Footer:      fmt.Sprintf("Job %d of %d", s.Cursor+1, len(s.Jobs)),
		Buttons:     buttons(s),
	}

	view.Fields = append(view.Fields,
		Field{Name: "Company", Value: orDefault(job.EmployerName, "N/A"), Inline: true},
		Field{Name: "Location", Value: orDefault(job.City, "Remote"), Inline: true},
		Field{Name: "Type", Value: orDefault(models.EmploymentLabel(job.EmploymentType), "N/A"), Inline: true},
	)

	if salary, ok := formatSalary(job); ok {
		view.Fields = append(view.Fields, Field{Name: "Salary", Value: salary, Inline: true})
	}

	if job.PostedAt != "" {
		posted, _, _ := strings.Cut(job.PostedAt, "T")
		view.Fields = append(view.Fields, Field{Name: "Posted", Value: posted, Inline: true})
	}

	return view
}

func buttons(s Session) []Button {
	toggle := LabelShowFull
	if s.Expanded {
		toggle = LabelShowLess
	}

	return []Button{
		{Action: ActionPrevious, Label: "⟵", Style: StyleSecondary, Disabled: s.Expired},
		{Action: ActionNext, Label: "⟶", Style: StyleSecondary, Disabled: s.Expired},
		{Action: ActionToggle, Label: toggle, Style: StylePrimary, Disabled: s.Expired},
		{Action: ActionSave, Label: "Save Job", Style: StyleSecondary, Disabled: s.Expired},
		{Action: ActionApply, Label: "Apply Now", Style: StyleSuccess, Disabled: s.Expired},
	}
}

// describe flattens markup, shortens the text to summaryWords words unless
// expanded and caps it at maxDescription characters.
func describe(description string, expanded bool) string {
	if description == "" {
		description = "No description"
	}
	if strings.Contains(description, "<") {
		description = flattenHTML(description)
	}

	if !expanded {
		words := strings.Fields(description)
		if len(words) > summaryWords {
			description = strings.Join(words[:summaryWords], " ") + summaryHint
		}
	}

	if runes := []rune(description); len(runes) > maxDescription {
		description = string(runes[:maxDescription])
	}
	return description
}

// formatSalary renders "$50,000" or "$50,000 - $80,000". The maximum is only
// shown together with a minimum.
func formatSalary(job models.Job) (string, bool) {
	if !job.HasMinSalary() {
		return "", false
	}

	salary := "$" + printer.Sprint(number.Decimal(*job.MinSalary))
	if job.HasMaxSalary() {
		salary += " - $" + printer.Sprint(number.Decimal(*job.MaxSalary))
	}
	return salary, true
}

var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "tr": true,
}

// flattenHTML returns the text content of an HTML fragment, one line per
// block element. Unparseable input is returned unchanged.
func flattenHTML(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if n.Data == "li" {
				b.WriteString("• ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
