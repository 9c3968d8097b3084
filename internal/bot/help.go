package bot

import (
	"strings"

	"job-bot-go/internal/pager"
)

// zero-width space, keeps a blank line between fields
const spacer = "\n\u200b"

func helpEmbed(prefix string) *Embed {
	p := func(s string) string { return strings.ReplaceAll(s, "{p}", prefix) }

	return &Embed{
		Title: "Job Bot Help",
		Color: pager.ColorWhite,
		Fields: []pager.Field{
			{
				Name:  "Basic Search Examples",
				Value: p("`{p}jobs python developer`\n`{p}jobs marketing manager --location london`" + spacer),
			},
			{
				Name: "Detailed Search Examples",
				Value: p("`{p}jobs python --location remote --salary 70000 --limit 10`\n" +
					"`{p}jobs data scientist --remote --recent`" + spacer),
			},
			{
				Name:  "Searches based on Location",
				Value: p("`{p}jobsloc london python developer`\n`{p}jobsloc \"new york\" software engineer`" + spacer),
			},
			{
				Name: "Filters & Options",
				Value: "`--location [city]` - Specific location\n" +
					"`--salary [amount]` - Minimum salary\n" +
					"`--remote` - Remote jobs only\n" +
					"`--limit [1-20]` - Number of results\n" +
					"`--recent` - Jobs from today\n" +
					"`--week` - Jobs from this week" + spacer,
			},
			{
				Name: "Navigation",
				Value: "`⟵ ⟶` - To browse jobs\n" +
					"`Show Full Description` - Shows full description\n" +
					"`Save job` - Saves a job\n" +
					"`Apply now` - Sends a link to the job posting" + spacer,
			},
			{
				Name: "Viewing Saved jobs & Search history",
				Value: p("`{p}saved` - View bookmarked jobs\n" +
					"`{p}history` - Your search history\n" +
					"`{p}recent` - Recently found jobs" + spacer),
			},
			{
				Name: "Managing Saved jobs and Search history",
				Value: p("`{p}clear saved` - Clear bookmarked jobs\n" +
					"`{p}clear history` - Clear search history\n" +
					"`{p}clear all` - Clear everything"),
			},
		},
	}
}
