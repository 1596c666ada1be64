// Package assistant implements the scripted help bot: a fixed keyword table
// and chat sessions whose replies arrive after a short delay.
package assistant

import (
	"strings"

	"golang.org/x/text/cases"
)

// Greeting opens every chat transcript.
const Greeting = "Hi! I'm your CivicVoice assistant. How can I help you today?"

// DefaultReply is returned when no rule matches.
const DefaultReply = "I can help you with reporting issues, voting, tracking status, and navigating the platform. What would you like to know more about?"

type rule struct {
	triggers []string
	reply    string
}

// Rules are checked in order; the first rule with a trigger contained in the
// input wins.
var rules = []rule{
	{
		triggers: []string{"report", "submit"},
		reply:    `To report an issue, click the "Report New Issue" button at the top of the page. Fill in the title, category, location, and description, then submit!`,
	},
	{
		triggers: []string{"vote", "support"},
		reply:    "You can vote on any issue by clicking the 👍 button on the issue card. This helps prioritize issues that affect more people.",
	},
	{
		triggers: []string{"status", "track"},
		reply:    "Each issue has a status badge (Open, In Progress, or Resolved). You can filter issues by status and track their progress over time.",
	},
	{
		triggers: []string{"category", "filter"},
		reply:    "We have several categories: Roads, Lighting, Waste, Parks, and Other. Use the filter dropdown to view issues by category.",
	},
	{
		triggers: []string{"how", "help"},
		reply:    "CivicVoice helps you report civic issues in your community. You can report problems, vote on existing issues, and track their resolution. What would you like to do?",
	},
	{
		// "support" is claimed by the vote rule first.
		triggers: []string{"contact", "support"},
		reply:    "For additional support, you can reach out to your local government office or check the About section for more contact information.",
	},
}

// Respond maps free text to a canned reply.
func Respond(input string) string {
	folded := cases.Fold().String(input)
	for _, r := range rules {
		for _, trigger := range r.triggers {
			if strings.Contains(folded, trigger) {
				return r.reply
			}
		}
	}
	return DefaultReply
}
