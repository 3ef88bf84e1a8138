// Package prompt builds the instructions sent to the text-completion service.
// Builders are pure: identical inputs always produce identical prompts.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"curiospace/internal/space"
)

const jsonOnly = "IMPORTANT: Return ONLY valid JSON, no markdown, no code blocks, no extra text."

func quote(s string) string {
	return `"` + s + `"`
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func existingList(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

// Subject asks for one explorable subject.
func Subject() string {
	return `You are the Subject Scout for 'Curio Space.'

MISSION:
Generate a single, high-potential subject for a conceptual 2D map. Be creative and vary your choices - explore different domains like history, culture, science, art, technology, mythology, etc.

CRITERIA FOR A GOOD SUBJECT:
1. TAXONOMIC DEPTH: The subject must represent a category with a diverse range of well-known icons, archetypes, or entities.
2. DIMENSIONALITY: It must be a topic that can be viewed through multiple, non-obvious lenses (e.g., 'Mythology' is better than 'Goldfish').
3. CULTURAL WEIGHT: The items within the subject should be recognizable to a general audience.
4. EVOCATIVE POWER: Pick subjects that feel like a 'world' to be explored.

GOOD EXAMPLES:
- "Medieval Siege Weapons"
- "Ancient Philosophical Schools"
- "Film Noir Detectives"
- "Space Exploration Missions"
- "Jazz Musicians"
- "Mythological Creatures"

BAD EXAMPLES:
- "Dreams" (too vague, not a category)
- "Colors" (too generic)
- "Things" (no meaning)

STRICT CONSTRAINTS:
- Generate a SPECIFIC category or domain, not an abstract concept
- It must have at least 10-20 well-known examples that could be mapped
- Avoid single-word subjects unless they name a rich category (like "Revolutions" or "Dinosaurs")

` + jsonOnly + `

Return this exact JSON structure:
{
  "subject": "..."
}`
}

// SubjectFromItems asks for the subject that encompasses exactly the given items.
func SubjectFromItems(items []string) string {
	var b strings.Builder
	b.WriteString("You are the Category Analyst for 'Curio Space.'\n\n")
	b.WriteString("MISSION:\nGiven 3 specific items, identify the most fitting subject category that encompasses all of them.\n\n")
	fmt.Fprintf(&b, "YOUR TASK:\nAnalyze these 3 items: [%s]\n\n", existingList(items))
	b.WriteString(`Find the common thread - what category, domain, or conceptual space do these all belong to?

THE 'AHA' REQUIREMENT:
Don't just pick the most literal category. Look for the SPECIFIC, EVOCATIVE category.
- ["Bicycle", "Subway", "Rickshaw"] -> "Urban Transportation Methods" (not "Transportation")
- ["Katana", "Excalibur", "Lightsaber"] -> "Legendary Swords" (not "Weapons")
- ["Espresso", "Cold Brew", "Turkish Coffee"] -> "Coffee Preparation Methods" (not "Beverages")

CRITERIA FOR A GOOD SUBJECT:
1. SPECIFICITY: Specific enough to be meaningful (not "Things" or "Objects").
2. INCLUSIVITY: All 3 items must belong to this category, even in a creative way.
3. DIMENSIONALITY: It should allow interesting 2D mapping with diverse examples.
4. LATERAL THINKING: Find the surprising angle, not the obvious one.

CONSTRAINTS:
- The subject should have room for at least 10-20 other well-known examples
- Avoid overly narrow subjects (e.g., "Red Bicycles" when "Bicycles" fits)

`)
	b.WriteString(jsonOnly)
	b.WriteString(`

Return this exact JSON structure:
{
  "subject": "...",
  "reasoning": "Brief explanation of why this subject fits all 3 items"
}`)
	return b.String()
}

// axisInstruction states what the model must do for one axis. Supplied
// labels are reproduced verbatim; a missing side is generated as the
// semantic opposite of the supplied one.
func axisInstruction(name string, a space.Axis) string {
	minLabel, maxLabel := a.MinLabel, a.MaxLabel
	switch {
	case minLabel != "" && maxLabel != "":
		return fmt.Sprintf("%s: Both labels provided by user. Use EXACTLY: minLabel=%s, maxLabel=%s", name, quote(minLabel), quote(maxLabel))
	case minLabel != "":
		return fmt.Sprintf("%s: User provided minLabel=%s. You MUST keep this exactly. Generate a semantically OPPOSITE maxLabel that contrasts with %s.", name, quote(minLabel), quote(minLabel))
	case maxLabel != "":
		return fmt.Sprintf("%s: User provided maxLabel=%s. You MUST keep this exactly. Generate a semantically OPPOSITE minLabel that contrasts with %s.", name, quote(maxLabel), quote(maxLabel))
	default:
		return fmt.Sprintf("%s: No labels provided. Generate both minLabel and maxLabel according to the axis criteria.", name)
	}
}

// Axes asks for two orthogonal axes, honoring any pinned labels.
func Axes(subject string, xAxis, yAxis space.Axis) string {
	var b strings.Builder
	b.WriteString(`You are the Dimensional Architect for 'Curio Space.'

MISSION: Given a 'Subject,' identify two distinct, high-contrast dimensions (X and Y axes) that create a rich, 2D conceptual map for exploration.

AXIS CRITERIA:
1. ORTHOGONALITY: The two axes must be independent. If you choose 'Price,' do not choose 'Luxury' as the second axis.
2. BREADTH: The labels should allow for a wide variety of items, from the mundane to the extraordinary.
3. THE 'AHA' POTENTIAL: Choose dimensions that force a non-obvious view of the subject. Avoid generic 'Good/Bad' scales.
4. TENSION: The best maps have 'logical friction' at the corners (e.g., something both 'Ancient' and 'High-Tech').

`)
	fmt.Fprintf(&b, "SUBJECT: %s\n\n", subject)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString(axisInstruction("X-Axis", xAxis))
	b.WriteString("\n")
	b.WriteString(axisInstruction("Y-Axis", yAxis))
	b.WriteString(`

EXAMPLES OF SEMANTIC OPPOSITES:
- "Open source" <-> "Proprietary"
- "Ancient" <-> "Modern"
- "Minimalist" <-> "Maximalist"
- "Lightweight" <-> "Resource-intensive"

The opposite must create meaningful contrast and be contextually appropriate to the subject.

`)
	b.WriteString(jsonOnly)
	b.WriteString(`

Return this exact JSON structure:
{
  "xAxis": { "minLabel": "...", "maxLabel": "..." },
  "yAxis": { "minLabel": "...", "maxLabel": "..." }
}`)
	return b.String()
}

func writeMapLogic(b *strings.Builder, xAxis, yAxis space.Axis) {
	b.WriteString("MAP LOGIC:\n")
	fmt.Fprintf(b, "- The X-Axis represents a spectrum between [%s] and [%s].\n", xAxis.MinLabel, xAxis.MaxLabel)
	fmt.Fprintf(b, "- The Y-Axis represents a spectrum between [%s] and [%s].\n", yAxis.MinLabel, yAxis.MaxLabel)
	b.WriteString("- Coordinates range from -100 to 100.\n")
	fmt.Fprintf(b, "  - (-100, -100) is the absolute extreme of BOTH [%s] and [%s].\n", xAxis.MinLabel, yAxis.MinLabel)
	fmt.Fprintf(b, "  - (100, 100) is the absolute extreme of BOTH [%s] and [%s].\n", xAxis.MaxLabel, yAxis.MaxLabel)
	b.WriteString("  - (0, 0) is the 'Neutral Origin', the balance of all four traits.\n\n")
}

func writeContext(b *strings.Builder, subject string, xAxis, yAxis space.Axis, target string, existing []string) {
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(b, "- Subject: %s\n", quote(subject))
	fmt.Fprintf(b, "- X-Axis: %s to %s\n", quote(xAxis.MinLabel), quote(xAxis.MaxLabel))
	fmt.Fprintf(b, "- Y-Axis: %s to %s\n", quote(yAxis.MinLabel), quote(yAxis.MaxLabel))
	b.WriteString(target)
	fmt.Fprintf(b, "- Existing Map: [%s]\n\n", existingList(existing))
	b.WriteString("LINKS: In your description and reasoning, include relevant Wikipedia or informational links using markdown format: [link text](url).\n\n")
}

// Manifestation asks which entity of the subject occupies (x, y), or for a
// boundary-paradox verdict.
func Manifestation(subject string, xAxis, yAxis space.Axis, x, y float64, existing []string) string {
	px, py := formatCoordinate(x), formatCoordinate(y)

	var b strings.Builder
	b.WriteString("You are the Perspective Architect for 'Curio Space.'\n\n")
	writeMapLogic(&b, xAxis, yAxis)
	fmt.Fprintf(&b, "YOUR MISSION:\nIdentify a well-known, iconic example of %s that perfectly occupies the specific (%s, %s) point.\n\n", quote(subject), px, py)
	b.WriteString(`THE 'AHA' REQUIREMENT:
Surprise the user with a non-obvious, lateral-thinking connection. Do not be literal.

STRICT CONSTRAINTS:
1. SUBJECT RELEVANCE: The entity MUST be a specific instance or example of the Subject domain, not a character, company, or tangential concept.
2. LABEL FIDELITY: Treat the numerical value as a 'strength' indicator. A -100 is the most pure version of that label; a -10 is a subtle hint of it.
3. REAL EXAMPLES: Use only well-known real-world examples, famous historical instances, or widely recognized examples from the subject domain.
4. NO DUPLICATES: Check the 'Existing Map' list and never repeat an item.
5. BOUNDARY PARADOX: If a coordinate represents a logical impossibility, explain why reality cannot occupy that space rather than forcing a result.

`)
	writeContext(&b, subject, xAxis, yAxis, fmt.Sprintf("- Target Click: [%s, %s]\n", px, py), existing)
	b.WriteString(jsonOnly)
	b.WriteString(`

If the coordinate is POSSIBLE, return:
{
  "name": "...",
  "description": "... with [markdown links](url) ...",
  "reasoning": "... with [markdown links](url) ..."
}

If the coordinate is IMPOSSIBLE (boundary paradox), return:
{
  "isImpossible": true,
  "explanation": "This coordinate represents a logical impossibility because..."
}`)
	return b.String()
}

// Placement asks where a named item belongs, or for a cannot-place verdict.
func Placement(subject string, xAxis, yAxis space.Axis, itemName string, existing []string) string {
	item := quote(itemName)

	var b strings.Builder
	b.WriteString("You are the Coordinate Analyst for 'Curio Space.'\n\n")
	writeMapLogic(&b, xAxis, yAxis)
	fmt.Fprintf(&b, "YOUR MISSION:\nDetermine the precise coordinates where %s should be placed on this map.\n\n", item)
	b.WriteString("ANALYSIS STEPS:\n")
	fmt.Fprintf(&b, "1. SUBJECT FIT: First, verify that %s is actually a valid example of %s. If it is not a real instance from this domain, you cannot place it.\n", item, quote(subject))
	b.WriteString("2. COORDINATE ANALYSIS: Analyze where this item falls on each axis based on its actual characteristics.\n")
	b.WriteString("3. JUSTIFICATION: Explain why these coordinates make sense.\n\n")
	b.WriteString("STRICT CONSTRAINTS:\n")
	fmt.Fprintf(&b, "1. SUBJECT RELEVANCE: If %s is not genuinely part of %s, return cannotPlace.\n", item, quote(subject))
	b.WriteString("2. LABEL FIDELITY: Treat the numerical value as a 'strength' indicator.\n")
	b.WriteString("3. REAL EXAMPLES ONLY: The item must be a real, well-known example from the subject domain.\n")
	fmt.Fprintf(&b, "4. NO DUPLICATES: Check the 'Existing Map' list. If %s is already placed, return cannotPlace.\n", item)
	b.WriteString("5. PRECISION: Choose exact coordinates that best represent the item's position on both axes.\n\n")
	writeContext(&b, subject, xAxis, yAxis, fmt.Sprintf("- Item to Place: %s\n", item), existing)
	b.WriteString(jsonOnly)
	b.WriteString(`

If the item CAN be placed, return:
{
  "x": <number between -100 and 100>,
  "y": <number between -100 and 100>,
  "description": "... with [markdown links](url) ...",
  "reasoning": "... with [markdown links](url) ..."
}

If the item CANNOT be placed (not relevant to subject, duplicate, or doesn't fit), return:
{
  "cannotPlace": true,
  "explanation": "Explain why this item cannot be placed on this map..."
}`)
	return b.String()
}
