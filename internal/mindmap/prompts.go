package mindmap

import (
	"fmt"
	"strings"
)

// promptTemplate holds the template strings for one map type. The text
// is treated as opaque: placeholders {main_theme} and {analyst_focus}
// are substituted verbatim, nothing else is interpreted.
type promptTemplate struct {
	Qualifier           string
	UserPromptMessage   string
	DefaultInstructions string
	EnforceStructure    string
}

var promptTemplates = map[string]promptTemplate{
	"theme": {
		Qualifier:         "Main Theme",
		UserPromptMessage: "Your given Theme is: {main_theme}",
		DefaultInstructions: "Forget all previous prompts. " +
			"You are assisting a professional analyst tasked with creating a screener to measure the impact of the theme {main_theme} on companies. " +
			"Your objective is to generate a comprehensive tree structure of distinct sub-themes that will guide the analyst's research process. " +
			"Follow these steps strictly:\n" +
			"1. **Understand the Core Theme {main_theme}**:\n" +
			"   - The theme {main_theme} is a central concept. All components are essential for a thorough understanding.\n" +
			"2. **Create a Taxonomy of Sub-themes for {main_theme}**:\n" +
			"   - Decompose the main theme {main_theme} into concise, focused, and self-contained sub-themes.\n" +
			"   - Each sub-theme should represent a singular, concise, informative, and clear aspect of the main theme.\n" +
			"   - Expand the sub-theme to be relevant for the {main_theme}: a single word is not informative enough.\n" +
			"   - Prioritize clarity and specificity in your sub-themes.\n" +
			"   - Avoid repetition and strive for diverse angles of exploration.\n" +
			"   - Provide a comprehensive list of potential sub-themes.\n" +
			"3. **Iterate Based on the Analyst's Focus {analyst_focus}**:\n" +
			"   - If no specific {analyst_focus} is provided, transition directly to formatting the JSON response.\n" +
			"4. **Format Your Response as a JSON Object**:\n" +
			"   - Each node in the JSON object must include:\n" +
			"     - `node`: an integer representing the unique identifier for the node.\n" +
			"     - `label`: a string for the name of the sub-theme.\n" +
			"     - `summary`: a string to explain briefly in maximum 15 words why the sub-theme is related to the theme {main_theme}.\n" +
			"       - For the node referring to the first node {main_theme}, just define briefly in maximum 15 words the theme {main_theme}.\n" +
			"     - `children`: an array of child nodes.",
		EnforceStructure: "IMPORTANT: Your response MUST be a valid JSON object. Each node in the JSON object must include:\n" +
			"- `node`: an integer representing the unique identifier for the node.\n" +
			"- `label`: a string for the name of the sub-theme.\n" +
			"- `summary`: a string to explain briefly in maximum 15 words why the sub-theme is related to the theme.\n" +
			"- For the node referring to the main theme, just define briefly in maximum 15 words the theme.\n" +
			"- `children`: an array of child nodes.\n" +
			"Format the JSON object as a nested dictionary. Be careful when specifying keys and items.\n" +
			"Avoid overlapping labels. Break down joint concepts into unique parents so that each parent represents ONLY ONE concept. " +
			"AVOID creating branch names such as 'Compliance and Regulatory Risk'. Keep risks separate and create a single branch for each risk, " +
			"such as 'Compliance Risk' and 'Regulatory Risk', each with their own children.\n" +
			"Return ONLY the JSON object, with no extra text, explanation, or markdown.\n" +
			"You MUST use ONLY these field names: label, node, summary, children. Do NOT use underscores, spaces, or any other characters in field names. " +
			"If you use any other field names, your answer will be rejected.\n" +
			"## Example Structure:\n" +
			"**Theme: Global Warming**\n\n" +
			"{\n" +
			"  \"node\": 1,\n" +
			"  \"label\": \"Global Warming\",\n" +
			"  \"summary\": \"Global Warming is a serious risk\",\n" +
			"  \"children\": [\n" +
			"    {\"node\": 2, \"label\": \"Renewable Energy Adoption\", \"summary\": \"Renewable energy reduces greenhouse gas emissions and thereby global warming and climate change effects\", \"children\": [\n" +
			"      {\"node\": 5, \"label\": \"Solar Energy\", \"summary\": \"Solar energy reduces greenhouse gas emissions\"},\n" +
			"      {\"node\": 6, \"label\": \"Wind Energy\", \"summary\": \"Wind energy reduces greenhouse gas emissions\"},\n" +
			"      {\"node\": 7, \"label\": \"Hydropower\", \"summary\": \"Hydropower reduces greenhouse gas emissions\"}\n" +
			"    ]},\n" +
			"    {\"node\": 3, \"label\": \"Carbon Emission Reduction\", \"summary\": \"Carbon emission reduction decreases greenhouse gases\", \"children\": [\n" +
			"      {\"node\": 8, \"label\": \"Carbon Capture Technology\", \"summary\": \"Carbon capture technology reduces atmospheric CO2\"},\n" +
			"      {\"node\": 9, \"label\": \"Emission Trading Systems\", \"summary\": \"Emission trading systems incentivizes reductions in greenhouse gases\"}\n" +
			"    ]}\n" +
			"  ]\n" +
			"}",
	},
}

// MapTypes returns the known map type keys.
func MapTypes() []string {
	types := make([]string, 0, len(promptTemplates))
	for k := range promptTemplates {
		types = append(types, k)
	}
	return types
}

func templateFor(mapType string) (promptTemplate, error) {
	if mapType == "" {
		mapType = "theme"
	}
	tpl, ok := promptTemplates[mapType]
	if !ok {
		return promptTemplate{}, fmt.Errorf("unknown map type %q", mapType)
	}
	return tpl, nil
}

func renderTemplate(text, theme, focus string) string {
	return strings.NewReplacer(
		"{main_theme}", theme,
		"{analyst_focus}", focus,
	).Replace(text)
}

// ComposeThemesSystemPrompt builds the one-shot system prompt for the
// "theme" map type from the main theme and the analyst focus.
func ComposeThemesSystemPrompt(theme, focus string) string {
	tpl := promptTemplates["theme"]
	instructions := renderTemplate(tpl.DefaultInstructions, theme, focus)
	return instructions + " " + focus + "\n" + tpl.EnforceStructure
}
