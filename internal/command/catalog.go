package command

import "github.com/codewing-ai/codewing/internal/language"

// Prompt fragments shared by the builtin catalog.
const (
	codeImportant = "IMPORTANT: Only return the code inside of a code fence and nothing else. Do not explain your changes in any way."
	codeHave      = "I have the following {{language}} code:\n```{{ft}}\n{{selection}}\n```\n\n"

	proseImportant = "IMPORTANT: Only return the text inside of the code fence and nothing else. I'm aware that this text is not code - put it inside of a code block anyways. Do not explain your changes."
	proseHave      = "I have the following text:\n```\n{{selection}}\n```\n\n"
)

// Builtin catalog categories.
const (
	CategoryCompletion    = "Completion"
	CategoryDocumentation = "Documentation & comments"
	CategoryTests         = "Tests"
	CategoryRefactor      = "Refactor"
	CategoryAnalysis      = "Analysis & debugging"
	CategoryWriting       = "Writing"
	CategoryMisc          = "Miscellaneous"
)

// baseCommand supplies defaults merged under every resolved template.
var baseCommand = Command{
	Label:                "Unnamed command",
	Message:              "",
	System:               "You are a {{language}} coding assistant.",
	Insertion:            InsertNone,
	Model:                "gpt-3.5-turbo",
	Temperature:          ptr(0.3),
	MaxTokens:            ptr(4096),
	Choices:              ptr(1),
	LanguageInstructions: language.DefaultInstructions(),
}

func ptr[T any](v T) *T { return &v }

// builtinCommands is the builtin catalog. IDs are stable; labels are what
// pickers display.
var builtinCommands = []Command{
	{
		ID:        "completeSelection",
		Label:     "Complete the selection",
		Category:  CategoryCompletion,
		Message:   "I have the following {{language}} code snippet:\n```{{ft}}\n{{selection}}\n```\n\nIt is unfinished. Find the areas that appear to be unfinished and complete them. Use best practices and do not write any comments. {{language_instructions}} " + codeImportant,
		Insertion: InsertReplace,
		LanguageInstructions: map[string]string{
			"vue": "Use the modern Vue 3 composition API.",
		},
	},
	{
		ID:        "completeFromComment",
		Label:     "Complete from comment",
		Category:  CategoryCompletion,
		Message:   "I have a comment that describes code that needs to be written. Your task is to write the code that satisfies the comment. Here is the comment:\n\n{{selection}}\n\n" + codeImportant + "{{:temperature:0.7}}",
		Insertion: InsertReplace,
	},
	{
		ID:        "functionComment",
		Label:     "Write function comment",
		Category:  CategoryDocumentation,
		Message:   codeHave + "Create a comment for this function. {{language_instructions}} Attention paid to documenting parameters, return types, and any exceptions or errors. Do not create comments for the body of the function. Do not include the function signature or the function in your output. " + codeImportant,
		Insertion: InsertBefore,
		LanguageInstructions: map[string]string{
			"cpp":        "Write a doxygen style comment for the function using best practices.",
			"java":       "Write a javadoc style comment for the function using best practices.",
			"javascript": "Write a JSDoc style comment for the function using best practices.",
			"typescript": "Write a TSDoc style comment for the function using best practices.",
		},
	},
	{
		ID:        "inlineComments",
		Label:     "Write inline comments",
		Category:  CategoryDocumentation,
		Message:   codeHave + "Write comments throughout the code describing the code where appropriate. Put each comment a line above the code segment it refers to. Do not write comments for self-explanatory code, such as variable assignments or log statements. Return all of the given code as-is, but with your comments included. " + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "writeTests",
		Label:     "Write unit tests",
		Category:  CategoryTests,
		Message:   codeHave + "Write really good unit tests using best practices for the given language. Generate tests using the {{input:What test framework? (e.g. jest, testify, gtest)}} testing framework. Only return the unit tests. IMPORTANT: Only return the code inside of a code fence and nothing else.",
		Insertion: InsertNew,
		LanguageInstructions: map[string]string{
			"cpp":  "Generate unit tests using the gtest framework.",
			"go":   "Generate unit tests using the testify framework.",
			"java": "Generate unit tests using the JUnit framework.",
		},
	},
	{
		ID:        "refactor",
		Label:     "Refactor",
		Category:  CategoryRefactor,
		Message:   codeHave + "{{input:How do you want to refactor this?}}\nRefactor the code to be more readable and maintainable. {{language_instructions}} " + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "modify",
		Label:     "Make modification",
		Category:  CategoryRefactor,
		Message:   codeHave + "You are tasked with making the following modification: {{input:What modification do you want to make?}}\n\nDo not make any other changes to the code.\n\n{{language_instructions}}\n\n" + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "optimizePerformance",
		Label:     "Optimize for performance",
		Category:  CategoryRefactor,
		Message:   codeHave + "Optimize the code to be more efficient and faster.\n{{input:Elaborate on what specifically to optimize, or leave blank to attempt general optimization.}}\n{{language_instructions}}\n\n" + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "makeDry",
		Label:     "Make DRY",
		Category:  CategoryRefactor,
		Message:   codeHave + "Refactor the code by making it much more DRY, minimizing code duplication as much as possible without changing its behavior. {{language_instructions}} " + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "decompose",
		Label:     "Decompose",
		Category:  CategoryRefactor,
		Message:   codeHave + "Refactor the code to improve its modularity and reduce function responsibility. Decompose monoliths into smaller, more manageable components. Use your best judgement to determine when a new function is necessary. {{language_instructions}} " + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "removeDeadCode",
		Label:     "Remove dead code",
		Category:  CategoryRefactor,
		Message:   codeHave + "Refactor this code, removing any unused or obsolete code segments without changing the behavior of the code in any way. {{language_instructions}} " + codeImportant,
		Insertion: InsertReplace,
	},
	{
		ID:        "analyzeForBugs",
		Label:     "Analyze for bugs",
		Category:  CategoryAnalysis,
		Message:   codeHave + "Analyze the code for bugs. List each bug as a list item. If you have a solution for a bug, include it as a code block underneath the bug's list item.",
		Insertion: InsertNone,
	},
	{
		ID:        "explain",
		Label:     "Explain",
		Category:  CategoryAnalysis,
		Message:   codeHave + "Explain this code as if you were explaining to another developer. Use your best judgement to determine how much explanation is necessary.",
		Insertion: InsertNone,
	},
	{
		ID:        "question",
		Label:     "Question",
		Category:  CategoryAnalysis,
		Message:   codeHave + "I have a question about this code: {{input:What is your question?}}",
		Insertion: InsertNone,
	},
	{
		ID:        "timeComplexity",
		Label:     "Time complexity",
		Category:  CategoryAnalysis,
		Message:   codeHave + "Calculate the time complexity of the code. Return the Big O notation of the time complexity. If you are unable to calculate the time complexity, return \"unknown\".",
		Insertion: InsertNone,
	},
	{
		ID:        "chatSelection",
		Label:     "Chat about the selection",
		Category:  CategoryAnalysis,
		Message:   codeHave + "I want to talk about this code.\n\n{{input:What do you want to say?}}",
		Insertion: InsertNone,
	},
	{
		ID:        "chat",
		Label:     "Chat (no context)",
		Category:  CategoryMisc,
		Message:   "{{input:What do you want to say?}}",
		System:    "You are a helpful assistant.",
		Insertion: InsertNone,
	},
	{
		ID:        "fixGrammar",
		Label:     "Fix grammar",
		Category:  CategoryWriting,
		Message:   proseHave + "Correct any grammar mistakes in the text, such as spelling, punctuation, or other errors. Do not change anything else.\n\n" + proseImportant + "{{:temperature:0.2}}",
		System:    "You are a technical writer, grammar expert, and {{language}} coding assistant.",
		Insertion: InsertReplace,
	},
	{
		ID:        "makeConcise",
		Label:     "Make more concise",
		Category:  CategoryWriting,
		Message:   proseHave + "Improve the conciseness of the text. Do not change anything else.\n\n" + proseImportant + "{{:temperature:0.5}}",
		System:    "You are an assistant to a technical writer.",
		Insertion: InsertReplace,
	},
	{
		ID:        "translate",
		Label:     "Translate to another language",
		Category:  CategoryMisc,
		Message:   codeHave + "Translate it to {{input:What language do you want to translate this to? Add details such as framework if you like, e.g., 'node, using express'}}\n\nThe translated code must behave the same as the original code. " + codeImportant,
		Insertion: InsertNew,
	},
	{
		ID:        "scaffold",
		Label:     "Scaffold a file",
		Category:  CategoryMisc,
		Message:   "Your task is to help me create an entirely new file. I will give you a brief description of what I'd like to create, and you will give me a solution that completely implements my request. Do not leave out details and do not leave in any TODO statements. Ensure the entire solution is contained to a single file only. Here's what I want you to create: {{input:What do you want to make?}}\n\n" + codeImportant,
		Insertion: InsertNew,
	},
}
