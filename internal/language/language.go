// Package language maps editor language identifiers to human-readable names
// and default per-language prompt instructions.
package language

// DefaultID is used when the host cannot identify the document language.
const DefaultID = "plaintext"

var names = map[string]string{
	"abap":            "ABAP",
	"bat":             "Windows Bat",
	"bibtex":          "BibTeX",
	"c":               "C",
	"clojure":         "Clojure",
	"coffeescript":    "CoffeeScript",
	"cpp":             "C++",
	"csharp":          "C#",
	"css":             "CSS",
	"cuda-cpp":        "CUDA C++",
	"diff":            "Diff",
	"dockercompose":   "Docker Compose",
	"dockerfile":      "Dockerfile",
	"fsharp":          "F#",
	"git-commit":      "Git Commit",
	"git-rebase":      "Git Rebase",
	"go":              "Go",
	"groovy":          "Groovy",
	"haml":            "Haml",
	"html":            "HTML",
	"jade":            "Pug",
	"java":            "Java",
	"javascript":      "JavaScript",
	"javascriptreact": "JavaScript React",
	"json":            "JSON",
	"jsonc":           "JSON with Comments (JSONC)",
	"julia":           "Julia",
	"latex":           "LaTeX",
	"less":            "Less",
	"lua":             "Lua",
	"makefile":        "Makefile",
	"markdown":        "Markdown",
	"objective-c":     "Objective-C",
	"objective-cpp":   "Objective-C++",
	"perl":            "Perl",
	"perl6":           "Perl 6",
	"php":             "PHP",
	"plaintext":       "Plain Text",
	"powershell":      "PowerShell",
	"pug":             "Pug",
	"python":          "Python",
	"r":               "R",
	"razor":           "Razor (cshtml)",
	"ruby":            "Ruby",
	"rust":            "Rust",
	"scss":            "SCSS",
	"shaderlab":       "ShaderLab",
	"shellscript":     "Shell Script (Bash)",
	"slim":            "Slim",
	"sql":             "SQL",
	"stylus":          "Stylus",
	"swift":           "Swift",
	"tex":             "TeX",
	"typescript":      "TypeScript",
	"typescriptreact": "TypeScript React",
	"vb":              "Visual Basic",
	"vue":             "Vue",
	"vue-html":        "Vue HTML",
	"xml":             "XML",
	"xsl":             "XSL",
	"yaml":            "YAML",
}

var extensions = map[string]string{
	"abap":       "abap",
	"bat":        "bat",
	"c":          "c",
	"cjs":        "javascript",
	"clj":        "clojure",
	"cljc":       "clojure",
	"cljr":       "clojure",
	"cljs":       "clojure",
	"coffee":     "coffeescript",
	"cpp":        "cpp",
	"cs":         "csharp",
	"css":        "css",
	"diff":       "diff",
	"dockerfile": "dockerfile",
	"fs":         "fsharp",
	"go":         "go",
	"h":          "cpp",
	"hpp":        "cpp",
	"jav":        "java",
	"java":       "java",
	"jl":         "julia",
	"js":         "javascript",
	"jsx":        "javascriptreact",
	"md":         "markdown",
	"mdx":        "markdown",
	"mjs":        "javascript",
	"ps1":        "powershell",
	"py":         "python",
	"rb":         "ruby",
	"rs":         "rust",
	"sh":         "shellscript",
	"ts":         "typescript",
	"tsx":        "typescriptreact",
}

// instructions holds default language-specific prompt guidance merged under
// every command template.
var instructions = map[string]string{
	"c":               "Use modern C syntax and features.",
	"cpp":             "Use modern C++ syntax and features.",
	"csharp":          "Use modern C# syntax and features.",
	"go":              "Use modern, idiomatic Go.",
	"javascript":      "Use modern JavaScript syntax and features.",
	"javascriptreact": "Use modern JavaScript syntax and features. Prefer functional components over class components.",
	"php":             "Use modern PHP syntax and features.",
	"python":          "Use modern Python syntax and features.",
	"typescript":      "Use modern TypeScript syntax and features.",
	"typescriptreact": "Use modern TypeScript syntax and features. Prefer functional components over class components.",
}

// Name returns the human-readable name for a language identifier, falling
// back through the file extension and finally to "Plain Text".
func Name(id, ext string) string {
	if name, ok := names[id]; ok {
		return name
	}
	if mapped, ok := extensions[ext]; ok {
		if name, ok := names[mapped]; ok {
			return name
		}
		return mapped
	}
	return names[DefaultID]
}

// FromExtension returns the language identifier for a file extension, or
// DefaultID when unknown.
func FromExtension(ext string) string {
	if id, ok := extensions[ext]; ok {
		return id
	}
	return DefaultID
}

// Instructions returns the default language-specific instruction string, or
// empty when the language has none.
func Instructions(id string) string {
	return instructions[id]
}

// DefaultInstructions returns a copy of the default per-language instruction
// map, for merging under command templates.
func DefaultInstructions() map[string]string {
	out := make(map[string]string, len(instructions))
	for k, v := range instructions {
		out[k] = v
	}
	return out
}
