package conversation

// Status lines shown to the user. They never include provider details.
const (
	msgConsent           = "Answer a few quick questions to sharpen the prompt? (yes/no)"
	msgFetchingQuestions = "Thinking of a few questions..."
	msgQuestions         = "Answer each question, pick an option, or /skip."
	msgFallbackQuestions = "Using a standard set of questions."
	msgPreferences       = "A few preferences before the prompt is written."
	msgGenerating        = "Writing your prompt..."
	msgReady             = "Your prompt is ready. Use /edit <request> to refine it."
	msgDegraded          = "The prompt service had trouble, so your task is shown as written. You can edit it or try again."
	msgEditing           = "Applying your edit..."
	msgEdited            = "Prompt updated."
	msgEditUnchanged     = "The edit could not be applied. Your prompt is unchanged."
	msgStopped           = "Stopped."
	msgCleared           = "Conversation cleared. Use /restore to bring it back."
	msgRestored          = "Conversation restored."
	msgNothingToRestore  = "Nothing to restore."
	msgFirstQuestion     = "This is the first question. Use /new to start over."
	msgNothingToUndo     = "There is nothing to go back to."
	msgNothingToSkip     = "There is nothing to skip."
	msgNothingToEdit     = "There is no prompt to edit yet."
	msgNothingToStop     = "Nothing is running."
	msgEditUsage         = "Usage: /edit <what to change>"
	msgLoginRequired     = "Sign in with /login <id> to generate your prompt. Your answers are kept."
	msgLoginUsage        = "Usage: /login <id> [email]"
	msgSignedOut         = "Signed out."
	msgUnclearChoice     = "Type edit to rephrase it, or continue to use it anyway."
	msgEditTask          = "Edit your task and press Enter."
	msgRevise            = "Edit your task. Submitting it unchanged picks up where you left off."
	msgResumed           = "Picking up where you left off."
	msgNothingToRevise   = "There is no task in progress to revise."
	msgPrefsSaved        = "Preferences saved."
	msgPrefsNotSaved     = "Preferences could not be saved."
	msgModeQuick         = "Quick mode: new tasks go straight to a prompt."
	msgModeGuided        = "Guided mode: new tasks start with a few questions."
	msgHelp              = "Commands: /new /clear /restore /stop /back /skip /edit <request> /quick /guided /prefs /login <id> [email] /logout /revise"
)
