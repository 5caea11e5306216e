package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/prefs"
)

func newPrefsCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "View and change saved generation preferences",
		Long: `Preferences shape every generated prompt. They are saved for the
signed-in user, or for this device's session when signed out.

Keys: ` + strings.Join(preferenceKeyNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPrefs(cmd.Context(), r.app)
		},
	}
	cmd.AddCommand(newPrefsSetCmd(r), newPrefsResetCmd(r), newPrefsSkipCmd(r))
	return cmd
}

func newPrefsSetCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "set [key=value ...]",
		Short: "Set preferences",
		Long: `Set one or more preferences. An empty value clears a key.
Without arguments on a terminal, a form asks for each key.

Examples:
  promptforge prefs set tone=Friendly audience="Technical experts"
  promptforge prefs set temperature=0.3
  promptforge prefs set personaHints=`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app := r.app
			scope := prefsScope(ctx, app)
			current, err := app.Prefs.GetPreferences(ctx, scope)
			if err != nil {
				return err
			}

			var next domain.Preferences
			switch {
			case len(args) > 0:
				next, err = applyAssignments(current, args)
			case app.IsInteractive():
				next, err = runPrefsForm(current)
			default:
				return fmt.Errorf("expected key=value arguments")
			}
			if err != nil {
				return err
			}
			if err := app.Prefs.SavePreferences(ctx, scope, next); err != nil {
				return err
			}
			fmt.Fprint(app.Out, formatter.FormatPreferences(scope, next))
			return nil
		},
	}
}

func newPrefsResetCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope := prefsScope(ctx, r.app)
			if err := r.app.Prefs.DeletePreferences(ctx, scope); err != nil {
				return err
			}
			fmt.Fprintln(r.app.Out, formatter.Dim("Preferences cleared for "+scope+"."))
			return nil
		},
	}
}

func newPrefsSkipCmd(r *root) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "skip <key> [key ...]",
		Short: "Never ask for these keys during a conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope := prefsScope(ctx, r.app)
			current, err := r.app.Prefs.GetPreferences(ctx, scope)
			if err != nil {
				return err
			}
			for _, a := range args {
				key, err := domain.ParsePreferenceKey(a)
				if err != nil {
					return err
				}
				current.DoNotAsk = toggleKey(current.DoNotAsk, key, !undo)
			}
			if err := r.app.Prefs.SavePreferences(ctx, scope, current); err != nil {
				return err
			}
			fmt.Fprint(r.app.Out, formatter.FormatPreferences(scope, current))
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "ask for these keys again")
	return cmd
}

func showPrefs(ctx context.Context, app *App) error {
	scope := prefsScope(ctx, app)
	p, err := app.Prefs.GetPreferences(ctx, scope)
	if err != nil {
		return err
	}
	fmt.Fprint(app.Out, formatter.FormatPreferences(scope, p))
	return nil
}

func prefsScope(ctx context.Context, app *App) string {
	u, _ := app.Identity.CurrentUser(ctx)
	return conversation.PreferenceScope(u, app.Identity.SessionID())
}

// applyAssignments applies key=value pairs to a copy of p.
func applyAssignments(p domain.Preferences, args []string) (domain.Preferences, error) {
	out := p.Clone()
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return p, fmt.Errorf("expected key=value, got %q", a)
		}
		key, err := domain.ParsePreferenceKey(k)
		if err != nil {
			return p, err
		}
		if err := out.Set(key, v); err != nil {
			return p, fmt.Errorf("%s: %w", key, err)
		}
	}
	return out, nil
}

func toggleKey(keys []domain.PreferenceKey, key domain.PreferenceKey, on bool) []domain.PreferenceKey {
	out := make([]domain.PreferenceKey, 0, len(keys)+1)
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	if on {
		out = append(out, key)
	}
	return out
}

func preferenceKeyNames() []string {
	out := make([]string, len(domain.AllPreferenceKeys))
	for i, k := range domain.AllPreferenceKeys {
		out[i] = string(k)
	}
	return out
}

// ── form ─────────────────────────────────────────────────────────────────────

const keepValue = "\x00keep"

// runPrefsForm asks for every key, one group per key. Enumerated keys offer
// their options plus "keep current"; the rest take free text.
func runPrefsForm(current domain.Preferences) (domain.Preferences, error) {
	values := make(map[domain.PreferenceKey]*string, len(domain.AllPreferenceKeys))
	groups := make([]*huh.Group, 0, len(domain.AllPreferenceKeys))
	for _, key := range domain.AllPreferenceKeys {
		cur, _ := current.Value(key)
		v := cur
		values[key] = &v
		groups = append(groups, huh.NewGroup(prefField(key, cur, values[key])))
	}

	form := huh.NewForm(groups...).WithTheme(promptforgeHuhTheme()).WithShowHelp(false)
	if err := form.Run(); err != nil {
		return current, err
	}

	out := current.Clone()
	for key, v := range values {
		if *v == keepValue {
			continue
		}
		if err := out.Set(key, *v); err != nil {
			return current, fmt.Errorf("%s: %w", key, err)
		}
	}
	return out, nil
}

func prefField(key domain.PreferenceKey, current string, value *string) huh.Field {
	options := prefs.Options(key)
	if len(options) == 0 {
		return huh.NewInput().
			Title(prefs.Question(key)).
			Description(string(key)).
			Value(value)
	}
	keep := "Keep current"
	if current != "" {
		keep += " (" + current + ")"
	}
	opts := []huh.Option[string]{huh.NewOption(keep, keepValue)}
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}
	*value = keepValue
	return huh.NewSelect[string]().
		Title(prefs.Question(key)).
		Description(string(key)).
		Options(opts...).
		Value(value)
}

// promptforgeHuhTheme styles forms with the shell palette.
func promptforgeHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}
