package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var langFilter string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices the speech engine offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			engine := ctx.newEngine(cfg, nopLogger())
			voices, err := engine.Voices(cmd.Context())
			if err != nil {
				return fmt.Errorf("list voices: %w", err)
			}

			rows := make([][]string, 0, len(voices))
			for _, voice := range voices {
				name := languageName(voice.Language)
				if langFilter != "" && !matchesLanguage(voice.Language, name, langFilter) {
					continue
				}
				rows = append(rows, []string{voice.Name, voice.Language, name, voice.Description})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No voices found")
				return nil
			}

			table := renderTable(
				[]string{"Voice", "Locale", "Language", "Sample"},
				rows,
				nil,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFilter, "language", "l", "", "Only show voices matching this language code or name")
	return cmd
}

// languageName maps a locale such as "en_US" to a readable language name.
func languageName(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return locale
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return locale
	}
	return name
}

func matchesLanguage(locale, name, filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	return strings.HasPrefix(strings.ToLower(locale), filter) ||
		strings.Contains(strings.ToLower(name), filter)
}
