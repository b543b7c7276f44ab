package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/pagetrans/credentials"
	"github.com/minios-linux/pagetrans/i18n"
	"github.com/minios-linux/pagetrans/translate"
)

// ---------------------------------------------------------------------------
// auth (stored provider secrets)
// ---------------------------------------------------------------------------

// secretProviders are the providers with something worth storing.
var secretProviders = []struct {
	id      translate.ProviderName
	name    string
	helpURL string
}{
	{translate.ProviderOpenAI, "OpenAI", "https://platform.openai.com/api-keys"},
	{translate.ProviderGemini, "Gemini API", "https://aistudio.google.com/apikey"},
	{translate.ProviderMyMemory, "MyMemory", "https://mymemory.translated.net/doc/usagelimits.php"},
}

func isSecretProvider(id string) bool {
	for _, p := range secretProviders {
		if string(p.id) == id {
			return true
		}
	}
	return false
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage stored provider API keys"),
		Long: `Manage provider secrets stored in ` + "`$XDG_DATA_HOME/pagetrans/auth.json`" + `.

Stored values are used only when the configuration file and the environment
leave them empty.`,
	}

	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthListCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key, baseURL, email string

	cmd := &cobra.Command{
		Use:   "login <openai|gemini|mymemory>",
		Short: i18n.T("Store credentials for a provider"),
		Long: `Store credentials for a provider.

Without --key the key is read from standard input.

Examples:
  pagetrans auth login openai
  pagetrans auth login openai --key sk-... --base-url http://localhost:8080/v1
  pagetrans auth login mymemory --email me@example.com`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var out []string
			for _, p := range secretProviders {
				out = append(out, string(p.id)+"\t"+p.name)
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.InOrStdin(), args[0], key, baseURL, email)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVar(&email, "email", "", "Contact e-mail (mymemory)")

	return cmd
}

func runAuthLogin(in io.Reader, provider, key, baseURL, email string) error {
	if !isSecretProvider(provider) {
		return fmt.Errorf(i18n.T("provider %q has no credentials to store"), provider)
	}

	if provider == string(translate.ProviderMyMemory) {
		if email == "" {
			return errors.New(i18n.T("--email is required for mymemory"))
		}
		if err := credentials.Set(provider, credentials.Info{Email: email}); err != nil {
			return err
		}
		logSuccess(i18n.T("%s credentials saved"), provider)
		return nil
	}

	if key == "" {
		for _, p := range secretProviders {
			if string(p.id) == provider {
				fmt.Fprintf(os.Stderr, "\n  Get your API key from: %s%s%s\n\n", colorGreen, p.helpURL, colorReset)
			}
		}
		if existing := credentials.Load().Get(provider); existing != nil && existing.Key != "" {
			fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, credentials.MaskKey(existing.Key), colorReset)
		}
		fmt.Fprintf(os.Stderr, "  Enter API key: ")

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return errors.New(i18n.T("no API key provided"))
		}
		key = strings.TrimSpace(scanner.Text())
		if key == "" {
			return errors.New(i18n.T("no API key provided"))
		}
	}

	if err := credentials.Set(provider, credentials.Info{Key: key, BaseURL: baseURL}); err != nil {
		return err
	}
	logSuccess(i18n.T("%s credentials saved"), provider)
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: i18n.T("Remove stored credentials"),
		Long: `Remove stored credentials for one or all providers.

Examples:
  pagetrans auth logout                     Remove all credentials
  pagetrans auth logout --provider openai   Remove only the OpenAI key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				if err := credentials.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored credentials removed"))
				return nil
			}
			if !isSecretProvider(provider) {
				return fmt.Errorf(i18n.T("provider %q has no credentials to store"), provider)
			}
			if err := credentials.Remove(provider); err != nil {
				return err
			}
			logSuccess(i18n.T("%s credentials removed"), provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials"),
		Run: func(cmd *cobra.Command, args []string) {
			printStoredCredentials(cmd.OutOrStdout(), credentials.Load())
		},
	}
}

func printStoredCredentials(w io.Writer, store credentials.Store) {
	fmt.Fprintf(w, "\n%sStored Credentials%s (%s)\n", colorBlue, colorReset, credentials.FilePath())
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, p := range secretProviders {
		entry := store.Get(string(p.id))
		switch {
		case entry == nil:
			fmt.Fprintf(w, "  %-10s %snot configured%s\n", p.id, colorRed, colorReset)
		case entry.Key != "":
			status := fmt.Sprintf("%sconfigured%s (key: %s)", colorGreen, colorReset, credentials.MaskKey(entry.Key))
			if entry.BaseURL != "" {
				status += fmt.Sprintf("\n  %10s endpoint: %s", "", entry.BaseURL)
			}
			fmt.Fprintf(w, "  %-10s %s\n", p.id, status)
		case entry.Email != "":
			fmt.Fprintf(w, "  %-10s %sconfigured%s (email: %s)\n", p.id, colorGreen, colorReset, entry.Email)
		default:
			fmt.Fprintf(w, "  %-10s %snot configured%s\n", p.id, colorRed, colorReset)
		}
	}
	fmt.Fprintln(w)
}
