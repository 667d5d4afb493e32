package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igresolver/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored session tokens",
	Long: `Manage stored Instagram session tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (IGRESOLVER_SESSION_TOKEN, read-only)

Never share your token or config files!`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a session token securely",
	Long: `Store an Instagram session token securely in the system keychain or an
encrypted file.

You will be prompted for:
  - Instagram username (if not provided)
  - Session token (the sessionid cookie value, input is hidden)
  - User agent (optional, press Enter for the default)

Run 'igresolver auth guide' for a walkthrough of extracting the token.`,
	Example: `  igresolver auth login
  igresolver auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored tokens",
	Long: `Remove stored session tokens. With no username, all stored accounts
are removed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogout,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List all stored accounts with the token masked.`,
	Run:   runAuthList,
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to extract a session token from your browser",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenExtractionGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authGuideCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read username:", err)
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		fmt.Fprintln(os.Stderr, "username is required")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Credentials for %s already exist and will be replaced.\n", username)
	}

	token, err := readSecret("Session token (sessionid cookie): ", reader)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read token:", err)
		os.Exit(1)
	}
	if token == "" {
		auth.ShowQuickExtractGuide()
		os.Exit(1)
	}

	fmt.Print("User agent (press Enter for default): ")
	userAgent, _ := reader.ReadString('\n')

	account := &auth.Account{
		Username:     username,
		SessionToken: token,
		UserAgent:    strings.TrimSpace(userAgent),
	}
	if err := manager.Store(account); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store credentials:", err)
		os.Exit(1)
	}

	fmt.Printf("Stored session token for %s\n", username)
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		username := strings.TrimSpace(args[0])
		if err := manager.Delete(username); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Removed credentials for %s\n", username)
		return
	}

	if err := manager.DeleteAll(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Removed all stored credentials")
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Run 'igresolver auth login' to add one.")
		return
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%-24s token=%s  modified=%s\n",
			sanitized.Username, sanitized.SessionToken,
			sanitized.LastModified.Format("2006-01-02 15:04"))
	}
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(prompt string, reader *bufio.Reader) (string, error) {
	fmt.Print(prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
