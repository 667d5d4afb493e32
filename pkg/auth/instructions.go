package auth

import (
	"fmt"
	"strings"
)

// ShowTokenExtractionGuide displays step-by-step instructions for
// extracting the sessionid cookie from a logged-in browser session
func ShowTokenExtractionGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("INSTAGRAM SESSION TOKEN GUIDE")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	fmt.Println("Private and age-gated content needs a session token. Extract it")
	fmt.Println("from a logged-in browser session:")
	fmt.Println()

	fmt.Println("STEP 1: Log in")
	fmt.Println("   - Go to https://www.instagram.com and log in")
	fmt.Println()

	fmt.Println("STEP 2: Open Developer Tools")
	fmt.Println("   - Chrome/Edge/Brave/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   - Safari: enable the Develop menu first, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("STEP 3: Find the sessionid cookie")
	fmt.Println("   - Go to the Application tab (Storage in Firefox)")
	fmt.Println("   - Expand Cookies and select https://www.instagram.com")
	fmt.Println("   - Copy the full value of the 'sessionid' cookie")
	fmt.Println("     (it contains %3A and %2C sequences; copy everything)")
	fmt.Println()

	fmt.Println("STEP 4: Save it")
	fmt.Println("   - igresolver auth login --username <name>")
	fmt.Println("   - or export IGRESOLVER_SESSION_TOKEN=<value>")
	fmt.Println()

	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - The token grants full access to the account")
	fmt.Println("   - Never share it; this tool stores it encrypted")
	fmt.Println("   - Prefer a secondary account")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
}

// ShowQuickExtractGuide shows a one-line reminder for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\nQuick guide: F12 > Application > Cookies > instagram.com > copy 'sessionid'")
	fmt.Println("Run 'igresolver auth help' for the full walkthrough")
}
