package cli

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(profileCmd)

	// Profile subcommands
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSelectCmd)
	profileCmd.AddCommand(profileShowCmd)

	// Login command flags
	loginCmd.Flags().StringP("email", "e", "", "Email address")
	loginCmd.Flags().StringP("password", "p", "", "Password (not recommended, use interactive prompt)")
	loginCmd.Flags().StringP("server", "s", "http://localhost:8080", "Server URL")
	loginCmd.Flags().StringP("profile", "", "default", "Profile name")
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Manage authentication and user profiles for the PipeDeck API.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the PipeDeck API",
	Long: `Authenticate with the PipeDeck API using email and password.

This command will prompt for credentials if not provided via flags.
The session token will be stored in the selected profile for future use.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		serverURL, _ := cmd.Flags().GetString("server")
		profileName, _ := cmd.Flags().GetString("profile")

		if email == "" {
			fmt.Print("Email: ")
			_, _ = fmt.Scanln(&email)
		}

		if password == "" {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(syscall.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		}

		if email == "" {
			return fmt.Errorf("email is required")
		}
		if password == "" {
			return fmt.Errorf("password is required")
		}

		client := NewAPIClient(serverURL, "")

		fmt.Printf("Authenticating with %s...\n", serverURL)
		loginResp, err := client.Login(email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		profile := Profile{
			Name:      profileName,
			ServerURL: serverURL,
			Token:     loginResp.Token,
		}

		if err := AddProfile(profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		fmt.Printf("✓ Successfully authenticated as %s\n", loginResp.User.Email)
		fmt.Printf("✓ Profile '%s' created and set as default\n", profileName)

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Logout and remove the session token",
	Long: `Revoke the session and remove the token for the specified profile.
If no profile is specified, removes the current default profile.`,
	RunE: func(_ *cobra.Command, args []string) error {
		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			profileName = config.DefaultProfile
		}

		if profileName == "" {
			return fmt.Errorf("no profile specified and no default profile set")
		}

		// Best-effort server-side revocation; the local profile is removed
		// either way.
		config, err := LoadConfig()
		if err == nil {
			if profile, ok := config.Profiles[profileName]; ok && profile.Token != "" {
				client := NewAPIClientFromProfile(&profile)
				if logoutErr := client.Logout(); logoutErr != nil {
					fmt.Printf("Warning: server-side sign-out failed: %s\n", logoutErr)
				}
			}
		}

		if err := RemoveProfile(profileName); err != nil {
			return fmt.Errorf("failed to remove profile: %w", err)
		}

		fmt.Printf("✓ Profile '%s' removed\n", profileName)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Display current authentication status and active profile information.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		profile, err := GetCurrentProfile()
		if err != nil {
			fmt.Println("Status: Not authenticated")
			fmt.Printf("Error: %s\n", err.Error())
			return nil
		}

		client := NewAPIClientFromProfile(profile)
		user, err := client.GetSessionUser()
		if err != nil {
			fmt.Printf("Status: Session token exists but is not valid\n")
			fmt.Printf("Profile: %s\n", profile.Name)
			fmt.Printf("Server: %s\n", profile.ServerURL)
			fmt.Printf("Error: %s\n", err.Error())
			return nil
		}

		fmt.Printf("Status: ✓ Authenticated as %s\n", user.Email)
		fmt.Printf("Profile: %s\n", profile.Name)
		fmt.Printf("Server: %s\n", profile.ServerURL)

		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage authentication profiles",
	Long:  `Manage multiple authentication profiles for different environments.`,
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all profiles",
	Long:    `List all configured authentication profiles.`,
	Aliases: []string{"ls"},
	RunE: func(_ *cobra.Command, _ []string) error {
		profiles, err := ListProfiles()
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		if len(profiles) == 0 {
			fmt.Println("No profiles configured")
			return nil
		}

		config, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println("Available profiles:")
		for _, profile := range profiles {
			prefix := "  "
			if profile.Name == config.DefaultProfile {
				prefix = "* "
			}

			fmt.Printf("%s%s\n", prefix, profile.Name)
			fmt.Printf("    Server: %s\n", profile.ServerURL)
		}

		return nil
	},
}

var profileSelectCmd = &cobra.Command{
	Use:     "select [name]",
	Short:   "Select a profile as default",
	Long:    `Set the specified profile as the default for all operations.`,
	Aliases: []string{"switch", "use"},
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		profileName := args[0]

		if err := SetCurrentProfile(profileName); err != nil {
			return fmt.Errorf("failed to select profile: %w", err)
		}

		fmt.Printf("✓ Profile '%s' selected as default\n", profileName)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long:  `Display detailed information about a profile.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		}

		var profile *Profile
		var err error

		if profileName == "" {
			profile, err = GetCurrentProfile()
			if err != nil {
				return fmt.Errorf("failed to get current profile: %w", err)
			}
		} else {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			p, exists := config.Profiles[profileName]
			if !exists {
				return fmt.Errorf("profile '%s' not found", profileName)
			}
			profile = &p
		}

		fmt.Printf("Profile: %s\n", profile.Name)
		fmt.Printf("Server: %s\n", profile.ServerURL)

		// Mask token
		if len(profile.Token) > 16 {
			fmt.Printf("Token: %s...%s\n",
				profile.Token[:8],
				strings.Repeat("*", 8)+profile.Token[len(profile.Token)-8:])
		} else if profile.Token != "" {
			fmt.Printf("Token: ***\n")
		} else {
			fmt.Printf("Token: Not set\n")
		}

		return nil
	},
}
