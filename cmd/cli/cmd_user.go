package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/griddeck/griddeck/pkg/database"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long:  `Commands for managing users in GridDeck.`,
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new admin user",
	Long:  `Create a new admin user.`,
	RunE:  runCreateUser,
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE:  runListUsers,
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteUser,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
	userCmd.AddCommand(listUsersCmd)
	userCmd.AddCommand(deleteUserCmd)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	dbManager := cmd.Context().Value("dbManager").(*database.DatabaseManager)

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Enter username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	fmt.Print("Enter password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	password := string(passwordBytes)
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	fmt.Println()

	if password != string(confirmBytes) {
		return fmt.Errorf("passwords do not match")
	}

	user, err := dbManager.CreateUser(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully!\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func runListUsers(cmd *cobra.Command, args []string) error {
	dbManager := cmd.Context().Value("dbManager").(*database.DatabaseManager)

	users, err := dbManager.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	for _, user := range users {
		fmt.Printf("%s  %s  (created %s)\n", user.ID, user.Username, user.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func runDeleteUser(cmd *cobra.Command, args []string) error {
	dbManager := cmd.Context().Value("dbManager").(*database.DatabaseManager)

	if err := dbManager.DeleteUser(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User %s deleted\n", args[0])
	return nil
}
