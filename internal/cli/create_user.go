package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
	"gorm.io/gorm"
)

// CreateUserCommand provisions a local account without going through
// the registration form. Useful for seeding a fresh deployment.
type CreateUserCommand struct {
	Username     string
	Password     string
	DatabasePath string
	BcryptCost   int
}

// NewCreateUserCommand creates a new CreateUserCommand
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new account (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.BcryptCost, "cost", 12, "Bcrypt cost factor for the password hash")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a local user account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice -password s3cret\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice -password s3cret -db /data/secrets.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return errors.New("username is required")
	}
	if cmd.Password == "" {
		return errors.New("password is required")
	}

	return nil
}

// Run executes the create-user command
func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hasher := auth.NewHasher(cmd.BcryptCost, 1)
	hash, err := hasher.Hash(context.Background(), cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	repo := users.NewRepository(db.DB)
	user, err := repo.Create(&entities.User{Username: cmd.Username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("username '%s' is already taken", cmd.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user '%s' (id %d)\n", user.Username, user.ID)
	return nil
}
