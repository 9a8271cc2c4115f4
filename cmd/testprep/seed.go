package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/testprep/internal/bank"
	"github.com/pavelanni/testprep/internal/model"
	"github.com/pavelanni/testprep/internal/store"
)

const sampleBankSource = "builtin:sample"

// defaultCatalog is the catalog a fresh install starts with. Every entry uses
// the built-in sample bank until an admin attaches real banks.
var defaultCatalog = []model.TestInfo{
	{Title: "Weekly Test #12 - Quantitative Aptitude", Subject: "Mathematics", DurationMinutes: 60, MaxMarks: 100, AvailableOn: "2025-11-05"},
	{Title: "Weekly Test #13 - Verbal Ability", Subject: "English", DurationMinutes: 45, MaxMarks: 100, AvailableOn: "2025-11-06"},
	{Title: "Weekly Test #14 - Logical Reasoning", Subject: "Logic", DurationMinutes: 60, MaxMarks: 100, AvailableOn: "2025-11-07"},
	{Title: "Mock Test - Full Length CAT", Subject: "All Subjects", DurationMinutes: 180, MaxMarks: 300, AvailableOn: "2025-11-08"},
	{Title: "Weekly Test #15 - Data Interpretation", Subject: "Mathematics", DurationMinutes: 40, MaxMarks: 100, AvailableOn: "2025-11-10", Status: model.TestUpcoming},
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import item bank files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)

			db, err := store.New(v.GetString("db"))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			imported, err := importBanks(db, args)
			if err != nil {
				return err
			}
			for path, id := range imported {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tbank %d\n", path, id)
			}
			return nil
		},
	}
	cmd.Flags().String("db", "testprep.db", "SQLite database path")
	addLogFlags(cmd)
	return cmd
}

// importBanks loads each bank file once. A file whose content changed since
// its last import is skipped so archived attempts keep matching their bank.
// It returns the IDs of newly stored banks keyed by path.
func importBanks(db *store.Store, paths []string) (map[string]int64, error) {
	imported := make(map[string]int64)
	for _, path := range paths {
		f, data, err := bank.Load(path)
		if err != nil {
			return imported, err
		}

		hash := bank.Hash(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return imported, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("bank file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("bank file changed since last import, skipping to avoid breaking archived attempts",
				"path", path)
			continue
		}

		b, err := f.Bank()
		if err != nil {
			return imported, fmt.Errorf("validate %s: %w", path, err)
		}
		id, err := db.InsertBank(f.Name, path, b)
		if err != nil {
			return imported, fmt.Errorf("insert bank from %s: %w", path, err)
		}
		if err := db.SetImportedFileHash(path, hash); err != nil {
			return imported, fmt.Errorf("record import for %s: %w", path, err)
		}
		imported[path] = id
		slog.Info("imported bank", "path", path, "bank_id", id, "count", b.Len())
	}
	return imported, nil
}

// seedCatalog fills an empty catalog with the default tests.
func seedCatalog(db *store.Store) error {
	count, err := db.TestCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	sample := bank.Sample()
	b, err := sample.Bank()
	if err != nil {
		return err
	}
	bankID, err := db.InsertBank(sample.Name, sampleBankSource, b)
	if err != nil {
		return fmt.Errorf("insert sample bank: %w", err)
	}
	for _, t := range defaultCatalog {
		t.BankID = bankID
		if _, err := db.CreateTest(t); err != nil {
			return fmt.Errorf("create test %q: %w", t.Title, err)
		}
	}
	slog.Info("seeded default catalog", "tests", len(defaultCatalog), "bank_id", bankID)
	return nil
}

func seedAdmin(db *store.Store, email, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or TESTPREP_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     email,
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", store.NormalizeUsername(email))
	return nil
}

const (
	demoEmail    = "john.doe@example.com"
	demoPassword = "password123"
)

// seedDemoUser creates the demo learner with a filled-in profile.
func seedDemoUser(db *store.Store) error {
	existing, err := db.GetUserByUsername(demoEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	id, err := db.CreateUser(model.User{
		Username:     demoEmail,
		DisplayName:  "John Doe",
		PasswordHash: string(hash),
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	profile, err := json.Marshal(model.Profile{
		Name:        "John Doe",
		Email:       demoEmail,
		Phone:       "+91-98765-43210",
		Location:    "Mumbai, India",
		DateOfBirth: "1999-05-15",
		Bio:         "Aspiring MBA student preparing for CAT 2026",
	})
	if err != nil {
		return err
	}
	if err := db.SetValue(id, model.KeyProfile, string(profile)); err != nil {
		return fmt.Errorf("store demo profile: %w", err)
	}
	slog.Info("seeded demo user", "username", demoEmail)
	return nil
}
