package cmd

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/paydash/payment-dashboard/internal/auth"
	"github.com/paydash/payment-dashboard/internal/payment"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			if _, err := db.Exec("DELETE FROM payments"); err != nil {
				log.Fatalf("failed to clear payments: %v", err)
			}
			if _, err := db.Exec("DELETE FROM users"); err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, "admin", string(hash), auth.RoleAdmin)
		seedUser(db, "viewer", string(hash), auth.RoleViewer)

		seedPayments(db, 200)

		fmt.Println("Seeding complete")
	},
}

func seedUser(db *sqlx.DB, username, passwordHash, role string) {
	var exists int
	if err := db.QueryRow("SELECT 1 FROM users WHERE username = $1", username).Scan(&exists); err == nil {
		fmt.Printf("user %s already exists\n", username)
		return
	}

	if _, err := db.Exec(
		"INSERT INTO users (username, password_hash, role, created_at) VALUES ($1, $2, $3, now())",
		username, passwordHash, role,
	); err != nil {
		log.Fatalf("failed to insert user %s: %v", username, err)
	}
	fmt.Printf("Seeded user: %s (%s)\n", username, role)
}

var seedReceivers = []string{
	"Acme Stores", "Blue Bottle Cafe", "City Utilities", "Delta Groceries",
	"Evergreen Pharmacy", "Fresh Mart", "Grand Hotel", "Metro Transit",
}

func seedPayments(db *sqlx.DB, count int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	for i := 0; i < count; i++ {
		txnID := "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		amount := decimal.NewFromInt(int64(rng.Intn(49900) + 100)).Div(decimal.NewFromInt(100))
		status := payment.Statuses[rng.Intn(len(payment.Statuses))]
		method := payment.Methods[rng.Intn(len(payment.Methods))]
		receiver := seedReceivers[rng.Intn(len(seedReceivers))]
		createdAt := now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)

		if _, err := db.Exec(
			`INSERT INTO payments (transaction_id, amount, receiver, status, method, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			txnID, amount.StringFixed(2), receiver, status, method, "seeded payment", createdAt,
		); err != nil {
			log.Fatalf("failed to insert payment: %v", err)
		}
	}

	fmt.Printf("Seeded %d payments\n", count)
}
