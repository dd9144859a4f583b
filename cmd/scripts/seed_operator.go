package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sportpicks/sportpicks-backend/internal/models"
	mongorepo "github.com/sportpicks/sportpicks-backend/internal/repositories/mongodb"
	"github.com/sportpicks/sportpicks-backend/pkg/mongodb"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a back-office operator account. Usage:
//
//	OPERATOR_EMAIL=ops@example.com OPERATOR_PASSWORD=... go run ./cmd/scripts
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "sportpicks"
	}
	email := os.Getenv("OPERATOR_EMAIL")
	password := os.Getenv("OPERATOR_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("OPERATOR_EMAIL and OPERATOR_PASSWORD environment variables are required")
	}
	role := os.Getenv("OPERATOR_ROLE")
	if role == "" {
		role = "admin"
	}

	client, err := mongodb.NewClient(mongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := client.Database(dbName)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	repo := mongorepo.NewOperatorRepository(db)
	operator := &models.Operator{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repo.Create(ctx, operator); err != nil {
		log.Fatalf("Failed to create operator: %v", err)
	}
	log.Printf("Operator %s created with role %s", email, role)
}
