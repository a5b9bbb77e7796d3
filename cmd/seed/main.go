package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"profilevault/internal/config"
	"profilevault/internal/database"
	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
	jwtsvc "profilevault/internal/pkg/jwt"
)

type seedUser struct {
	username string
	email    string
	password string
	name     string
	lastName string
	role     string
}

var seedUsers = []seedUser{
	{"admin", "admin@profilevault.local", "admin123", "Ana", "Admin", "admin"},
	{"jdoe", "jdoe@profilevault.local", "employee123", "John", "Doe", "employee"},
	{"msmith", "msmith@profilevault.local", "employee123", "Mary", "Smith", "employee"},
}

func main() {
	config.LoadDotEnv()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "profilevault.db"
	}
	authCfg, err := config.LoadAuthRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, &user.User{}, &asset.Asset{}, &asset.Version{}); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	users := user.NewRepository(db)
	tokens := jwtsvc.New(authCfg.JWTSecret, authCfg.JWTAccessTTL)
	ctx := context.Background()

	for _, s := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		u := &user.User{
			Username:     s.username,
			Email:        s.email,
			PasswordHash: string(hash),
			Name:         s.name,
			LastName:     s.lastName,
			RoleRef:      s.role,
			Status:       true,
		}
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("seed_skip username=%s reason=exists", s.username)
				continue
			}
			log.Fatalf("create %s: %v", s.username, err)
		}

		token, err := tokens.GenerateToken(u.ID, u.RoleRef)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s (%s) id=%s\n  token: %s\n", s.username, s.role, u.ID, token)
	}

	log.Println("Seed complete")
}
