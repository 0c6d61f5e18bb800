package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mvucic/todo-backend/internal/config"
	"github.com/mvucic/todo-backend/internal/database"
	postgresrepo "github.com/mvucic/todo-backend/internal/repository/postgres"
	"github.com/mvucic/todo-backend/internal/service"
)

// Management commands that would otherwise need direct SQL: inspecting
// accounts and seeding development data.
func main() {
	cmd := flag.String("cmd", "", "command to run: admin-info, check-users, sample-data")
	flag.Parse()

	cfg := config.Load()

	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()

	if err := database.Migrate(ctx, cfg); err != nil {
		log.Fatal(err)
	}

	userRepo := postgresrepo.NewUserRepo(pool)
	tokenRepo := postgresrepo.NewTokenRepo(pool)
	productRepo := postgresrepo.NewProductRepo(pool)

	switch *cmd {
	case "admin-info":
		err = adminInfo(ctx, userRepo)
	case "check-users":
		err = checkUsers(ctx, userRepo, tokenRepo)
	case "sample-data":
		err = sampleData(ctx, cfg, userRepo, tokenRepo, productRepo)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func adminInfo(ctx context.Context, userRepo *postgresrepo.UserRepo) error {
	users, err := userRepo.List(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Staff and superuser accounts:")
	found := false
	for _, u := range users {
		if !u.IsStaff && !u.IsSuperuser {
			continue
		}
		found = true
		role := "staff"
		if u.IsSuperuser {
			role = "superuser"
		}
		fmt.Printf("  %-20s %-30s %s\n", u.Username, u.Email, role)
	}
	if !found {
		fmt.Println("  (none)")
	}
	return nil
}

func checkUsers(ctx context.Context, userRepo *postgresrepo.UserRepo, tokenRepo *postgresrepo.TokenRepo) error {
	users, err := userRepo.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, u := range users {
		state := "unverified"
		if u.EmailVerified {
			state = "verified"
		}
		active := "inactive"
		if u.IsActive {
			active = "active"
		}

		tokenInfo := "no pending token"
		token, err := tokenRepo.GetUnusedByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if token != nil {
			tokenInfo = fmt.Sprintf("pending token: %s", token.State(now))
		}

		fmt.Printf("%-20s %-30s %-10s %-10s %s\n", u.Username, u.Email, state, active, tokenInfo)
	}
	return nil
}

func sampleData(
	ctx context.Context,
	cfg *config.Config,
	userRepo *postgresrepo.UserRepo,
	tokenRepo *postgresrepo.TokenRepo,
	productRepo *postgresrepo.ProductRepo,
) error {
	// Registration goes through the real service so users get profiles and
	// tokens the same way the API creates them; only the email is skipped.
	authService := service.NewAuthService(userRepo, tokenRepo, noopSender{}, cfg.JWTSecret,
		cfg.VerificationTokenTTL, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	productService := service.NewProductService(productRepo, userRepo)

	samples := []struct {
		username string
		email    string
		products []service.CreateProductInput
	}{
		{
			username: "alice",
			email:    "alice@example.com",
			products: []service.CreateProductInput{
				{Name: "Mechanical Keyboard", Price: 129.99},
				{Name: "USB-C Hub", Price: 39.50},
			},
		},
		{
			username: "bob",
			email:    "bob@example.com",
			products: []service.CreateProductInput{
				{Name: "Desk Lamp", Price: 24.90},
			},
		},
	}

	for _, sample := range samples {
		result, err := authService.Register(ctx, service.RegisterInput{
			Username: sample.username,
			Email:    sample.email,
			Password: "Sample-Pass-1234",
		})
		if err != nil {
			return fmt.Errorf("creating sample user %s: %w", sample.username, err)
		}

		// Verify through the registration token so the account ends up
		// active exactly like a real signup would.
		token, err := tokenRepo.GetUnusedByUser(ctx, result.User.ID)
		if err != nil {
			return err
		}
		if _, err := authService.VerifyEmail(ctx, token.Token); err != nil {
			return fmt.Errorf("verifying sample user %s: %w", sample.username, err)
		}

		for _, p := range sample.products {
			if _, err := productService.Create(ctx, result.User.ID, p); err != nil {
				return fmt.Errorf("creating sample product %q: %w", p.Name, err)
			}
		}

		fmt.Printf("Created %s with %d product(s)\n", sample.username, len(sample.products))
	}

	return nil
}

type noopSender struct{}

func (noopSender) SendVerificationEmail(to, username, token string) error { return nil }
