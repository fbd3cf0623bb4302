package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
)

var roles = map[string]models.UserRole{
	"manager": models.RoleManager,
	"staff":   models.RoleStaff,
	"teacher": models.RoleTeacher,
	"student": models.RoleStudent,
}

func main() {
	var (
		userID string
		role   string
		email  string
		ttl    time.Duration
	)

	flag.StringVar(&userID, "user", "", "User ID placed in the token")
	flag.StringVar(&role, "role", "staff", "One of manager, staff, teacher, student")
	flag.StringVar(&email, "email", "", "Optional email claim")
	flag.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		flag.Usage()
		os.Exit(2)
	}
	userRole, ok := roles[strings.ToLower(role)]
	if !ok {
		log.Fatalf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction {
		log.Fatal("refusing to mint tokens with the production secret")
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(userID, userRole, email)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "role=%s expires=%s\n", userRole, expiresAt.Format(time.RFC3339))
}
