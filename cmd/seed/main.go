// Command seed creates a recruiter account and, optionally, a handful of
// sample postings for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ats-backend/internal/core/config"
	"ats-backend/internal/core/database"
	"ats-backend/internal/core/logger"
	"ats-backend/internal/domain"
	"ats-backend/internal/repo"
	"ats-backend/internal/service"
	"ats-backend/pkg/utils"
)

var sampleJobs = []service.JobInput{
	{Title: "Frontend Developer", Department: "Engineering", Location: "Remote"},
	{Title: "Backend Developer", Department: "Engineering", Location: "New York"},
	{Title: "UX Designer", Department: "Design", Location: "San Francisco"},
	{Title: "Product Manager", Department: "Product", Location: "London", IsOpen: utils.Ptr(false)},
}

func main() {
	username := flag.String("username", "", "recruiter username")
	email := flag.String("email", "", "recruiter email")
	password := flag.String("password", "", "recruiter password")
	withJobs := flag.Bool("jobs", false, "also insert sample job postings")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{Name: "ats-seed", Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		LogLevel: cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db, &domain.User{}, &domain.Job{}, &domain.Application{}); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *username != "" {
		if *email == "" || *password == "" {
			log.Fatal("-email and -password are required with -username")
		}
		hash, err := utils.HashPassword(*password)
		if err != nil {
			log.Fatal("hash password", zap.Error(err))
		}
		u := &domain.User{ID: utils.NewID(), Username: *username, Email: *email, PasswordHash: hash}
		u.Touch(time.Now())
		if err := repo.NewUserRepo(db).Create(ctx, u); err != nil {
			log.Fatal("create user", zap.Error(err))
		}
		log.Info("user created", zap.String("id", u.ID), zap.String("username", u.Username))
	}

	if *withJobs {
		// 只用到岗位的增删改，不需要文件存储
		jobs := service.NewJobService(repo.NewJobRepo(db), nil, log.Named("jobs"))
		for _, in := range sampleJobs {
			j, err := jobs.CreateJob(ctx, in)
			if err != nil {
				log.Fatal("create job", zap.String("title", in.Title), zap.Error(err))
			}
			log.Info("job created", zap.String("id", j.ID), zap.String("title", j.Title), zap.Bool("isOpen", j.IsOpen))
		}
	}
}
