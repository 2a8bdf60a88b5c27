package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/pkg/config"
	"github.com/courtside/pickem/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}

func dropTables(db *database.DB) error {
	// Reverse of creation order so foreign keys drop cleanly
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", all[i], err)
		}
	}
	return nil
}

func seedData(db *database.DB) error {
	group := models.Group{Name: "Demo Group", Code: "DEMO01"}
	if err := db.FirstOrCreate(&group, models.Group{Code: "DEMO01"}).Error; err != nil {
		return err
	}

	for _, name := range []string{"Alice", "Bob"} {
		user := models.User{DisplayName: name}
		if err := db.Where("display_name = ?", name).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		member := models.GroupMember{GroupID: group.ID, UserID: user.ID}
		if err := db.Where("group_id = ? AND user_id = ?", group.ID, user.ID).FirstOrCreate(&member).Error; err != nil {
			return err
		}
	}
	return nil
}
