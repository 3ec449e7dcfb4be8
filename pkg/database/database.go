package database

import (
	"fmt"
	"forum_backend/internal/config"
	"forum_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 迁移论坛相关表并写入默认标签
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Tag{},
		&model.Thread{},
		&model.Reply{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")

	var count int64
	db.Model(&model.Tag{}).Count(&count)
	if count == 0 {
		defaultTags := []model.Tag{
			{Slug: "installation", Name: "Installation", Forum: true},
			{Slug: "configuration", Name: "Configuration", Forum: true},
			{Slug: "database", Name: "Database", Forum: true},
			{Slug: "eloquent", Name: "Eloquent", Forum: true},
			{Slug: "requests", Name: "Requests", Forum: true},
			{Slug: "session", Name: "Session", Forum: true},
			{Slug: "views", Name: "Views", Forum: true},
			{Slug: "blade", Name: "Blade", Forum: true},
			{Slug: "queues", Name: "Queues", Forum: true},
			{Slug: "testing", Name: "Testing", Forum: true},
		}
		if err := db.Create(&defaultTags).Error; err != nil {
			return fmt.Errorf("seed tags: %w", err)
		}
	}

	return nil
}
