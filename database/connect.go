package database

import (
	"fmt"
	"log"
	"time"

	"storefront/config"
	"storefront/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB() {
	settings := config.Load()

	var err error
	DB, err = Open(settings)
	if err != nil {
		panic("failed to connect database")
	}

	fmt.Println("Connection Opened to Database")
	if err := Migrate(DB); err != nil {
		panic(fmt.Sprintf("failed to migrate database: %v", err))
	}
	fmt.Println("Database Migrated")
}

// Open returns a gorm DB for the configured driver.
func Open(s config.Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "mysql":
		params := s.DBParams
		if params == "" {
			params = "charset=utf8mb4&parseTime=True&loc=UTC"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", s.DBUser, s.DBPassword, s.DBHost, s.DBPort, s.DBName, params)
		dialector = mysql.Open(dsn)
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName)
		if s.DBParams != "" {
			dsn += " " + s.DBParams
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return gdb, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return err
	}
	log.Println("[DB] schema up to date")
	return nil
}
