package db

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"petfoodstore/models"
)

var DB *gorm.DB

func Connect() {
	var err error

	dsn := os.Getenv("DB")

	tempDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = tempDB.Exec("CREATE DATABASE IF NOT EXISTS petfoodstore CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;").Error
	if err != nil {
		panic(err)
	}

	sqlDB, _ := tempDB.DB()
	sqlDB.Close()

	DB, err = gorm.Open(mysql.Open(dsn+"petfoodstore?charset=utf8mb4&parseTime=True&loc=Local"), &gorm.Config{})
	if err != nil {
		panic(err)
	}
}

func Sync() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Notification{},
		&models.ChatRoom{},
		&models.ChatMessage{},
	)
	if err != nil {
		panic(err)
	}
}
