package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	log      *zap.Logger
}

// InitDB initializes the relational store and, for the mongo post store, the MongoDB client
func InitDB(cfg *Config, log *zap.Logger) (*DB, error) {
	postgresDB, err := initPostgres(cfg.PostgresConnStr, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db := &DB{Postgres: postgresDB, log: log}
	if cfg.PostStore != PostStoreMongo {
		return db, nil
	}

	mongoClient, err := initMongo(cfg.MongoURI, log)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db.Mongo = mongoClient
	return db, nil
}

// InitMongo connects MongoDB alone, for tools that only touch the post store
func InitMongo(cfg *Config, log *zap.Logger) (*DB, error) {
	mongoClient, err := initMongo(cfg.MongoURI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return &DB{Mongo: mongoClient, log: log}, nil
}

// initPostgres opens the GORM connection. A sqlite:// prefix selects a local
// SQLite file instead of PostgreSQL.
func initPostgres(connStr string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(connStr, "sqlite://"); ok {
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(connStr)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Info("Successfully connected to relational database", zap.String("dialect", dialector.Name()))
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string, log *zap.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Info("Successfully connected to MongoDB!")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.log.Error("Error getting SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("Error closing relational database connection", zap.Error(err))
		} else {
			db.log.Info("Relational database connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("Error closing MongoDB connection", zap.Error(err))
		} else {
			db.log.Info("MongoDB connection closed.")
		}
	}
}
